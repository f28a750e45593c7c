package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Veraticus/keytrigger/pkg/interfaces"
	"github.com/Veraticus/keytrigger/pkg/result"
	"github.com/Veraticus/keytrigger/pkg/testutil"
	"github.com/Veraticus/keytrigger/pkg/textaction"
)

type harness struct {
	ai        *testutil.MockAIClient
	committer *testutil.MockCommitter
	browser   *testutil.MockBrowser
	launcher  *testutil.MockLauncher
	settings  *testutil.MockSettingsUI
	limiter   *testutil.MockRateLimiter
	d         *Dispatcher
}

func newHarness() *harness {
	h := &harness{
		ai:        testutil.NewMockAIClient(),
		committer: testutil.NewMockCommitter(),
		browser:   testutil.NewMockBrowser(),
		launcher:  testutil.NewMockLauncher(),
		settings:  testutil.NewMockSettingsUI(),
		limiter:   testutil.NewMockRateLimiter(true),
	}
	h.d = New(Dependencies{
		AI:        h.ai,
		Committer: h.committer,
		Browser:   h.browser,
		Launcher:  h.launcher,
		Settings:  h.settings,
		Limiter:   h.limiter,
	}, nil)
	h.d.newID = func() string { return "req-1" }
	return h
}

func TestDispatch_AIRequests(t *testing.T) {
	tests := []struct {
		name string
		in   result.Result
		want interfaces.AIRequest
	}{
		{
			name: "ai prompt",
			in:   result.AI{Prompt: "what is go"},
			want: interfaces.AIRequest{ID: "req-1", Prompt: "what is go"},
		},
		{
			name: "inline ask",
			in:   result.InlineAsk{PreservedText: "keep ", Prompt: "hello"},
			want: interfaces.AIRequest{ID: "req-1", Prompt: "hello"},
		},
		{
			name: "custom command",
			in:   result.Command{Prompt: "teh text", Command: "fix"},
			want: interfaces.AIRequest{ID: "req-1", Prompt: "teh text", SystemMessage: "Fix spelling and grammar errors in the following text. Give only the corrected text."},
		},
		{
			name: "inline command ignores case",
			in:   result.InlineCommand{Command: "SHORT", Prompt: "long story"},
			want: interfaces.AIRequest{ID: "req-1", Prompt: "long story", SystemMessage: "Summarize the following text in one or two sentences."},
		},
		{
			name: "text action",
			in:   result.TextAction{Text: "hello world", Action: result.Rephrase},
			want: interfaces.AIRequest{ID: "req-1", Prompt: "hello world", SystemMessage: textaction.SystemMessage(result.Rephrase, "")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			if err := h.d.Dispatch(context.Background(), tt.in); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff([]interfaces.AIRequest{tt.want}, h.ai.GetRequests()); diff != "" {
				t.Errorf("request mismatch (-want +got):\n%s", diff)
			}
			if h.limiter.GetAllowCount() != 1 {
				t.Errorf("expected one limiter check but got %d", h.limiter.GetAllowCount())
			}
		})
	}
}

func TestDispatch_Collaborators(t *testing.T) {
	t.Run("format commits converted text", func(t *testing.T) {
		h := newHarness()
		if err := h.d.Dispatch(context.Background(), result.Format{Target: "no", Method: result.Crossout}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"n\u0336o\u0336"}, h.committer.GetCommits()); diff != "" {
			t.Errorf("commit mismatch (-want +got):\n%s", diff)
		}
		if h.limiter.GetAllowCount() != 0 {
			t.Error("expected formatting to bypass the limiter")
		}
	})

	t.Run("web search uses the engine", func(t *testing.T) {
		h := newHarness()
		h.d.SetSearchEngine("Google")
		if err := h.d.Dispatch(context.Background(), result.WebSearch{Query: "go generics"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []testutil.Page{{Title: "Web Search", URL: "https://www.google.com/search?q=go+generics"}}
		if diff := cmp.Diff(want, h.browser.GetPages()); diff != "" {
			t.Errorf("page mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("built in search command", func(t *testing.T) {
		h := newHarness()
		if err := h.d.Dispatch(context.Background(), result.InlineCommand{Command: "s", Prompt: "weather"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []testutil.Page{{Title: "Web Search", URL: "https://duckduckgo.com/?q=weather"}}
		if diff := cmp.Diff(want, h.browser.GetPages()); diff != "" {
			t.Errorf("page mismatch (-want +got):\n%s", diff)
		}
		if len(h.ai.GetRequests()) != 0 {
			t.Error("expected no ai request for a search command")
		}
	})

	t.Run("empty command opens the editor", func(t *testing.T) {
		h := newHarness()
		if err := h.d.Dispatch(context.Background(), result.Command{Prompt: "x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.settings.GetCommandEditorCount() != 1 {
			t.Errorf("expected the command editor to open once but got %d", h.settings.GetCommandEditorCount())
		}
	})

	t.Run("settings", func(t *testing.T) {
		h := newHarness()
		if err := h.d.Dispatch(context.Background(), result.Settings{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.settings.GetSettingsCount() != 1 {
			t.Errorf("expected settings to open once but got %d", h.settings.GetSettingsCount())
		}
	})

	t.Run("app trigger launches", func(t *testing.T) {
		h := newHarness()
		r := result.AppTrigger{Trigger: "maps", PackageName: "com.maps", ActivityName: ".Main", AppName: "Maps"}
		if err := h.d.Dispatch(context.Background(), r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []testutil.Launch{{PackageName: "com.maps", ActivityName: ".Main"}}
		if diff := cmp.Diff(want, h.launcher.GetLaunches()); diff != "" {
			t.Errorf("launch mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestDispatch_Errors(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		h := newHarness()
		h.limiter.SetAllowResult(false)
		err := h.d.Dispatch(context.Background(), result.AI{Prompt: "x"})
		if !errors.Is(err, ErrRateLimited) {
			t.Errorf("expected ErrRateLimited but got %v", err)
		}
		if len(h.ai.GetRequests()) != 0 {
			t.Error("expected no request when rate limited")
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		h := newHarness()
		err := h.d.Dispatch(context.Background(), result.InlineCommand{Command: "nope", Prompt: "x"})
		if !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("expected ErrUnknownCommand but got %v", err)
		}
	})

	t.Run("missing collaborator", func(t *testing.T) {
		d := New(Dependencies{}, nil)
		err := d.Dispatch(context.Background(), result.WebSearch{Query: "x"})
		if !errors.Is(err, ErrNoCollaborator) {
			t.Errorf("expected ErrNoCollaborator but got %v", err)
		}
	})

	t.Run("collaborator error is wrapped", func(t *testing.T) {
		h := newHarness()
		boom := errors.New("boom")
		h.launcher.SetError(boom)
		err := h.d.Dispatch(context.Background(), result.AppTrigger{PackageName: "com.x", AppName: "X"})
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped launcher error but got %v", err)
		}
	})
}

func TestDispatcher_SetCommands(t *testing.T) {
	h := newHarness()
	h.d.SetCommands([]Command{{Prefix: "poem", Message: "Write a poem."}})

	if err := h.d.Dispatch(context.Background(), result.Command{Prompt: "cats", Command: "poem"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.d.Dispatch(context.Background(), result.Command{Prompt: "x", Command: "fix"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected replaced defaults to be gone but got %v", err)
	}
	reqs := h.ai.GetRequests()
	if len(reqs) != 1 || reqs[0].SystemMessage != "Write a poem." {
		t.Errorf("unexpected requests %+v", reqs)
	}
}

func TestDispatch_UniqueIDs(t *testing.T) {
	ai := testutil.NewMockAIClient()
	d := New(Dependencies{AI: ai}, nil)
	for i := 0; i < 3; i++ {
		if err := d.Dispatch(context.Background(), result.AI{Prompt: "x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	seen := map[string]bool{}
	for _, req := range ai.GetRequests() {
		if req.ID == "" || seen[req.ID] {
			t.Errorf("expected unique non-empty ids but got %q", req.ID)
		}
		seen[req.ID] = true
	}
}
