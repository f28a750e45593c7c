package parser

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Veraticus/keytrigger/pkg/apptrigger"
	"github.com/Veraticus/keytrigger/pkg/result"
	"github.com/Veraticus/keytrigger/pkg/trigger"
)

var ignoreGroups = cmpopts.IgnoreFields(result.Span{}, "Groups")

func testOptions() Options {
	return Options{
		Definitions: trigger.Defaults(),
		AskPrefix:   "ask",
		Commands:    []string{"fix", "fixer", "translate", "Reply"},
		AppTriggers: []apptrigger.Trigger{
			{Trigger: "maps", PackageName: "com.maps", AppName: "Maps", Enabled: true},
			{Trigger: "notes@", PackageName: "com.notes", AppName: "Notes", Enabled: true},
		},
		AppTriggersEnabled: true,
		TextActionsEnabled: true,
	}
}

func withKindEnabled(opts Options, kind trigger.Kind, enabled bool) Options {
	defs := make([]trigger.Definition, len(opts.Definitions))
	for i, d := range opts.Definitions {
		if d.Kind == kind {
			d = d.WithEnabled(enabled)
		}
		defs[i] = d
	}
	opts.Definitions = defs
	return opts
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		text string
		want result.Result
	}{
		{
			name: "longest command wins",
			text: "hello /fixer world$",
			want: result.InlineCommand{Span: result.Span{Start: 6, End: 19}, PreservedText: "hello ", Command: "fixer", Prompt: "world"},
		},
		{
			name: "preserved text stays outside the span",
			text: "Important text. /translate hello$",
			want: result.InlineCommand{Span: result.Span{Start: 16, End: 33}, PreservedText: "Important text. ", Command: "translate", Prompt: "hello"},
		},
		{
			name: "command name is matched case-insensitively",
			text: "/REPLY thanks$",
			want: result.InlineCommand{Span: result.Span{Start: 0, End: 14}, Command: "Reply", Prompt: "thanks"},
		},
		{
			name: "bare command at start of text",
			text: "fix teh text$",
			want: result.InlineCommand{Span: result.Span{Start: 0, End: 13}, Command: "fix", Prompt: "teh text"},
		},
		{
			name: "ask shields a format trigger",
			text: "ignore me /ask bold this@",
			want: result.Format{Span: result.Span{Start: 10, End: 25}, Target: "bold this", Method: result.Bold},
		},
		{
			name: "ask shields the ai trigger",
			text: "note /ask what is go$",
			want: result.AI{Span: result.Span{Start: 5, End: 21}, Prompt: "what is go"},
		},
		{
			name: "last ask marker scopes the match",
			text: "a /ask b /ask c@",
			want: result.Format{Span: result.Span{Start: 9, End: 16}, Target: "c", Method: result.Bold},
		},
		{
			name: "strict ask fallback",
			opts: withKindEnabled(testOptions(), trigger.KindAIPrompt, false),
			text: "keep /ask what is go$",
			want: result.InlineAsk{Span: result.Span{Start: 5, End: 21}, PreservedText: "keep ", Prompt: "what is go"},
		},
		{
			name: "app trigger on a word boundary",
			text: "open maps",
			want: result.AppTrigger{Span: result.Span{Start: 5, End: 9}, Trigger: "maps", PackageName: "com.maps", AppName: "Maps"},
		},
		{
			name: "app trigger without a boundary",
			text: "openmaps",
			want: nil,
		},
		{
			name: "app trigger beats format",
			text: "my notes@",
			want: result.AppTrigger{Span: result.Span{Start: 3, End: 9}, Trigger: "notes@", PackageName: "com.notes", AppName: "Notes"},
		},
		{
			name: "format without app trigger",
			text: "my words@",
			want: result.Format{Span: result.Span{Start: 0, End: 9}, Target: "my words", Method: result.Bold},
		},
		{
			name: "text action suffix",
			text: "hello world $rephrase",
			want: result.TextAction{Span: result.Span{Start: 12, End: 21}, Text: "hello world", Action: result.Rephrase},
		},
		{
			name: "unknown text action",
			text: "x $unknowncmd",
			want: nil,
		},
		{
			name: "ai needs text before the symbol",
			text: "$",
			want: nil,
		},
		{
			name: "ai prompt",
			text: "a$",
			want: result.AI{Span: result.Span{Start: 0, End: 2}, Prompt: "a"},
		},
		{
			name: "range selection across lines",
			opts: withKindEnabled(testOptions(), trigger.KindAIPrompt, false),
			text: "intro $first\nsecond$",
			want: result.AI{Span: result.Span{Start: 6, End: 20}, Prompt: "first\nsecond"},
		},
		{
			name: "custom command",
			text: "good morning%tr%",
			want: result.Command{Span: result.Span{Start: 0, End: 16}, Prompt: "good morning", Command: "tr"},
		},
		{
			name: "custom command without name",
			text: "good morning%%",
			want: result.Command{Span: result.Span{Start: 0, End: 14}, Prompt: "good morning"},
		},
		{
			name: "web search",
			text: "golang generics ??",
			want: result.WebSearch{Span: result.Span{Start: 0, End: 18}, Query: "golang generics"},
		},
		{
			name: "settings",
			text: "€",
			want: result.Settings{Span: result.Span{Start: 0, End: 3}},
		},
		{
			name: "inline commands need the ai trigger",
			opts: withKindEnabled(withKindEnabled(testOptions(), trigger.KindAIPrompt, false), trigger.KindRangeSelection, false),
			text: "hello /fix world$",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if opts.Definitions == nil {
				opts = testOptions()
			}
			p := New(opts, nil)
			got, ok := p.Parse(tt.text, len(tt.text))
			if ok != (tt.want != nil) {
				t.Fatalf("expected match=%v but got %v (%#v)", tt.want != nil, ok, got)
			}
			if diff := cmp.Diff(tt.want, got, ignoreGroups); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
			if ok && !result.Valid(tt.text, got) {
				t.Errorf("span of %#v is outside the text", got)
			}
		})
	}
}

func TestParse_Cursor(t *testing.T) {
	p := New(testOptions(), nil)

	got, ok := p.Parse("a$ and more", 2)
	if !ok {
		t.Fatal("expected a match before the cursor")
	}
	if diff := cmp.Diff(result.AI{Span: result.Span{Start: 0, End: 2}, Prompt: "a"}, got, ignoreGroups); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	if _, ok := p.Parse("a$", 99); !ok {
		t.Error("expected a cursor past the end to be clamped")
	}
	if _, ok := p.Parse("a$", -4); ok {
		t.Error("expected a negative cursor to see no text")
	}
	// A cursor inside the three byte € snaps back before it.
	if _, ok := p.Parse("x€", 3); ok {
		t.Error("expected no settings match when the cursor splits the symbol")
	}
}

func TestSnapshot_AITriggerSymbol(t *testing.T) {
	bang, err := trigger.NewDefinition(trigger.KindAIPrompt, "!", true)
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	hash, err := trigger.NewRangeDefinition("<<", ">>", true)
	if err != nil {
		t.Fatalf("range definition: %v", err)
	}

	tests := []struct {
		name        string
		defs        []trigger.Definition
		wantSymbol  string
		wantEnabled bool
	}{
		{name: "ai enabled", defs: []trigger.Definition{bang, hash}, wantSymbol: "!", wantEnabled: true},
		{name: "range end when ai disabled", defs: []trigger.Definition{bang.WithEnabled(false), hash}, wantSymbol: ">>", wantEnabled: true},
		{name: "both disabled", defs: []trigger.Definition{bang.WithEnabled(false), hash.WithEnabled(false)}, wantSymbol: "!", wantEnabled: false},
		{name: "no definitions", defs: nil, wantSymbol: "$", wantEnabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{Definitions: tt.defs}, nil).Snapshot()
			if s.AITriggerSymbol() != tt.wantSymbol {
				t.Errorf("expected symbol %q but got %q", tt.wantSymbol, s.AITriggerSymbol())
			}
			if s.AITriggerEnabled() != tt.wantEnabled {
				t.Errorf("expected enabled=%v but got %v", tt.wantEnabled, s.AITriggerEnabled())
			}
			if s.AskPrefix() != DefaultAskPrefix {
				t.Errorf("expected default ask prefix but got %q", s.AskPrefix())
			}
		})
	}
}

func TestParser_SetCommands(t *testing.T) {
	p := New(testOptions(), nil)
	text := "hi /summon spirits$"

	if got, _ := p.Parse(text, len(text)); result.Kind(got) == "inline_command" {
		t.Fatalf("expected no inline command before it is configured but got %#v", got)
	}

	p.SetCommands([]string{"summon"})
	got, ok := p.Parse(text, len(text))
	if !ok {
		t.Fatal("expected a match after adding the command")
	}
	cmd, isCmd := got.(result.InlineCommand)
	if !isCmd || cmd.Command != "summon" || cmd.Prompt != "spirits" {
		t.Errorf("expected the summon command but got %#v", got)
	}
}

func TestParser_AskAliasIsNotACommand(t *testing.T) {
	opts := testOptions()
	opts.AskPrefix = "q"
	opts.Commands = append(opts.Commands, "ask", "q")
	p := New(opts, nil)

	for _, text := range []string{"keep /ask hello$", "keep /q hello$"} {
		got, ok := p.Parse(text, len(text))
		if !ok {
			t.Fatalf("%q: expected a match", text)
		}
		if _, isCmd := got.(result.InlineCommand); isCmd {
			t.Errorf("%q: expected the ask alias to be excluded but got %#v", text, got)
		}
	}
}

func TestParser_SetAppTriggers(t *testing.T) {
	p := New(testOptions(), nil)
	p.SetAppTriggers(nil)
	if got, ok := p.Parse("open maps", 9); ok {
		t.Errorf("expected no app trigger after clearing the list but got %#v", got)
	}
	if len(p.Snapshot().Options().Commands) != 4 {
		t.Error("expected commands to survive an app trigger update")
	}
}

func TestParser_ConcurrentReload(t *testing.T) {
	p := New(testOptions(), nil)
	disabled := withKindEnabled(testOptions(), trigger.KindFormatBold, false)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				p.Apply(disabled)
			} else {
				p.Apply(testOptions())
			}
			p.SetCommands([]string{"fix"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			got, ok := p.Parse("strong@", 7)
			if ok {
				if f, isFormat := got.(result.Format); !isFormat || f.Target != "strong" {
					t.Errorf("unexpected result %#v", got)
					return
				}
			}
		}
	}()
	wg.Wait()
}
