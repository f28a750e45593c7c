package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/keytrigger/pkg/config"
	"github.com/Veraticus/keytrigger/pkg/session"
)

var configEnv = []string{
	"KEYTRIGGER_CONFIG",
	"KEYTRIGGER_ASK_PREFIX",
	"KEYTRIGGER_SEARCH_ENGINE",
	"KEYTRIGGER_APP_TRIGGERS",
	"KEYTRIGGER_TEXT_ACTIONS",
	"KEYTRIGGER_EDGE",
	"KEYTRIGGER_RELOAD_INTERVAL",
	"KEYTRIGGER_LOG_LEVEL",
	"KEYTRIGGER_DEBUG",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range configEnv {
		t.Setenv(name, "")
	}
}

func newTestApp(t *testing.T, cfg *config.Config) (*Application, *Dependencies, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	deps, err := NewDependencies(cfg, &out, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(deps.Close)
	return NewApplication(deps, &out, false), deps, &out
}

func execute(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(ctx)
}

func TestNewDependencies(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.EdgeTriggered = true

	deps, err := NewDependencies(cfg, io.Discard, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Parser == nil || deps.Detector == nil || deps.Dispatcher == nil {
		t.Error("expected matchers and dispatcher to be created")
	}
	if deps.Monitor.Mode() != session.EdgeTriggered {
		t.Errorf("expected edge mode but got %s", deps.Monitor.Mode())
	}

	// Close should be safe to call twice.
	deps.Close()
	deps.Close()

	if _, err := NewDependencies(nil, io.Discard, nil); err == nil {
		t.Error("expected an error for a nil config")
	}
}

func TestApplication_Type(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantBuffer   string
		wantContains []string
	}{
		{
			name:         "bold",
			input:        "hi@",
			wantBuffer:   "\U0001D5F5\U0001D5F6",
			wantContains: []string{"[MATCH] format [0,3)", "[COMMIT]"},
		},
		{
			name:         "ai prompt",
			input:        "what is go$",
			wantBuffer:   "",
			wantContains: []string{"[MATCH] ai [0,11)", "] what is go\n"},
		},
		{
			name:         "web search",
			input:        "golang??",
			wantBuffer:   "",
			wantContains: []string{"[BROWSER] Web Search: https://duckduckgo.com/?q=golang"},
		},
		{
			name:       "plain text",
			input:      "nothing to see",
			wantBuffer: "nothing to see",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps, out := newTestApp(t, config.DefaultConfig())
			app.Type(context.Background(), tt.input)

			if got := deps.Host.Text(); got != tt.wantBuffer {
				t.Errorf("expected buffer %q but got %q", tt.wantBuffer, got)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing expected string: %q\nGot output:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestApplication_Run(t *testing.T) {
	app, deps, out := newTestApp(t, config.DefaultConfig())

	input := "hello\n:buffer\n:clear\nbye\n:quit\nnever typed\n"
	if err := app.Run(context.Background(), strings.NewReader(input), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := deps.Host.Text(); got != "bye" {
		t.Errorf("expected buffer %q but got %q", "bye", got)
	}
	for _, want := range []string{`buffer: "hello"`, `buffer: "bye"`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing expected string: %q\nGot output:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "never") {
		t.Error("expected input after :quit to be ignored")
	}
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	app, _, _ := newTestApp(t, config.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, w := io.Pipe()
	defer func() { _ = w.Close() }()
	if err := app.Run(ctx, r, false); err != nil {
		t.Errorf("expected a clean stop but got %v", err)
	}
}

func TestDependencies_Apply(t *testing.T) {
	app, deps, out := newTestApp(t, config.DefaultConfig())

	cfg := config.DefaultConfig()
	cfg.SearchEngine = "google"
	cfg.EdgeTriggered = true
	deps.Apply(cfg)

	if deps.CurrentConfig() != cfg {
		t.Error("expected the applied config to be current")
	}
	if deps.Monitor.Mode() != session.EdgeTriggered {
		t.Errorf("expected edge mode but got %s", deps.Monitor.Mode())
	}

	app.Type(context.Background(), "gophers??")
	want := "https://www.google.com/search?q=gophers"
	if !strings.Contains(out.String(), want) {
		t.Errorf("output missing expected string: %q\nGot output:\n%s", want, out.String())
	}
}

func TestCLI(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		stdin        string
		wantErr      bool
		wantContains []string
	}{
		{
			name:         "parse format",
			args:         []string{"parse", "hi@"},
			wantContains: []string{"matched: true", "kind: format", "method: bold"},
		},
		{
			name:         "parse from stdin",
			args:         []string{"parse"},
			stdin:        "what is go$\n",
			wantContains: []string{"kind: ai", "prompt: what is go"},
		},
		{
			name:         "parse no match",
			args:         []string{"parse", "plain"},
			wantContains: []string{"matched: false"},
		},
		{
			name:         "parse edge",
			args:         []string{"parse", "--previous", "golang?", "golang??"},
			wantContains: []string{"kind: web_search", "query: golang"},
		},
		{
			name:         "symbol expression",
			args:         []string{"symbol", "expr", "FormatBold", "**"},
			wantContains: []string{`(.+)\*\*$`},
		},
		{
			name:         "symbol from expression",
			args:         []string{"symbol", "from", `([^@]+)@$`},
			wantContains: []string{"@"},
		},
		{
			name:    "symbol unknown kind",
			args:    []string{"symbol", "expr", "Shout", "!"},
			wantErr: true,
		},
		{
			name:         "check",
			args:         []string{"check"},
			wantContains: []string{"ask_prefix: ask", "search_engine: duckduckgo", "kind: CommandAI"},
		},
		{
			name:         "check export",
			args:         []string{"check", "--export-triggers"},
			wantContains: []string{`"kind":"Settings"`},
		},
		{
			name:         "engines",
			args:         []string{"engines"},
			wantContains: []string{"* duckduckgo", "  google"},
		},
		{
			name:         "actions",
			args:         []string{"actions"},
			wantContains: []string{"Available text action commands"},
		},
		{
			name:    "bad log level",
			args:    []string{"check", "--log-level", "loud"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			args := append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, tt.args...)

			var out bytes.Buffer
			err := execute(context.Background(), args, strings.NewReader(tt.stdin), &out)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected an error but got output:\n%s", out.String())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing expected string: %q\nGot output:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestCLI_RunWithConfigFile(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("search_engine: brave\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	args := []string{"--config", path, "run", "--no-watch"}
	if err := execute(context.Background(), args, strings.NewReader("cats??\n"), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://search.brave.com/search?q=cats"
	if !strings.Contains(out.String(), want) {
		t.Errorf("output missing expected string: %q\nGot output:\n%s", want, out.String())
	}
}
