package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Veraticus/keytrigger/pkg/config"
	"github.com/Veraticus/keytrigger/pkg/detector"
	"github.com/Veraticus/keytrigger/pkg/dispatch"
	"github.com/Veraticus/keytrigger/pkg/parser"
	"github.com/Veraticus/keytrigger/pkg/result"
	"github.com/Veraticus/keytrigger/pkg/session"
)

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config     *config.Config
	Logger     *slog.Logger
	Host       *Host
	Parser     *parser.Parser
	Detector   *detector.Detector
	Limiter    *dispatch.TokenBucketRateLimiter
	Dispatcher *dispatch.Dispatcher
	Monitor    *session.Monitor
	Watcher    *config.Watcher

	mu        sync.Mutex
	closeOnce sync.Once
}

// NewDependencies creates all dependencies with the given configuration. The
// host reports collaborator calls on out.
func NewDependencies(cfg *config.Config, out io.Writer, logger *slog.Logger) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		Host:   NewHost(out),
	}

	deps.Parser = parser.New(cfg.ParserOptions(), logger.With("component", "parser"))
	deps.Detector = detector.New(cfg.Definitions(), logger.With("component", "detector"))

	deps.Limiter = dispatch.NewTokenBucketRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Refill)
	deps.Dispatcher = dispatch.New(dispatch.Dependencies{
		AI:        deps.Host,
		Committer: deps.Host,
		Browser:   deps.Host,
		Launcher:  deps.Host,
		Settings:  deps.Host,
		Limiter:   deps.Limiter,
	}, logger.With("component", "dispatch"))
	deps.Dispatcher.SetCommands(cfg.Commands)
	deps.Dispatcher.SetSearchEngine(cfg.SearchEngine)

	deps.Monitor = session.NewMonitor(deps.Parser, deps.Detector, deps.Host, deps.Dispatcher, logger.With("component", "session"))
	deps.Monitor.SetMode(modeFor(cfg))

	deps.Watcher = config.NewWatcher(cfg, logger.With("component", "config"))
	deps.Watcher.OnChange(deps.Apply)

	return deps, nil
}

// Apply pushes a new configuration into every component.
func (d *Dependencies) Apply(cfg *config.Config) {
	d.mu.Lock()
	d.Config = cfg
	d.mu.Unlock()

	d.Parser.Apply(cfg.ParserOptions())
	d.Detector.Update(cfg.Definitions())
	d.Dispatcher.SetCommands(cfg.Commands)
	d.Dispatcher.SetSearchEngine(cfg.SearchEngine)
	d.Monitor.SetMode(modeFor(cfg))
}

// CurrentConfig returns the configuration last applied.
func (d *Dependencies) CurrentConfig() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Config
}

// Close cleans up all dependencies
func (d *Dependencies) Close() {
	d.closeOnce.Do(func() {
		if d.Watcher != nil {
			_ = d.Watcher.Close()
		}
	})
}

func modeFor(cfg *config.Config) session.Mode {
	if cfg.EdgeTriggered {
		return session.EdgeTriggered
	}
	return session.FullParse
}

// Application types lines into the host buffer one rune at a time, the way a
// keyboard would, and reports what the session acts on.
type Application struct {
	deps   *Dependencies
	out    io.Writer
	prompt bool
}

// NewApplication creates a new application with the given dependencies
func NewApplication(deps *Dependencies, out io.Writer, prompt bool) *Application {
	return &Application{
		deps:   deps,
		out:    out,
		prompt: prompt,
	}
}

// Run reads lines from in until EOF or ctx is done. When watch is set the
// config file is reloaded on change.
func (a *Application) Run(ctx context.Context, in io.Reader, watch bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if watch {
		if err := a.deps.Watcher.Start(); err != nil {
			a.deps.Logger.Warn("config watch disabled", "error", err)
		} else {
			go a.drainWatchErrors(ctx)
		}
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	a.showPrompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return nil
			}
			if !a.handleLine(ctx, line) {
				return nil
			}
			a.showPrompt()
		}
	}
}

// handleLine processes one input line. It returns false when the user quits.
func (a *Application) handleLine(ctx context.Context, line string) bool {
	switch strings.TrimSpace(line) {
	case ":quit", ":q":
		return false
	case ":clear":
		a.deps.Host.Clear()
		a.deps.Monitor.Reset()
		return true
	case ":buffer":
		a.printf("buffer: %q\n", a.deps.Host.Text())
		return true
	}

	a.Type(ctx, line)
	a.printf("buffer: %q\n", a.deps.Host.Text())
	return true
}

// Type feeds s to the session one rune at a time with the cursor at the end.
func (a *Application) Type(ctx context.Context, s string) {
	for _, r := range s {
		text := a.deps.Host.Type(string(r))
		res, err := a.deps.Monitor.HandleTextUpdate(ctx, text, len(text))
		if res != nil {
			start, end := res.Bounds()
			a.printf("[MATCH] %s [%d,%d)\n", result.Kind(res), start, end)
		}
		if err != nil {
			a.printf("[ERROR] %v\n", err)
		}
	}
}

func (a *Application) drainWatchErrors(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-a.deps.Watcher.Errors():
			a.printf("[CONFIG] %v\n", err)
		}
	}
}

func (a *Application) showPrompt() {
	if a.prompt {
		a.printf("> ")
	}
}

func (a *Application) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
