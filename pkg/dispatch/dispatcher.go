// Package dispatch routes parse results to the host collaborators that act on them.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Veraticus/keytrigger/pkg/format"
	"github.com/Veraticus/keytrigger/pkg/interfaces"
	"github.com/Veraticus/keytrigger/pkg/result"
	"github.com/Veraticus/keytrigger/pkg/textaction"
)

var (
	// ErrRateLimited is returned when an AI-bound dispatch is denied by the limiter.
	ErrRateLimited = errors.New("dispatch rate limited")
	// ErrUnknownCommand is returned for a command prefix with no definition.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoCollaborator is returned when the collaborator a result needs was not supplied.
	ErrNoCollaborator = errors.New("no collaborator")
)

const webSearchTitle = "Web Search"

// Dependencies are the host collaborators. Any may be nil; results that need
// a missing collaborator fail with ErrNoCollaborator.
type Dependencies struct {
	AI        interfaces.AIClient
	Committer interfaces.TextCommitter
	Browser   interfaces.Browser
	Launcher  interfaces.AppLauncher
	Settings  interfaces.SettingsUI
	Limiter   interfaces.RateLimiter
}

// Dispatcher acts on results. It is safe for concurrent use.
type Dispatcher struct {
	deps   Dependencies
	logger *slog.Logger
	newID  func() string

	mu       sync.RWMutex
	commands []Command
	engine   string
}

// New creates a dispatcher with the default commands and search engine.
func New(deps Dependencies, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		deps:     deps,
		logger:   logger,
		newID:    uuid.NewString,
		commands: DefaultCommands(),
		engine:   DefaultEngine,
	}
}

// SetCommands replaces the command list.
func (d *Dispatcher) SetCommands(commands []Command) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = slices.Clone(commands)
}

// Commands returns the current command list.
func (d *Dispatcher) Commands() []Command {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.commands)
}

// SetSearchEngine selects the engine used for web searches.
func (d *Dispatcher) SetSearchEngine(engine string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.engine = strings.ToLower(engine)
}

// Dispatch acts on r. Each call gets a fresh id that is logged and passed to
// the AI client as the request id.
func (d *Dispatcher) Dispatch(ctx context.Context, r result.Result) error {
	id := d.newID()
	logger := d.logger.With("dispatch_id", id, "result", result.Kind(r))

	var err error
	switch r := r.(type) {
	case result.AI:
		err = d.generate(ctx, id, r.Prompt, "")
	case result.InlineAsk:
		err = d.generate(ctx, id, r.Prompt, "")
	case result.Format:
		err = d.commit(ctx, format.Convert(r.Target, r.Method))
	case result.Command:
		if r.Command == "" {
			err = d.showCommandEditor(ctx)
		} else {
			err = d.runCommand(ctx, id, r.Command, r.Prompt)
		}
	case result.InlineCommand:
		err = d.runCommand(ctx, id, r.Command, r.Prompt)
	case result.WebSearch:
		err = d.search(ctx, r.Query)
	case result.AppTrigger:
		err = d.launch(ctx, r)
	case result.TextAction:
		logger.Debug("text action", "action", r.Action.String())
		err = d.generate(ctx, id, r.Text, textaction.SystemMessage(r.Action, ""))
	case result.Settings:
		err = d.showSettings(ctx)
	default:
		err = fmt.Errorf("unsupported result %T", r)
	}

	if err != nil {
		logger.Warn("dispatch failed", "error", err)
		return err
	}
	logger.Debug("dispatched")
	return nil
}

func (d *Dispatcher) runCommand(ctx context.Context, id, name, prompt string) error {
	if strings.EqualFold(name, WebSearchCommand) {
		return d.search(ctx, prompt)
	}
	d.mu.RLock()
	cmd, ok := findCommand(d.commands, name)
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return d.generate(ctx, id, prompt, cmd.Message)
}

func (d *Dispatcher) generate(ctx context.Context, id, prompt, systemMessage string) error {
	if d.deps.AI == nil {
		return fmt.Errorf("%w: ai client", ErrNoCollaborator)
	}
	if d.deps.Limiter != nil && !d.deps.Limiter.Allow() {
		return ErrRateLimited
	}
	req := interfaces.AIRequest{ID: id, Prompt: prompt, SystemMessage: systemMessage}
	if err := d.deps.AI.Generate(ctx, req); err != nil {
		return fmt.Errorf("generating response: %w", err)
	}
	return nil
}

func (d *Dispatcher) commit(ctx context.Context, text string) error {
	if d.deps.Committer == nil {
		return fmt.Errorf("%w: text committer", ErrNoCollaborator)
	}
	if err := d.deps.Committer.Commit(ctx, text); err != nil {
		return fmt.Errorf("committing text: %w", err)
	}
	return nil
}

func (d *Dispatcher) search(ctx context.Context, query string) error {
	if d.deps.Browser == nil {
		return fmt.Errorf("%w: browser", ErrNoCollaborator)
	}
	d.mu.RLock()
	engine := d.engine
	d.mu.RUnlock()
	if err := d.deps.Browser.OpenURL(ctx, webSearchTitle, SearchURL(engine, query)); err != nil {
		return fmt.Errorf("opening search: %w", err)
	}
	return nil
}

func (d *Dispatcher) launch(ctx context.Context, r result.AppTrigger) error {
	if d.deps.Launcher == nil {
		return fmt.Errorf("%w: app launcher", ErrNoCollaborator)
	}
	if err := d.deps.Launcher.Launch(ctx, r.PackageName, r.ActivityName); err != nil {
		return fmt.Errorf("launching %s: %w", r.AppName, err)
	}
	return nil
}

func (d *Dispatcher) showSettings(ctx context.Context) error {
	if d.deps.Settings == nil {
		return fmt.Errorf("%w: settings ui", ErrNoCollaborator)
	}
	return d.deps.Settings.ShowSettings(ctx)
}

func (d *Dispatcher) showCommandEditor(ctx context.Context) error {
	if d.deps.Settings == nil {
		return fmt.Errorf("%w: settings ui", ErrNoCollaborator)
	}
	return d.deps.Settings.ShowCommandEditor(ctx)
}
