// Package parser decides which trigger, if any, fires for the text before the
// cursor. Checks run in a fixed priority order and the first hit wins.
package parser

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Veraticus/keytrigger/pkg/apptrigger"
	"github.com/Veraticus/keytrigger/pkg/result"
	"github.com/Veraticus/keytrigger/pkg/textaction"
	"github.com/Veraticus/keytrigger/pkg/trigger"
)

// Options is the configuration a parser snapshot is built from.
type Options struct {
	Definitions        []trigger.Definition
	AskPrefix          string
	Commands           []string
	AppTriggers        []apptrigger.Trigger
	AppTriggersEnabled bool
	TextActionsEnabled bool
}

// Snapshot is the immutable parser state derived from Options.
type Snapshot struct {
	opts       Options
	directives []Directive
	aiSymbol   string
	aiEnabled  bool
	inline     *inlineResolver
	ask        *askShield
}

func newSnapshot(opts Options) *Snapshot {
	opts = Options{
		Definitions:        slices.Clone(opts.Definitions),
		AskPrefix:          strings.TrimSpace(opts.AskPrefix),
		Commands:           slices.Clone(opts.Commands),
		AppTriggers:        slices.Clone(opts.AppTriggers),
		AppTriggersEnabled: opts.AppTriggersEnabled,
		TextActionsEnabled: opts.TextActionsEnabled,
	}
	if opts.AskPrefix == "" {
		opts.AskPrefix = DefaultAskPrefix
	}

	s := &Snapshot{opts: opts}
	var ai, rng *trigger.Definition
	for i := range opts.Definitions {
		def := &opts.Definitions[i]
		switch def.Kind {
		case trigger.KindAIPrompt:
			if ai == nil {
				ai = def
			}
		case trigger.KindRangeSelection:
			if rng == nil {
				rng = def
			}
		}
		if !def.Enabled() {
			continue
		}
		if d, ok := NewDirective(*def); ok {
			s.directives = append(s.directives, d)
		}
	}

	s.aiSymbol = trigger.KindAIPrompt.Info().DefaultSymbol
	switch {
	case ai != nil && ai.Enabled():
		s.aiSymbol, s.aiEnabled = ai.Symbol, true
	case rng != nil && rng.Enabled():
		s.aiSymbol, s.aiEnabled = rng.End(), true
	case ai != nil && ai.Symbol != "":
		s.aiSymbol = ai.Symbol
	}

	s.inline = newInlineResolver(opts.Commands, s.aiSymbol, opts.AskPrefix)
	s.ask = newAskShield(opts.AskPrefix, s.aiSymbol)
	return s
}

// Options returns a copy of the options the snapshot was built from.
func (s *Snapshot) Options() Options {
	o := s.opts
	o.Definitions = slices.Clone(o.Definitions)
	o.Commands = slices.Clone(o.Commands)
	o.AppTriggers = slices.Clone(o.AppTriggers)
	return o
}

// AITriggerSymbol returns the symbol that ends inline commands and asks.
func (s *Snapshot) AITriggerSymbol() string { return s.aiSymbol }

// AITriggerEnabled reports whether inline commands and asks are recognised.
func (s *Snapshot) AITriggerEnabled() bool { return s.aiEnabled }

// AskPrefix returns the inline ask command name.
func (s *Snapshot) AskPrefix() string { return s.opts.AskPrefix }

// Directives returns the enabled directives in stored order.
func (s *Snapshot) Directives() []Directive { return slices.Clone(s.directives) }

// Parser matches triggers against a text buffer. It is safe for concurrent use;
// configuration changes swap a whole snapshot.
type Parser struct {
	snap   atomic.Pointer[Snapshot]
	mu     sync.Mutex // serialises writers
	logger *slog.Logger
}

// New creates a parser from opts.
func New(opts Options, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Parser{logger: logger}
	p.snap.Store(newSnapshot(opts))
	return p
}

// Snapshot returns the current state.
func (p *Parser) Snapshot() *Snapshot {
	return p.snap.Load()
}

// Apply replaces the whole configuration.
func (p *Parser) Apply(opts Options) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.swap(newSnapshot(opts))
}

// SetCommands replaces the inline command names.
func (p *Parser) SetCommands(names []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	opts := p.snap.Load().Options()
	opts.Commands = names
	p.swap(newSnapshot(opts))
}

// SetAppTriggers replaces the app trigger list.
func (p *Parser) SetAppTriggers(triggers []apptrigger.Trigger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	opts := p.snap.Load().Options()
	opts.AppTriggers = triggers
	p.swap(newSnapshot(opts))
}

func (p *Parser) swap(s *Snapshot) {
	p.snap.Store(s)
	p.logger.Debug("parser configuration replaced",
		"directives", len(s.directives),
		"ai_symbol", s.aiSymbol,
		"ai_enabled", s.aiEnabled,
		"commands", len(s.opts.Commands),
		"app_triggers", len(s.opts.AppTriggers))
}

// Parse returns the trigger that fires for the text before cursor. The cursor is
// clamped to the text and moved back to a rune boundary. Span offsets are bytes.
func (p *Parser) Parse(text string, cursor int) (result.Result, bool) {
	if text == "" {
		return nil, false
	}
	before := text[:result.ClampCursor(text, cursor)]
	r, ok := p.snap.Load().parse(before)
	if ok {
		start, end := r.Bounds()
		p.logger.Debug("trigger matched", "kind", result.Kind(r), "start", start, "end", end)
	}
	return r, ok
}

func (s *Snapshot) parse(text string) (result.Result, bool) {
	if text == "" {
		return nil, false
	}
	if s.opts.AppTriggersEnabled {
		if r, ok := apptrigger.Check(text, s.opts.AppTriggers); ok {
			return r, true
		}
	}
	if s.opts.TextActionsEnabled {
		if r, ok := textaction.Check(text); ok {
			return r, true
		}
	}
	if s.aiEnabled {
		if r, ok := s.inline.resolve(text); ok {
			return r, true
		}
		if r, ok := s.ask.scoped(text, s.directives); ok {
			return r, true
		}
		if r, ok := s.ask.strictAsk(text); ok {
			return r, true
		}
	}
	for _, d := range s.directives {
		if r, ok := d.Match(text); ok {
			return r, true
		}
	}
	return nil, false
}
