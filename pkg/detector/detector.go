// Package detector is the edge-triggered alternative to the full parser: it only
// looks for a trigger when the user has just typed a terminating symbol, and it
// supports range selections whose start and end symbols differ.
package detector

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/Veraticus/keytrigger/pkg/parser"
	"github.com/Veraticus/keytrigger/pkg/result"
	"github.com/Veraticus/keytrigger/pkg/trigger"
)

// Info is the symbol pair recognised for one enabled trigger.
type Info struct {
	Kind             trigger.Kind
	StartSymbol      string
	EndSymbol        string
	IsRangeSelection bool

	directive parser.Directive
}

// Detector tracks enabled triggers. It is safe for concurrent use.
type Detector struct {
	infos  atomic.Pointer[[]Info]
	logger *slog.Logger
}

// New creates a detector for defs.
func New(defs []trigger.Definition, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Detector{logger: logger}
	d.Update(defs)
	return d
}

// Update replaces the trigger set. Disabled definitions are ignored.
func (d *Detector) Update(defs []trigger.Definition) {
	infos := make([]Info, 0, len(defs))
	for _, def := range defs {
		if !def.Enabled() {
			continue
		}
		info, ok := infoFor(def)
		if !ok {
			d.logger.Warn("no trigger symbol for definition", "kind", def.Kind.String(), "expression", def.Expression())
			continue
		}
		infos = append(infos, info)
	}
	d.infos.Store(&infos)
}

// Infos returns the current trigger set.
func (d *Detector) Infos() []Info {
	infos := *d.infos.Load()
	out := make([]Info, len(infos))
	copy(out, infos)
	return out
}

func infoFor(def trigger.Definition) (Info, bool) {
	info := Info{Kind: def.Kind, IsRangeSelection: def.Kind == trigger.KindRangeSelection}
	if info.IsRangeSelection {
		start, end, ok := trigger.RangeSymbols(def.Expression())
		if !ok {
			start, end = def.Symbol, def.End()
		}
		info.StartSymbol, info.EndSymbol = start, end
	} else {
		sym, ok := trigger.ExpressionToSymbol(def.Expression())
		if !ok {
			sym = def.Symbol
		}
		info.StartSymbol, info.EndSymbol = sym, sym
	}
	if info.StartSymbol == "" || info.EndSymbol == "" {
		return Info{}, false
	}
	directive, ok := parser.NewDirective(def)
	if !ok {
		return Info{}, false
	}
	info.directive = directive
	return info, true
}

// ShouldCheck reports whether the edit from oldText to newText just completed a
// trigger: the text grew and the text before cursor now ends with an end symbol
// it did not end with before.
func (d *Detector) ShouldCheck(oldText, newText string, cursor int) bool {
	if cursor <= 0 || len(newText) <= len(oldText) {
		return false
	}
	before := newText[:result.ClampCursor(newText, cursor)]
	oldBefore := oldText[:result.ClampCursor(oldText, cursor)]
	for _, info := range *d.infos.Load() {
		if strings.HasSuffix(before, info.EndSymbol) && !strings.HasSuffix(oldBefore, info.EndSymbol) {
			return true
		}
	}
	return false
}

// ParseOnTrigger matches the text before cursor. Range selections are tried
// first; other triggers only see the current line.
func (d *Detector) ParseOnTrigger(text string, cursor int) (result.Result, bool) {
	if text == "" || cursor <= 0 {
		return nil, false
	}
	before := text[:result.ClampCursor(text, cursor)]
	infos := *d.infos.Load()
	for _, info := range infos {
		if info.IsRangeSelection {
			if r, ok := parseRange(before, info); ok {
				return r, true
			}
		}
	}
	for _, info := range infos {
		if !info.IsRangeSelection {
			if r, ok := parseLine(before, info); ok {
				return r, true
			}
		}
	}
	return nil, false
}

// parseRange captures everything between the nearest start symbol and the end
// symbol that ends text. The capture may span lines but must not be empty.
func parseRange(text string, info Info) (result.Result, bool) {
	if !strings.HasSuffix(text, info.EndSymbol) {
		return nil, false
	}
	endStart := len(text) - len(info.EndSymbol)
	if endStart <= 0 {
		return nil, false
	}
	pos := strings.LastIndex(text[:endStart], info.StartSymbol)
	if pos < 0 {
		return nil, false
	}
	capStart := pos + len(info.StartSymbol)
	if capStart >= endStart {
		return nil, false
	}
	groups := []string{text[pos:], text[capStart:endStart]}
	return parser.Build(info.Kind, pos, len(text), groups), true
}

// parseLine matches a single-line trigger on the line holding the cursor.
func parseLine(text string, info Info) (result.Result, bool) {
	if !strings.HasSuffix(text, info.EndSymbol) {
		return nil, false
	}
	lineStart := strings.LastIndexByte(text, '\n') + 1
	line := text[lineStart:]
	captured := line[:len(line)-len(info.EndSymbol)]

	switch info.Kind {
	case trigger.KindSettings:
		// The symbol alone is the trigger; text before it on the line is kept.
		symStart := len(text) - len(info.EndSymbol)
		return parser.Build(info.Kind, symStart, len(text), []string{info.EndSymbol}), true
	case trigger.KindCustomCommand:
		// text%cmd% needs its own expression to split prompt and command.
		return info.directive.MatchAt(line, lineStart)
	}
	if captured == "" {
		return nil, false
	}
	return parser.Build(info.Kind, lineStart, len(text), []string{line, captured}), true
}
