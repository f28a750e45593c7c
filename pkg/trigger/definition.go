package trigger

import (
	"fmt"
	"maps"
	"regexp"
)

// ExtraEnabled is the extras key holding the enabled flag.
const ExtraEnabled = "_enabled"

// Definition is one configured trigger. Its expression is always derived from
// the kind and symbols.
type Definition struct {
	Kind      Kind
	Symbol    string
	EndSymbol string
	Extras    map[string]string

	expr string
	re   *regexp.Regexp
}

// NewDefinition builds a definition for kind using symbol. Range selection uses
// symbol as both start and end.
func NewDefinition(kind Kind, symbol string, enabled bool) (Definition, error) {
	if kind == KindRangeSelection {
		return NewRangeDefinition(symbol, symbol, enabled)
	}
	if !kind.Valid() {
		return Definition{}, fmt.Errorf("%w: unknown kind %d", ErrInvalidSymbol, int(kind))
	}
	expr, err := ExpressionFor(kind, symbol)
	if err != nil {
		return Definition{}, err
	}
	return compile(Definition{Kind: kind, Symbol: symbol}, expr, enabled)
}

// NewRangeDefinition builds a range selection definition delimited by start and end.
func NewRangeDefinition(start, end string, enabled bool) (Definition, error) {
	expr, err := RangeExpressionFor(start, end)
	if err != nil {
		return Definition{}, err
	}
	return compile(Definition{Kind: KindRangeSelection, Symbol: start, EndSymbol: end}, expr, enabled)
}

func compile(d Definition, expr string, enabled bool) (Definition, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %q for %s: %v", ErrInvalidSymbol, d.Symbol, d.Kind, err)
	}
	d.expr = expr
	d.re = re
	d.Extras = map[string]string{ExtraEnabled: formatBool(enabled)}
	return d, nil
}

// Default returns the default definition of kind, enabled.
func Default(kind Kind) Definition {
	info := kind.Info()
	d := Definition{Kind: kind, Symbol: info.DefaultSymbol}
	if kind == KindRangeSelection {
		d.EndSymbol = info.DefaultSymbol
	}
	d.expr = info.DefaultExpression
	d.re = regexp.MustCompile(info.DefaultExpression)
	d.Extras = map[string]string{ExtraEnabled: "true"}
	return d
}

// Defaults returns one enabled default definition per kind in kind order.
func Defaults() []Definition {
	kinds := Kinds()
	defs := make([]Definition, 0, len(kinds))
	for _, k := range kinds {
		defs = append(defs, Default(k))
	}
	return defs
}

// Expression returns the derived match expression.
func (d Definition) Expression() string {
	return d.expr
}

// Regexp returns the compiled matcher. It is nil for a zero Definition.
func (d Definition) Regexp() *regexp.Regexp {
	return d.re
}

// End returns the terminating symbol: the end symbol for range selection, the
// symbol otherwise.
func (d Definition) End() string {
	if d.Kind == KindRangeSelection && d.EndSymbol != "" {
		return d.EndSymbol
	}
	return d.Symbol
}

// Enabled reports the persisted enabled flag. A missing flag means disabled.
func (d Definition) Enabled() bool {
	return d.Extras[ExtraEnabled] == "true"
}

// WithEnabled returns a copy of d with the enabled flag set. Extras are copied.
func (d Definition) WithEnabled(enabled bool) Definition {
	extras := maps.Clone(d.Extras)
	if extras == nil {
		extras = make(map[string]string, 1)
	}
	extras[ExtraEnabled] = formatBool(enabled)
	d.Extras = extras
	return d
}

// WithExtras returns a copy of d carrying extras, keeping d's enabled flag
// unless extras sets one.
func (d Definition) WithExtras(extras map[string]string) Definition {
	merged := maps.Clone(d.Extras)
	if merged == nil {
		merged = make(map[string]string, len(extras))
	}
	maps.Copy(merged, extras)
	d.Extras = merged
	return d
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
