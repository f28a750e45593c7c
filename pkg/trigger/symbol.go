package trigger

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxSymbolRunes bounds how far ExpressionToSymbol reads back from the anchor.
const maxSymbolRunes = 20

const (
	regexSpecials = `\^$.|?*+()[]{}`
	classSpecials = `\^-]`
	rangeCapture  = `((?s).+?)`
)

// ErrInvalidSymbol is returned when a symbol cannot produce a usable expression.
var ErrInvalidSymbol = errors.New("invalid trigger symbol")

var rangeForm = regexp.MustCompile(`^(.+?)\(\(\?s\)\.\+\?\)(.+?)\$$`)

// EscapeRegex escapes every regular expression metacharacter in s.
func EscapeRegex(s string) string {
	return escapeSet(s, regexSpecials)
}

// EscapeClass escapes s for use inside a bracketed character class.
func EscapeClass(s string) string {
	return escapeSet(s, classSpecials)
}

func escapeSet(s, specials string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if strings.ContainsRune(specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SymbolToExpression builds the match expression for symbol at the given arity.
// It returns false for an empty symbol or an unknown arity.
func SymbolToExpression(symbol string, arity int) (string, bool) {
	if symbol == "" {
		return "", false
	}
	esc := EscapeRegex(symbol)
	switch arity {
	case ArityExact:
		return esc + "$", true
	case ArityCapture:
		return "(.+)" + esc + "$", true
	case ArityCommand:
		cls := EscapeClass(symbol)
		return fmt.Sprintf("([^%s]+)%s(?:([^ %s]+))?%s$", cls, esc, cls, esc), true
	case ArityRange:
		return esc + rangeCapture + esc + "$", true
	}
	return "", false
}

// RangeExpression builds a delimited range expression. The capture is
// non-greedy and matches across newlines.
func RangeExpression(start, end string) (string, bool) {
	if start == "" || end == "" {
		return "", false
	}
	return EscapeRegex(start) + rangeCapture + EscapeRegex(end) + "$", true
}

// RangeSymbols extracts the start and end symbols of a range expression.
func RangeSymbols(expr string) (start, end string, ok bool) {
	m := rangeForm.FindStringSubmatch(expr)
	if m == nil {
		return "", "", false
	}
	start, end = unescape(m[1]), unescape(m[2])
	if start == "" || end == "" {
		return "", "", false
	}
	return start, end, true
}

// ExpressionToSymbol recovers the user symbol from a match expression. Range
// expressions yield their start symbol.
func ExpressionToSymbol(expr string) (string, bool) {
	if expr == "" {
		return "", false
	}
	if start, _, ok := RangeSymbols(expr); ok {
		return start, true
	}
	toks := tokenize(expr)
	if sym := negatedClassSymbol(toks); sym != "" {
		return sym, true
	}
	if sym := trailingSymbol(toks); sym != "" {
		return sym, true
	}
	return "", false
}

// ExpressionFor derives the expression stored for kind and symbol. The kind's
// default symbol maps to its default expression.
func ExpressionFor(kind Kind, symbol string) (string, error) {
	info := kind.Info()
	if symbol == info.DefaultSymbol {
		return info.DefaultExpression, nil
	}
	expr, ok := SymbolToExpression(symbol, info.Arity)
	if !ok {
		return "", fmt.Errorf("%w: %q for %s", ErrInvalidSymbol, symbol, kind)
	}
	return expr, nil
}

// RangeExpressionFor derives the range selection expression for start and end.
func RangeExpressionFor(start, end string) (string, error) {
	info := KindRangeSelection.Info()
	if start == info.DefaultSymbol && end == info.DefaultSymbol {
		return info.DefaultExpression, nil
	}
	expr, ok := RangeExpression(start, end)
	if !ok {
		return "", fmt.Errorf("%w: range %q..%q", ErrInvalidSymbol, start, end)
	}
	return expr, nil
}

// ValidateSymbol checks that symbol yields a compilable expression for kind.
// For range selection, end may differ from symbol; an empty end reuses symbol.
func ValidateSymbol(kind Kind, symbol, end string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidSymbol, int(kind))
	}
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol for %s", ErrInvalidSymbol, kind)
	}
	for _, s := range []string{symbol, end} {
		if strings.ContainsFunc(s, unicode.IsSpace) {
			return fmt.Errorf("%w: %q contains whitespace", ErrInvalidSymbol, s)
		}
		if utf8.RuneCountInString(s) > maxSymbolRunes {
			return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidSymbol, s, maxSymbolRunes)
		}
	}
	var (
		expr string
		err  error
	)
	if kind == KindRangeSelection {
		if end == "" {
			end = symbol
		}
		expr, err = RangeExpressionFor(symbol, end)
	} else {
		expr, err = ExpressionFor(kind, symbol)
	}
	if err != nil {
		return err
	}
	if _, err := regexp.Compile(expr); err != nil {
		return fmt.Errorf("%w: %q for %s: %v", ErrInvalidSymbol, symbol, kind, err)
	}
	return nil
}

// token is one expression element: a literal produced by a backslash escape or a
// raw (possibly structural) character.
type token struct {
	r       rune
	escaped bool
}

func tokenize(expr string) []token {
	runes := []rune(expr)
	toks := make([]token, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			toks = append(toks, token{r: runes[i+1], escaped: true})
			i++
			continue
		}
		toks = append(toks, token{r: runes[i]})
	}
	return toks
}

// negatedClassSymbol reads the first [^...] class. Spaces inside the class are
// separators added by the command form, not part of the symbol.
func negatedClassSymbol(toks []token) string {
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].escaped || toks[i].r != '[' || toks[i+1].escaped || toks[i+1].r != '^' {
			continue
		}
		var b strings.Builder
		for j := i + 2; j < len(toks); j++ {
			t := toks[j]
			if !t.escaped && t.r == ']' {
				return b.String()
			}
			if !t.escaped && t.r == ' ' {
				continue
			}
			b.WriteRune(t.r)
		}
		return ""
	}
	return ""
}

func trailingSymbol(toks []token) string {
	if n := len(toks); n > 0 && !toks[n-1].escaped && toks[n-1].r == '$' {
		toks = toks[:n-1]
	}
	var sym []rune
	for i := len(toks) - 1; i >= 0 && len(sym) < maxSymbolRunes; i-- {
		t := toks[i]
		if !t.escaped && strings.ContainsRune(`)]+*?\`, t.r) {
			break
		}
		sym = append(sym, t.r)
	}
	for l, r := 0, len(sym)-1; l < r; l, r = l+1, r-1 {
		sym[l], sym[r] = sym[r], sym[l]
	}
	return string(sym)
}

func unescape(s string) string {
	var b strings.Builder
	for _, t := range tokenize(s) {
		b.WriteRune(t.r)
	}
	return b.String()
}
