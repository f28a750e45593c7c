// Package trigger holds the trigger kinds, the conversion between user symbols
// and match expressions, and the persisted trigger list codec.
package trigger

import (
	"fmt"
	"strings"
)

// Kind identifies one configurable trigger.
type Kind int

// Trigger kinds in their default order.
const (
	KindSettings Kind = iota
	KindAIPrompt
	KindCustomCommand
	KindFormatItalic
	KindFormatBold
	KindFormatCrossout
	KindFormatUnderline
	KindWebSearch
	KindRangeSelection
)

// Arity values select the expression shape built for a symbol.
const (
	ArityExact   = 0 // symbol alone at the end of text
	ArityCapture = 1 // text followed by the symbol
	ArityCommand = 2 // text%command% or text%%
	ArityRange   = 3 // symbol text symbol, may span lines
)

// KindInfo is the static metadata of a kind.
type KindInfo struct {
	Name              string
	Title             string
	Arity             int
	DefaultSymbol     string
	DefaultExpression string
	Example           string
}

var kindTable = []KindInfo{
	KindSettings: {
		Name:              "Settings",
		Title:             "Settings trigger",
		Arity:             ArityExact,
		DefaultSymbol:     "€",
		DefaultExpression: `€$`,
		Example:           "€ opens the settings",
	},
	KindAIPrompt: {
		Name:              "CommandAI",
		Title:             "AI trigger",
		Arity:             ArityCapture,
		DefaultSymbol:     "$",
		DefaultExpression: `(.+)\$$`,
		Example:           "what is the capital of France$",
	},
	KindCustomCommand: {
		Name:              "CommandCustom",
		Title:             "Custom command",
		Arity:             ArityCommand,
		DefaultSymbol:     "%",
		DefaultExpression: `([^%]+)%(?:([^ %]+))?%$`,
		Example:           "good morning%tr%",
	},
	KindFormatItalic: {
		Name:              "FormatItalic",
		Title:             "Italic",
		Arity:             ArityCapture,
		DefaultSymbol:     "|",
		DefaultExpression: `([^|]+)\|$`,
		Example:           "slanted|",
	},
	KindFormatBold: {
		Name:              "FormatBold",
		Title:             "Bold",
		Arity:             ArityCapture,
		DefaultSymbol:     "@",
		DefaultExpression: `([^@]+)@$`,
		Example:           "strong@",
	},
	KindFormatCrossout: {
		Name:              "FormatCrossout",
		Title:             "Crossout",
		Arity:             ArityCapture,
		DefaultSymbol:     "~",
		DefaultExpression: `([^~]+)~$`,
		Example:           "wrong~",
	},
	KindFormatUnderline: {
		Name:              "FormatUnderline",
		Title:             "Underline",
		Arity:             ArityCapture,
		DefaultSymbol:     "_",
		DefaultExpression: `([^_]+)_$`,
		Example:           "important_",
	},
	KindWebSearch: {
		Name:              "WebSearch",
		Title:             "Web search",
		Arity:             ArityCapture,
		DefaultSymbol:     "??",
		DefaultExpression: `(.+)\?\?$`,
		Example:           "golang generics??",
	},
	KindRangeSelection: {
		Name:              "RangeSelection",
		Title:             "Range selection",
		Arity:             ArityRange,
		DefaultSymbol:     "$",
		DefaultExpression: `\$((?s).+?)\$$`,
		Example:           "$first line\nsecond line$",
	},
}

// Kinds returns every kind in default order.
func Kinds() []Kind {
	kinds := make([]Kind, len(kindTable))
	for i := range kindTable {
		kinds[i] = Kind(i)
	}
	return kinds
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindTable)
}

// Info returns the static metadata of k. It panics on an invalid kind.
func (k Kind) Info() KindInfo {
	if !k.Valid() {
		panic(fmt.Sprintf("trigger: invalid kind %d", int(k)))
	}
	return kindTable[k]
}

// String returns the persisted name of k.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindTable[k].Name
}

// IsFormat reports whether k is one of the text formatting kinds.
func (k Kind) IsFormat() bool {
	switch k {
	case KindFormatBold, KindFormatItalic, KindFormatUnderline, KindFormatCrossout:
		return true
	}
	return false
}

// ParseKind resolves a persisted kind name, ignoring case.
func ParseKind(name string) (Kind, bool) {
	for i, info := range kindTable {
		if strings.EqualFold(info.Name, name) {
			return Kind(i), true
		}
	}
	return 0, false
}

// MarshalText encodes k by name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid trigger kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown trigger kind %q", string(text))
	}
	*k = parsed
	return nil
}
