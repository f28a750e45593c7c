// Package format renders text with Unicode look-alike styles that survive in
// plain-text fields.
package format

import (
	"strings"
	"unicode"

	"github.com/Veraticus/keytrigger/pkg/result"
)

// Base code points of the Mathematical Sans-Serif alphabets.
const (
	boldUpper   = 0x1D5D4
	boldLower   = 0x1D5EE
	boldDigit   = 0x1D7EC
	italicUpper = 0x1D608
	italicLower = 0x1D622

	combiningLowLine = '\u0332'
	combiningStroke  = '\u0336'
)

// Convert returns text rendered with method. Unknown methods return text unchanged.
func Convert(text string, method result.Method) string {
	switch method {
	case result.Bold:
		return shift(text, boldUpper, boldLower, boldDigit)
	case result.Italic:
		return shift(text, italicUpper, italicLower, 0)
	case result.Underline:
		return combine(text, combiningLowLine)
	case result.Crossout:
		return combine(text, combiningStroke)
	}
	return text
}

// shift maps ASCII letters (and digits when digit is non-zero) into the
// alphabet starting at the given code points.
func shift(text string, upper, lower, digit rune) string {
	var b strings.Builder
	b.Grow(len(text) * 4)
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(upper + r - 'A')
		case r >= 'a' && r <= 'z':
			b.WriteRune(lower + r - 'a')
		case digit != 0 && r >= '0' && r <= '9':
			b.WriteRune(digit + r - '0')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// combine appends mark after every rune that is not whitespace.
func combine(text string, mark rune) string {
	var b strings.Builder
	b.Grow(len(text) * 3)
	for _, r := range text {
		b.WriteRune(r)
		if !unicode.IsSpace(r) {
			b.WriteRune(mark)
		}
	}
	return b.String()
}
