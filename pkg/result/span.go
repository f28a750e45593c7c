package result

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Valid reports whether r's span lies within text.
func Valid(text string, r Result) bool {
	if r == nil {
		return false
	}
	start, end := r.Bounds()
	return 0 <= start && start <= end && end <= len(text)
}

// Delete returns text with r's span removed. Text is returned unchanged when
// the span does not fit.
func Delete(text string, r Result) string {
	if !Valid(text, r) {
		return text
	}
	start, end := r.Bounds()
	return text[:start] + text[end:]
}

// ClampCursor bounds cursor to [0, len(text)] and moves it back to the start
// of the rune it falls inside.
func ClampCursor(text string, cursor int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > len(text) {
		return len(text)
	}
	for cursor > 0 && cursor < len(text) && !utf8.RuneStart(text[cursor]) {
		cursor--
	}
	return cursor
}

// UTF16ToByte converts a UTF-16 code unit offset into a byte offset of text.
// Offsets past the end map to len(text); an offset inside a surrogate pair maps
// to the start of that rune.
func UTF16ToByte(text string, units int) int {
	if units <= 0 {
		return 0
	}
	n := 0
	for i, r := range text {
		w := utf16.RuneLen(r)
		if w < 0 {
			w = 1
		}
		if n+w > units {
			return i
		}
		n += w
	}
	return len(text)
}

// ByteToUTF16 converts a byte offset of text into a UTF-16 code unit offset.
func ByteToUTF16(text string, offset int) int {
	offset = ClampCursor(text, offset)
	n := 0
	for _, r := range text[:offset] {
		w := utf16.RuneLen(r)
		if w < 0 {
			w = 1
		}
		n += w
	}
	return n
}
