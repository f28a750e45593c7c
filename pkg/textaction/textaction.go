// Package textaction recognises "$word" suffix commands such as
// "hello world $rephrase" and maps them to text transformations.
package textaction

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/Veraticus/keytrigger/pkg/result"
)

// maxSuggestDistance is the largest edit distance Suggest accepts.
const maxSuggestDistance = 2

var suffixPattern = regexp.MustCompile(`(.+)\s*\$([a-zA-Z]+)\s*$`)

var commandWords = map[string]result.Action{
	"rephrase": result.Rephrase,
	"rewrite":  result.Rephrase,
	"rw":       result.Rephrase,

	"fix":     result.FixErrors,
	"correct": result.FixErrors,
	"grammar": result.FixErrors,

	"improve": result.Improve,
	"better":  result.Improve,
	"enhance": result.Improve,

	"expand": result.Expand,
	"longer": result.Expand,
	"more":   result.Expand,

	"short":     result.Shorten,
	"shorten":   result.Shorten,
	"brief":     result.Shorten,
	"summarize": result.Shorten,

	"formal":       result.Formal,
	"professional": result.Formal,
	"pro":          result.Formal,

	"casual":   result.Casual,
	"friendly": result.Casual,
	"chill":    result.Casual,

	"tr":        result.Translate,
	"translate": result.Translate,
	"trans":     result.Translate,
}

var labels = map[result.Action]string{
	result.Rephrase:  "Rephrase",
	result.FixErrors: "Fix Errors",
	result.Improve:   "Improve",
	result.Expand:    "Expand",
	result.Shorten:   "Shorten",
	result.Formal:    "Formal",
	result.Casual:    "Casual",
	result.Translate: "Translate",
}

var systemMessages = map[result.Action]string{
	result.Rephrase:  "Rephrase the following text while keeping its meaning and language. Reply with the rephrased text only.",
	result.FixErrors: "Fix the spelling, grammar and punctuation of the following text. Keep its language and tone. Reply with the corrected text only.",
	result.Improve:   "Improve the clarity and flow of the following text without changing its meaning. Reply with the improved text only.",
	result.Expand:    "Expand the following text with more detail while keeping its tone. Reply with the expanded text only.",
	result.Shorten:   "Shorten the following text and keep its key points. Reply with the shortened text only.",
	result.Formal:    "Rewrite the following text in a formal, professional tone. Reply with the rewritten text only.",
	result.Casual:    "Rewrite the following text in a casual, friendly tone. Reply with the rewritten text only.",
}

const (
	translateAuto   = "Translate the following text to English, or to Arabic if it is already English. Reply with the translation only."
	translateTarget = "Translate the following text to %s. Reply with the translation only."
	defaultMessage  = "Process the following text:"
)

// Lookup returns the action bound to word, ignoring case.
func Lookup(word string) (result.Action, bool) {
	a, ok := commandWords[strings.ToLower(word)]
	return a, ok
}

// Check matches a "$word" suffix command at the end of text. The span starts at
// the last '$' and runs to the end of text.
func Check(text string) (result.TextAction, bool) {
	if text == "" {
		return result.TextAction{}, false
	}
	m := suffixPattern.FindStringSubmatch(text)
	if m == nil {
		return result.TextAction{}, false
	}
	target := strings.TrimSpace(m[1])
	action, ok := Lookup(m[2])
	if !ok || target == "" {
		return result.TextAction{}, false
	}
	return result.TextAction{
		Span:   result.Span{Start: strings.LastIndex(text, "$"), End: len(text), Groups: m},
		Text:   target,
		Action: action,
	}, true
}

// WordsFor returns the command words bound to action, sorted.
func WordsFor(action result.Action) []string {
	var words []string
	for w, a := range commandWords {
		if a == action {
			words = append(words, w)
		}
	}
	sort.Strings(words)
	return words
}

// Label returns the display name of action.
func Label(action result.Action) string {
	if l, ok := labels[action]; ok {
		return l
	}
	return action.String()
}

// HelpText lists every action with its command words.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Available text action commands:\n\n")
	for _, action := range result.Actions() {
		words := WordsFor(action)
		for i, w := range words {
			words[i] = "$" + w
		}
		fmt.Fprintf(&b, "  %s: %s\n", Label(action), strings.Join(words, ", "))
	}
	b.WriteString("\nExample: \"hello world $rephrase\"\n")
	return b.String()
}

// SystemMessage returns the instruction sent with text transformed by action.
// target names the translation language and is ignored by other actions.
func SystemMessage(action result.Action, target string) string {
	if action == result.Translate {
		if target = strings.TrimSpace(target); target != "" {
			return fmt.Sprintf(translateTarget, target)
		}
		return translateAuto
	}
	if msg, ok := systemMessages[action]; ok {
		return msg
	}
	return defaultMessage
}

// Suggest returns the known command word closest to word when it is within a
// small edit distance. Exact matches return themselves.
func Suggest(word string) (string, bool) {
	word = strings.ToLower(word)
	if word == "" {
		return "", false
	}
	if _, ok := commandWords[word]; ok {
		return word, true
	}
	best, bestDist := "", maxSuggestDistance+1
	for w := range commandWords {
		d := levenshtein.ComputeDistance(word, w)
		if d < bestDist || (d == bestDist && w < best) {
			best, bestDist = w, d
		}
	}
	if bestDist > maxSuggestDistance {
		return "", false
	}
	return best, true
}
