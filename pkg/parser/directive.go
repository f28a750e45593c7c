package parser

import (
	"regexp"
	"strings"

	"github.com/Veraticus/keytrigger/pkg/result"
	"github.com/Veraticus/keytrigger/pkg/trigger"
)

// Directive matches one trigger definition against text.
type Directive struct {
	kind trigger.Kind
	re   *regexp.Regexp
}

// NewDirective creates a directive for def. It returns false when def has no
// compiled matcher.
func NewDirective(def trigger.Definition) (Directive, bool) {
	if def.Regexp() == nil || !def.Kind.Valid() {
		return Directive{}, false
	}
	return Directive{kind: def.Kind, re: def.Regexp()}, true
}

// Kind returns the trigger kind of the directive.
func (d Directive) Kind() trigger.Kind {
	return d.kind
}

// Match runs one leftmost search over text. The span is relative to text.
func (d Directive) Match(text string) (result.Result, bool) {
	return d.MatchAt(text, 0)
}

// MatchAt is Match for text found at offset of a larger buffer; the span is
// translated by offset.
func (d Directive) MatchAt(text string, offset int) (result.Result, bool) {
	loc, groups := d.find(text)
	if loc == nil {
		return nil, false
	}
	return Build(d.kind, loc[0]+offset, loc[1]+offset, groups), true
}

// MatchScoped matches text that is a suffix of a larger buffer starting at
// offset. The span starts at startOverride and ends at the match end
// translated by offset.
func (d Directive) MatchScoped(text string, offset, startOverride int) (result.Result, bool) {
	loc, groups := d.find(text)
	if loc == nil {
		return nil, false
	}
	return Build(d.kind, startOverride, loc[1]+offset, groups), true
}

func (d Directive) find(text string) ([]int, []string) {
	if d.re == nil {
		return nil, nil
	}
	loc := d.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, nil
	}
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if s, e := loc[2*i], loc[2*i+1]; s >= 0 {
			groups[i] = text[s:e]
		}
	}
	return loc, groups
}

// Build constructs the result of kind for span [start, end) and its capture groups.
func Build(kind trigger.Kind, start, end int, groups []string) result.Result {
	span := result.Span{Start: start, End: end, Groups: groups}
	switch kind {
	case trigger.KindAIPrompt, trigger.KindRangeSelection:
		return result.AI{Span: span, Prompt: group(groups, 1)}
	case trigger.KindCustomCommand:
		return result.Command{
			Span:    span,
			Prompt:  strings.TrimSpace(group(groups, 1)),
			Command: strings.TrimSpace(group(groups, 2)),
		}
	case trigger.KindFormatBold:
		return result.Format{Span: span, Target: group(groups, 1), Method: result.Bold}
	case trigger.KindFormatItalic:
		return result.Format{Span: span, Target: group(groups, 1), Method: result.Italic}
	case trigger.KindFormatUnderline:
		return result.Format{Span: span, Target: group(groups, 1), Method: result.Underline}
	case trigger.KindFormatCrossout:
		return result.Format{Span: span, Target: group(groups, 1), Method: result.Crossout}
	case trigger.KindWebSearch:
		return result.WebSearch{Span: span, Query: strings.TrimSpace(group(groups, 1))}
	}
	return result.Settings{Span: span}
}

// group returns groups[i], or "" when the expression has fewer groups.
func group(groups []string, i int) string {
	if i < len(groups) {
		return groups[i]
	}
	return ""
}
