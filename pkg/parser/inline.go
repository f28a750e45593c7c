package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/keytrigger/pkg/result"
	"github.com/Veraticus/keytrigger/pkg/trigger"
)

// DefaultAskPrefix is the built-in name of the inline ask command.
const DefaultAskPrefix = "ask"

// inlineResolver recognises "<preserved> /name prompt<trigger>" for a fixed set
// of command names and trigger symbol.
type inlineResolver struct {
	re        *regexp.Regexp
	canonical map[string]string
	askPrefix string
}

// newInlineResolver compiles the resolver. It returns nil when there are no names.
func newInlineResolver(names []string, triggerSymbol, askPrefix string) *inlineResolver {
	if triggerSymbol == "" {
		return nil
	}
	canonical := make(map[string]string, len(names))
	unique := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, dup := canonical[key]; dup {
			continue
		}
		canonical[key] = n
		unique = append(unique, n)
	}
	if len(unique) == 0 {
		return nil
	}

	// Longer names first so "fixer" is tried before its prefix "fix".
	sort.Slice(unique, func(i, j int) bool {
		if len(unique[i]) != len(unique[j]) {
			return len(unique[i]) > len(unique[j])
		}
		return unique[i] < unique[j]
	})
	quoted := make([]string, len(unique))
	for i, n := range unique {
		quoted[i] = regexp.QuoteMeta(n)
	}

	expr := `(?is)(.*)(\s+/|\s+|^/|^)(` + strings.Join(quoted, "|") + `)\s+(.+)` +
		trigger.EscapeRegex(triggerSymbol) + `$`
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	return &inlineResolver{re: re, canonical: canonical, askPrefix: askPrefix}
}

// resolve matches text. The span starts at the slash of the separator, or at
// the command name when no slash was typed, and runs to the end of text.
func (r *inlineResolver) resolve(text string) (result.InlineCommand, bool) {
	if r == nil || text == "" {
		return result.InlineCommand{}, false
	}
	m := r.re.FindStringSubmatchIndex(text)
	if m == nil {
		return result.InlineCommand{}, false
	}
	name := text[m[6]:m[7]]
	if isAskAlias(name, r.askPrefix) {
		return result.InlineCommand{}, false
	}
	command, ok := r.canonical[strings.ToLower(name)]
	if !ok {
		return result.InlineCommand{}, false
	}

	start := m[6]
	if i := strings.IndexByte(text[m[4]:m[5]], '/'); i >= 0 {
		start = m[4] + i
	}
	return result.InlineCommand{
		Span: result.Span{
			Start:  start,
			End:    len(text),
			Groups: []string{text[m[0]:m[1]], command, text[m[8]:m[9]]},
		},
		PreservedText: text[:start],
		Command:       command,
		Prompt:        strings.TrimSpace(text[m[8]:m[9]]),
	}, true
}

func isAskAlias(name, askPrefix string) bool {
	return strings.EqualFold(name, askPrefix) || strings.EqualFold(name, DefaultAskPrefix)
}

// askShield locates the last "/<prefix><space>" marker in text.
type askShield struct {
	prefix string
	marker *regexp.Regexp
	strict *regexp.Regexp
}

func newAskShield(prefix, triggerSymbol string) *askShield {
	if prefix == "" {
		return nil
	}
	s := &askShield{
		prefix: prefix,
		marker: regexp.MustCompile(`/` + regexp.QuoteMeta(prefix) + `\s+`),
	}
	if triggerSymbol != "" {
		s.strict = regexp.MustCompile(`(.*)(\s*)/` + regexp.QuoteMeta(prefix) + `\s+(.+)` +
			trigger.EscapeRegex(triggerSymbol) + `$`)
	}
	return s
}

// last returns the start of the last marker and the start of the content after it.
func (s *askShield) last(text string) (markerStart, contentStart int, ok bool) {
	if s == nil {
		return 0, 0, false
	}
	all := s.marker.FindAllStringIndex(text, -1)
	if len(all) == 0 {
		return 0, 0, false
	}
	loc := all[len(all)-1]
	return loc[0], loc[1], true
}

// scoped runs directives on the text after the last marker. A match consumes the
// marker too.
func (s *askShield) scoped(text string, directives []Directive) (result.Result, bool) {
	markerStart, contentStart, ok := s.last(text)
	if !ok {
		return nil, false
	}
	scoped := text[contentStart:]
	for _, d := range directives {
		if r, ok := d.MatchScoped(scoped, contentStart, markerStart); ok {
			return r, true
		}
	}
	return nil, false
}

// strictAsk matches "<preserved> /<prefix> prompt<trigger>" and starts the span
// at the last "/<prefix>" in text.
func (s *askShield) strictAsk(text string) (result.InlineAsk, bool) {
	if s == nil || s.strict == nil {
		return result.InlineAsk{}, false
	}
	m := s.strict.FindStringSubmatch(text)
	if m == nil {
		return result.InlineAsk{}, false
	}
	start := strings.LastIndex(text, "/"+s.prefix)
	if start < 0 {
		return result.InlineAsk{}, false
	}
	return result.InlineAsk{
		Span:          result.Span{Start: start, End: len(text), Groups: []string{m[0], m[3]}},
		PreservedText: text[:start],
		Prompt:        strings.TrimSpace(m[3]),
	}, true
}
