// Package result defines the typed outcomes of a trigger match. Every result
// carries the half-open byte span the host deletes from its buffer.
package result

// Span is the half-open byte range [Start, End) to delete and the raw capture
// groups of the match (group 0 is the whole match, unmatched groups are "").
type Span struct {
	Start  int
	End    int
	Groups []string
}

// Bounds returns the span.
func (s Span) Bounds() (start, end int) {
	return s.Start, s.End
}

// Result is the closed set of match outcomes.
type Result interface {
	Bounds() (start, end int)
	result()
}

// Method selects a text formatting conversion.
type Method int

// Formatting methods.
const (
	Bold Method = iota
	Italic
	Underline
	Crossout
)

func (m Method) String() string {
	switch m {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Underline:
		return "underline"
	case Crossout:
		return "crossout"
	}
	return "unknown"
}

// Action is a text transformation requested with a $word suffix.
type Action int

// Text actions.
const (
	Rephrase Action = iota
	FixErrors
	Improve
	Expand
	Shorten
	Formal
	Casual
	Translate
)

var actionNames = [...]string{
	Rephrase:  "REPHRASE",
	FixErrors: "FIX_ERRORS",
	Improve:   "IMPROVE",
	Expand:    "EXPAND",
	Shorten:   "SHORTEN",
	Formal:    "FORMAL",
	Casual:    "CASUAL",
	Translate: "TRANSLATE",
}

// Actions returns every action in declaration order.
func Actions() []Action {
	actions := make([]Action, len(actionNames))
	for i := range actionNames {
		actions[i] = Action(i)
	}
	return actions
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "UNKNOWN"
	}
	return actionNames[a]
}

// AI submits Prompt to the AI client.
type AI struct {
	Span
	Prompt string
}

// Format replaces Target with its formatted form.
type Format struct {
	Span
	Target string
	Method Method
}

// Command runs the named custom command on Prompt. An empty Command asks for
// the command editor.
type Command struct {
	Span
	Prompt  string
	Command string
}

// WebSearch opens a search for Query.
type WebSearch struct {
	Span
	Query string
}

// AppTrigger launches the application bound to Trigger.
type AppTrigger struct {
	Span
	Trigger      string
	PackageName  string
	ActivityName string
	AppName      string
}

// TextAction transforms Text with Action.
type TextAction struct {
	Span
	Text   string
	Action Action
}

// Settings opens the settings UI.
type Settings struct {
	Span
}

// InlineCommand runs Command on Prompt. PreservedText precedes the span and
// must be left in place.
type InlineCommand struct {
	Span
	PreservedText string
	Command       string
	Prompt        string
}

// InlineAsk submits Prompt after a /ask marker. PreservedText precedes the span
// and must be left in place.
type InlineAsk struct {
	Span
	PreservedText string
	Prompt        string
}

func (AI) result()            {}
func (Format) result()        {}
func (Command) result()       {}
func (WebSearch) result()     {}
func (AppTrigger) result()    {}
func (TextAction) result()    {}
func (Settings) result()      {}
func (InlineCommand) result() {}
func (InlineAsk) result()     {}

// Kind returns a short name of r's variant for logs.
func Kind(r Result) string {
	switch r.(type) {
	case AI:
		return "ai"
	case Format:
		return "format"
	case Command:
		return "command"
	case WebSearch:
		return "web_search"
	case AppTrigger:
		return "app_trigger"
	case TextAction:
		return "text_action"
	case Settings:
		return "settings"
	case InlineCommand:
		return "inline_command"
	case InlineAsk:
		return "inline_ask"
	}
	return "none"
}
