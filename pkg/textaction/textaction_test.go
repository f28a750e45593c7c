package textaction

import (
	"strings"
	"testing"

	"github.com/Veraticus/keytrigger/pkg/result"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantOK     bool
		wantAction result.Action
		wantText   string
		wantStart  int
	}{
		{name: "rephrase", text: "hello world $rephrase", wantOK: true, wantAction: result.Rephrase, wantText: "hello world", wantStart: 12},
		{name: "case insensitive", text: "hello $FIX", wantOK: true, wantAction: result.FixErrors, wantText: "hello", wantStart: 6},
		{name: "trailing whitespace", text: "make it nicer $better  ", wantOK: true, wantAction: result.Improve, wantText: "make it nicer", wantStart: 14},
		{name: "span from last dollar", text: "cost $5 and $tr", wantOK: true, wantAction: result.Translate, wantText: "cost $5 and", wantStart: 12},
		{name: "no space before dollar", text: "hi$casual", wantOK: true, wantAction: result.Casual, wantText: "hi", wantStart: 2},
		{name: "unknown command", text: "x $unknowncmd", wantOK: false},
		{name: "empty text portion", text: "   $fix", wantOK: false},
		{name: "command alone", text: "$fix", wantOK: false},
		{name: "empty", text: "", wantOK: false},
		{name: "not a suffix", text: "hello $fix more", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Check(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v but got %v (%+v)", tt.wantOK, ok, got)
			}
			if !ok {
				return
			}
			if got.Action != tt.wantAction {
				t.Errorf("expected action %s but got %s", tt.wantAction, got.Action)
			}
			if got.Text != tt.wantText {
				t.Errorf("expected text %q but got %q", tt.wantText, got.Text)
			}
			if got.Start != tt.wantStart || got.End != len(tt.text) {
				t.Errorf("expected span [%d,%d) but got [%d,%d)", tt.wantStart, len(tt.text), got.Start, got.End)
			}
		})
	}
}

func TestWordsFor(t *testing.T) {
	total := 0
	for _, action := range result.Actions() {
		words := WordsFor(action)
		if len(words) == 0 {
			t.Errorf("expected words for %s", action)
		}
		total += len(words)
	}
	if total != 25 {
		t.Errorf("expected 25 command words but got %d", total)
	}

	got := strings.Join(WordsFor(result.Shorten), ",")
	if got != "brief,short,shorten,summarize" {
		t.Errorf("unexpected shorten words %q", got)
	}
}

func TestHelpText(t *testing.T) {
	help := HelpText()
	for _, want := range []string{"Fix Errors: $correct, $fix, $grammar", "Translate: $tr, $trans, $translate", "$rephrase"} {
		if !strings.Contains(help, want) {
			t.Errorf("expected help text to contain %q", want)
		}
	}
}

func TestSystemMessage(t *testing.T) {
	if got := SystemMessage(result.Translate, "French"); !strings.Contains(got, "to French") {
		t.Errorf("expected a targeted translation prompt but got %q", got)
	}
	if got := SystemMessage(result.Translate, " "); got != translateAuto {
		t.Errorf("expected the automatic translation prompt but got %q", got)
	}
	for _, action := range result.Actions() {
		if SystemMessage(action, "") == defaultMessage {
			t.Errorf("expected a dedicated prompt for %s", action)
		}
	}
	if got := SystemMessage(result.Action(42), ""); got != defaultMessage {
		t.Errorf("expected the default prompt but got %q", got)
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		word   string
		want   string
		wantOK bool
	}{
		{word: "rephrse", want: "rephrase", wantOK: true},
		{word: "Formal", want: "formal", wantOK: true},
		{word: "sumarize", want: "summarize", wantOK: true},
		{word: "qqqqqqqq", wantOK: false},
		{word: "", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := Suggest(tt.word)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Suggest(%q): expected %q/%v but got %q/%v", tt.word, tt.want, tt.wantOK, got, ok)
		}
	}
}
