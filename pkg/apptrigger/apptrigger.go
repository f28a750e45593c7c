// Package apptrigger matches application launch phrases typed at the end of the
// buffer, such as "open maps".
package apptrigger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/keytrigger/pkg/result"
)

// Trigger binds a phrase to an installed application.
type Trigger struct {
	Trigger      string `json:"trigger" yaml:"trigger" toml:"trigger"`
	PackageName  string `json:"packageName" yaml:"package_name" toml:"package_name"`
	ActivityName string `json:"activityName,omitempty" yaml:"activity_name,omitempty" toml:"activity_name,omitempty"`
	AppName      string `json:"appName" yaml:"app_name" toml:"app_name"`
	Enabled      bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// DefaultTrigger derives a trigger phrase from an application name: its first
// word, lowercased.
func DefaultTrigger(appName string) string {
	fields := strings.Fields(appName)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// Check returns the first enabled trigger whose phrase ends the trimmed text on a
// word boundary. Phrases compare under simple case folding. The span runs from
// the phrase to the end of text, trailing whitespace included.
func Check(text string, triggers []Trigger) (result.AppTrigger, bool) {
	if len(triggers) == 0 {
		return result.AppTrigger{}, false
	}
	body := strings.TrimLeftFunc(text, unicode.IsSpace)
	lead := len(text) - len(body)
	body = strings.TrimRightFunc(body, unicode.IsSpace)
	if body == "" {
		return result.AppTrigger{}, false
	}

	for _, t := range triggers {
		if !t.Enabled {
			continue
		}
		phrase := strings.TrimSpace(t.Trigger)
		if phrase == "" {
			continue
		}
		at, ok := suffixIndex(body, utf8.RuneCountInString(phrase))
		if !ok || !strings.EqualFold(body[at:], phrase) {
			continue
		}
		if at > 0 {
			before, _ := utf8.DecodeLastRuneInString(body[:at])
			if unicode.IsLetter(before) || unicode.IsDigit(before) {
				continue
			}
		}
		return result.AppTrigger{
			Span:         result.Span{Start: lead + at, End: len(text), Groups: []string{t.Trigger}},
			Trigger:      t.Trigger,
			PackageName:  t.PackageName,
			ActivityName: t.ActivityName,
			AppName:      t.AppName,
		}, true
	}
	return result.AppTrigger{}, false
}

// suffixIndex returns the byte index where the last n runes of s begin.
func suffixIndex(s string, n int) (int, bool) {
	i := len(s)
	for ; n > 0; n-- {
		if i == 0 {
			return 0, false
		}
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return i, true
}

// Encode writes triggers as a JSON list.
func Encode(triggers []Trigger) ([]byte, error) {
	if triggers == nil {
		triggers = []Trigger{}
	}
	data, err := json.Marshal(triggers)
	if err != nil {
		return nil, fmt.Errorf("encode app triggers: %w", err)
	}
	return data, nil
}

// Decode reads a JSON list of triggers. Entries without a phrase take the
// default phrase of their application name. Empty input yields no triggers.
func Decode(data []byte) ([]Trigger, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var triggers []Trigger
	if err := json.Unmarshal(data, &triggers); err != nil {
		return nil, fmt.Errorf("decode app triggers: %w", err)
	}
	for i := range triggers {
		if strings.TrimSpace(triggers[i].Trigger) == "" {
			triggers[i].Trigger = DefaultTrigger(triggers[i].AppName)
		}
	}
	return triggers, nil
}
