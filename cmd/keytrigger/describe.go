package main

import (
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/keytrigger/pkg/config"
	"github.com/Veraticus/keytrigger/pkg/format"
	"github.com/Veraticus/keytrigger/pkg/result"
	"github.com/Veraticus/keytrigger/pkg/trigger"
)

// matchView is the printed form of a parse result.
type matchView struct {
	Matched   bool              `yaml:"matched"`
	Kind      string            `yaml:"kind,omitempty"`
	Start     int               `yaml:"start"`
	End       int               `yaml:"end"`
	Fields    map[string]string `yaml:"fields,omitempty"`
	Remaining string            `yaml:"remaining,omitempty"`
}

func describe(text string, r result.Result) matchView {
	if r == nil {
		return matchView{}
	}
	start, end := r.Bounds()
	v := matchView{
		Matched:   true,
		Kind:      result.Kind(r),
		Start:     start,
		End:       end,
		Fields:    map[string]string{},
		Remaining: result.Delete(text, r),
	}

	switch r := r.(type) {
	case result.AI:
		v.Fields["prompt"] = r.Prompt
	case result.Format:
		v.Fields["target"] = r.Target
		v.Fields["method"] = r.Method.String()
		v.Fields["formatted"] = format.Convert(r.Target, r.Method)
	case result.Command:
		v.Fields["prompt"] = r.Prompt
		v.Fields["command"] = r.Command
	case result.WebSearch:
		v.Fields["query"] = r.Query
	case result.AppTrigger:
		v.Fields["trigger"] = r.Trigger
		v.Fields["package"] = r.PackageName
		if r.ActivityName != "" {
			v.Fields["activity"] = r.ActivityName
		}
		v.Fields["app"] = r.AppName
	case result.TextAction:
		v.Fields["text"] = r.Text
		v.Fields["action"] = r.Action.String()
	case result.InlineCommand:
		v.Fields["preserved"] = r.PreservedText
		v.Fields["command"] = r.Command
		v.Fields["prompt"] = r.Prompt
	case result.InlineAsk:
		v.Fields["preserved"] = r.PreservedText
		v.Fields["prompt"] = r.Prompt
	}
	if len(v.Fields) == 0 {
		v.Fields = nil
	}
	return v
}

// configView is the printed form of a loaded configuration.
type configView struct {
	Path               string        `yaml:"path,omitempty"`
	Mode               string        `yaml:"mode"`
	AskPrefix          string        `yaml:"ask_prefix"`
	SearchEngine       string        `yaml:"search_engine"`
	AppTriggersEnabled bool          `yaml:"app_triggers_enabled"`
	TextActionsEnabled bool          `yaml:"text_actions_enabled"`
	Commands           []string      `yaml:"commands"`
	Triggers           []triggerView `yaml:"triggers"`
	AppTriggers        []string      `yaml:"app_triggers,omitempty"`
}

type triggerView struct {
	Kind       string `yaml:"kind"`
	Symbol     string `yaml:"symbol"`
	EndSymbol  string `yaml:"end_symbol,omitempty"`
	Expression string `yaml:"expression"`
	Enabled    bool   `yaml:"enabled"`
}

func describeConfig(cfg *config.Config) configView {
	v := configView{
		Path:               cfg.Path(),
		Mode:               modeFor(cfg).String(),
		AskPrefix:          cfg.AskPrefix,
		SearchEngine:       cfg.SearchEngine,
		AppTriggersEnabled: cfg.AppTriggersEnabled,
		TextActionsEnabled: cfg.TextActionsEnabled,
	}
	for _, c := range cfg.Commands {
		v.Commands = append(v.Commands, c.Prefix)
	}
	for _, d := range cfg.Definitions() {
		tv := triggerView{
			Kind:       d.Kind.String(),
			Symbol:     d.Symbol,
			Expression: d.Expression(),
			Enabled:    d.Enabled(),
		}
		if d.Kind == trigger.KindRangeSelection {
			tv.EndSymbol = d.End()
		}
		v.Triggers = append(v.Triggers, tv)
	}
	for _, t := range cfg.AppTriggers {
		v.AppTriggers = append(v.AppTriggers, t.Trigger+" -> "+t.PackageName+" ("+strconv.FormatBool(t.Enabled)+")")
	}
	return v
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
