package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/keytrigger/pkg/apptrigger"
	"github.com/Veraticus/keytrigger/pkg/dispatch"
	"github.com/Veraticus/keytrigger/pkg/logging"
	"github.com/Veraticus/keytrigger/pkg/parser"
	"github.com/Veraticus/keytrigger/pkg/trigger"
)

// ErrInvalidSymbol is returned when a configured trigger symbol is unusable.
var ErrInvalidSymbol = trigger.ErrInvalidSymbol

// Config holds all configuration for keytrigger
type Config struct {
	// Parsing behaviour
	AskPrefix          string `yaml:"ask_prefix" toml:"ask_prefix" env:"KEYTRIGGER_ASK_PREFIX"`
	AppTriggersEnabled bool   `yaml:"app_triggers_enabled" toml:"app_triggers_enabled" env:"KEYTRIGGER_APP_TRIGGERS"`
	TextActionsEnabled bool   `yaml:"text_actions_enabled" toml:"text_actions_enabled" env:"KEYTRIGGER_TEXT_ACTIONS"`
	EdgeTriggered      bool   `yaml:"edge_triggered" toml:"edge_triggered" env:"KEYTRIGGER_EDGE"`

	// Dispatch
	SearchEngine string             `yaml:"search_engine" toml:"search_engine" env:"KEYTRIGGER_SEARCH_ENGINE"`
	Commands     []dispatch.Command `yaml:"commands" toml:"commands"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit" toml:"rate_limit"`

	// Trigger configuration. TriggersFile names a persisted JSON record list,
	// relative to the config file; Triggers entries override it per kind.
	TriggersFile string               `yaml:"triggers_file" toml:"triggers_file"`
	Triggers     []TriggerConfig      `yaml:"triggers" toml:"triggers"`
	AppTriggers  []apptrigger.Trigger `yaml:"app_triggers" toml:"app_triggers"`

	// Runtime
	ReloadInterval time.Duration `yaml:"reload_interval" toml:"reload_interval" env:"KEYTRIGGER_RELOAD_INTERVAL"`
	LogLevel       string        `yaml:"log_level" toml:"log_level" env:"KEYTRIGGER_LOG_LEVEL"`
	LogFormat      string        `yaml:"log_format" toml:"log_format"`

	path        string
	definitions []trigger.Definition
}

// TriggerConfig overrides the symbol or enabled flag of one trigger kind.
type TriggerConfig struct {
	Kind      string `yaml:"kind" toml:"kind"`
	Symbol    string `yaml:"symbol" toml:"symbol"`
	EndSymbol string `yaml:"end_symbol" toml:"end_symbol"`
	Enabled   *bool  `yaml:"enabled" toml:"enabled"`
}

// RateLimitConfig bounds AI-bound dispatches with a token bucket.
type RateLimitConfig struct {
	Capacity int           `yaml:"capacity" toml:"capacity"`
	Refill   time.Duration `yaml:"refill" toml:"refill"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		AskPrefix:          parser.DefaultAskPrefix,
		AppTriggersEnabled: true,
		TextActionsEnabled: true,
		SearchEngine:       dispatch.DefaultEngine,
		Commands:           dispatch.DefaultCommands(),
		RateLimit: RateLimitConfig{
			Capacity: 5,
			Refill:   2 * time.Second,
		},
		ReloadInterval: time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
		definitions:    trigger.Defaults(),
	}
}

// Definitions returns the compiled trigger definitions.
func (c *Config) Definitions() []trigger.Definition {
	out := make([]trigger.Definition, len(c.definitions))
	copy(out, c.definitions)
	return out
}

// Path returns the file the configuration was read from, if any.
func (c *Config) Path() string {
	return c.path
}

// ParserOptions returns the parser snapshot options for this configuration.
func (c *Config) ParserOptions() parser.Options {
	return parser.Options{
		Definitions:        c.Definitions(),
		AskPrefix:          c.AskPrefix,
		Commands:           dispatch.CommandNames(c.Commands),
		AppTriggers:        c.AppTriggers,
		AppTriggersEnabled: c.AppTriggersEnabled,
		TextActionsEnabled: c.TextActionsEnabled,
	}
}

// Load loads configuration from the default path and environment
func Load() (*Config, error) {
	return LoadFile(getConfigPath())
}

// LoadFile loads configuration from path and the environment. A missing file
// yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg.path = path
	}

	// Override with environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := compileTriggers(cfg); err != nil {
		return nil, fmt.Errorf("failed to compile triggers: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if path := os.Getenv("KEYTRIGGER_CONFIG"); path != "" {
		return path
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "keytrigger", "config.yaml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "keytrigger", "config.yaml")
	}

	return ""
}

// loadFromFile decodes a YAML or TOML file chosen by extension.
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	}
	return nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	if prefix := os.Getenv("KEYTRIGGER_ASK_PREFIX"); prefix != "" {
		cfg.AskPrefix = prefix
	}

	if engine := os.Getenv("KEYTRIGGER_SEARCH_ENGINE"); engine != "" {
		cfg.SearchEngine = engine
	}

	if level := os.Getenv("KEYTRIGGER_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if interval := os.Getenv("KEYTRIGGER_RELOAD_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid KEYTRIGGER_RELOAD_INTERVAL: %w", err)
		}
		cfg.ReloadInterval = d
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"KEYTRIGGER_APP_TRIGGERS", &cfg.AppTriggersEnabled},
		{"KEYTRIGGER_TEXT_ACTIONS", &cfg.TextActionsEnabled},
		{"KEYTRIGGER_EDGE", &cfg.EdgeTriggered},
	}
	for _, f := range flags {
		value := os.Getenv(f.name)
		if value == "" {
			continue
		}
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s value: %q (use true/false)", f.name, value)
		}
		*f.dst = b
	}

	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// compileTriggers builds the definition list: the persisted record file when
// configured, else the defaults, with per-kind overrides applied in place.
func compileTriggers(cfg *Config) error {
	defs := trigger.Defaults()
	if cfg.TriggersFile != "" {
		path := cfg.TriggersFile
		if !filepath.IsAbs(path) && cfg.path != "" {
			path = filepath.Join(filepath.Dir(cfg.path), path)
		}
		// #nosec G304 - path is set by the user's own config file
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read triggers file: %w", err)
		}
		defs = trigger.Decode(data, slog.Default())
	}

	for _, tc := range cfg.Triggers {
		kind, ok := trigger.ParseKind(tc.Kind)
		if !ok {
			return fmt.Errorf("unknown trigger kind %q", tc.Kind)
		}
		def, err := overrideTrigger(defs, kind, tc)
		if err != nil {
			return err
		}
		for i := range defs {
			if defs[i].Kind == kind {
				defs[i] = def
			}
		}
	}

	for i := range cfg.AppTriggers {
		if strings.TrimSpace(cfg.AppTriggers[i].Trigger) == "" {
			cfg.AppTriggers[i].Trigger = apptrigger.DefaultTrigger(cfg.AppTriggers[i].AppName)
		}
	}

	cfg.definitions = defs
	return nil
}

func overrideTrigger(defs []trigger.Definition, kind trigger.Kind, tc TriggerConfig) (trigger.Definition, error) {
	var current trigger.Definition
	for _, d := range defs {
		if d.Kind == kind {
			current = d
			break
		}
	}

	enabled := current.Enabled()
	if tc.Enabled != nil {
		enabled = *tc.Enabled
	}
	symbol := tc.Symbol
	if symbol == "" {
		symbol = current.Symbol
	}
	if symbol == "" {
		symbol = kind.Info().DefaultSymbol
	}

	if kind == trigger.KindRangeSelection {
		end := tc.EndSymbol
		if end == "" {
			end = symbol
		}
		if err := trigger.ValidateSymbol(kind, symbol, end); err != nil {
			return trigger.Definition{}, fmt.Errorf("trigger %s: %w", kind, err)
		}
		return trigger.NewRangeDefinition(symbol, end, enabled)
	}
	if err := trigger.ValidateSymbol(kind, symbol, ""); err != nil {
		return trigger.Definition{}, fmt.Errorf("trigger %s: %w", kind, err)
	}
	return trigger.NewDefinition(kind, symbol, enabled)
}

// validate validates the configuration
func validate(cfg *Config) error {
	prefix := strings.TrimSpace(cfg.AskPrefix)
	if prefix == "" {
		return fmt.Errorf("ask_prefix must not be empty")
	}
	if strings.ContainsAny(prefix, " \t\n") {
		return fmt.Errorf("ask_prefix must be a single word")
	}

	if !dispatch.ValidEngine(cfg.SearchEngine) {
		return fmt.Errorf("unknown search_engine %q (supported: %s)", cfg.SearchEngine, strings.Join(dispatch.Engines(), ", "))
	}

	seen := make(map[string]bool, len(cfg.Commands))
	for _, c := range cfg.Commands {
		key := strings.ToLower(strings.TrimSpace(c.Prefix))
		if key == "" {
			return fmt.Errorf("command prefix must not be empty")
		}
		if strings.ContainsAny(key, " \t\n") {
			return fmt.Errorf("command prefix %q must be a single word", c.Prefix)
		}
		if key == dispatch.WebSearchCommand {
			return fmt.Errorf("command prefix %q is reserved for web search", c.Prefix)
		}
		if seen[key] {
			return fmt.Errorf("duplicate command prefix %q", c.Prefix)
		}
		seen[key] = true
	}

	for _, t := range cfg.AppTriggers {
		if strings.TrimSpace(t.PackageName) == "" {
			return fmt.Errorf("app trigger %q needs a package name", t.Trigger)
		}
	}

	if cfg.RateLimit.Capacity < 0 {
		return fmt.Errorf("rate_limit.capacity must be non-negative")
	}
	if cfg.RateLimit.Refill < 0 {
		return fmt.Errorf("rate_limit.refill must be non-negative")
	}
	if cfg.ReloadInterval < 0 {
		return fmt.Errorf("reload_interval must be non-negative")
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := logging.ParseFormat(cfg.LogFormat); err != nil {
		return fmt.Errorf("log_format: %w", err)
	}

	return nil
}
