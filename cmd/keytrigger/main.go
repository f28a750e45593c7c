package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Veraticus/keytrigger/pkg/config"
	"github.com/Veraticus/keytrigger/pkg/detector"
	"github.com/Veraticus/keytrigger/pkg/dispatch"
	"github.com/Veraticus/keytrigger/pkg/logging"
	"github.com/Veraticus/keytrigger/pkg/parser"
	"github.com/Veraticus/keytrigger/pkg/result"
	"github.com/Veraticus/keytrigger/pkg/textaction"
	"github.com/Veraticus/keytrigger/pkg/trigger"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	edge       bool
}

func (o *rootOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/keytrigger/config.yaml)")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&o.logFormat, "log-format", "", "log format: text or json")
	fs.BoolVar(&o.edge, "edge", false, "use edge-triggered detection")
}

// load reads the configuration and applies flag overrides.
func (o *rootOptions) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if o.edge {
		cfg.EdgeTriggered = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:     level,
		Format:    format,
		Output:    w,
		Component: "keytrigger",
	}), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "keytrigger",
		Short: "Keyboard trigger parser and dispatcher",
		Long: `keytrigger recognises trigger syntax typed at the end of a text buffer and
acts on it: AI prompts, text formatting, custom commands, web searches, app
launches, text actions and settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.addFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newRunCmd(opts),
		newParseCmd(opts),
		newCheckCmd(opts),
		newSymbolCmd(),
		newActionsCmd(),
		newEnginesCmd(),
	)
	return rootCmd
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Type lines into a simulated input field",
		Long: `Each input line is typed into the buffer one character at a time. Matches
are deleted and dispatched to a terminal host that prints what would happen.

Lines ":clear", ":buffer" and ":quit" control the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			deps, err := NewDependencies(cfg, cmd.OutOrStdout(), logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			in := cmd.InOrStdin()
			prompt := false
			if f, ok := in.(*os.File); ok {
				prompt = isatty(f.Fd())
			}

			app := NewApplication(deps, cmd.OutOrStdout(), prompt)
			return app.Run(ctx, in, !noWatch && cfg.Path() != "")
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the config file on change")
	return cmd
}

func newParseCmd(opts *rootOptions) *cobra.Command {
	var (
		cursor   int
		utf16    bool
		previous string
	)
	cmd := &cobra.Command{
		Use:   "parse [text...]",
		Short: "Print the trigger matched at the end of text",
		Long: `Parse text, given as arguments or on stdin, and print the match as YAML.
With --previous the edge-triggered detector is used instead of the full parser.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			text, err := inputText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			pos := len(text)
			if cursor >= 0 {
				pos = cursor
				if utf16 {
					pos = result.UTF16ToByte(text, cursor)
				}
			}

			var (
				r  result.Result
				ok bool
			)
			if cmd.Flags().Changed("previous") || opts.edge {
				d := detector.New(cfg.Definitions(), logger)
				if d.ShouldCheck(previous, text, pos) {
					r, ok = d.ParseOnTrigger(text, pos)
				}
			} else {
				r, ok = parser.New(cfg.ParserOptions(), logger).Parse(text, pos)
			}
			if !ok {
				r = nil
			}
			return writeYAML(cmd.OutOrStdout(), describe(text[:result.ClampCursor(text, pos)], r))
		},
	}
	cmd.Flags().IntVar(&cursor, "cursor", -1, "cursor offset (default end of text)")
	cmd.Flags().BoolVar(&utf16, "utf16", false, "cursor is given in UTF-16 code units")
	cmd.Flags().StringVar(&previous, "previous", "", "buffer before the last edit, enables edge detection")
	return cmd
}

// inputText joins args, or reads stdin when there are none.
func inputText(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var exportTriggers bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if _, err := newLogger(cfg, io.Discard); err != nil {
				return err
			}
			if exportTriggers {
				data, err := trigger.Encode(cfg.Definitions())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return writeYAML(cmd.OutOrStdout(), describeConfig(cfg))
		},
	}
	cmd.Flags().BoolVar(&exportTriggers, "export-triggers", false, "print the trigger list in its persisted JSON form")
	return cmd
}

func newSymbolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbol",
		Short: "Convert between trigger symbols and match expressions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "expr <kind> <symbol> [end-symbol]",
		Short: "Print the expression stored for a kind and symbol",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := trigger.ParseKind(args[0])
			if !ok {
				return fmt.Errorf("unknown trigger kind %q", args[0])
			}
			end := ""
			if len(args) == 3 {
				end = args[2]
			}
			if err := trigger.ValidateSymbol(kind, args[1], end); err != nil {
				return err
			}

			var (
				expr string
				err  error
			)
			if kind == trigger.KindRangeSelection {
				if end == "" {
					end = args[1]
				}
				expr, err = trigger.RangeExpressionFor(args[1], end)
			} else {
				expr, err = trigger.ExpressionFor(kind, args[1])
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), expr)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "from <expression>",
		Short: "Recover the symbol from a match expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if start, end, ok := trigger.RangeSymbols(args[0]); ok {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", start, end)
				return err
			}
			sym, ok := trigger.ExpressionToSymbol(args[0])
			if !ok {
				return errors.New("no symbol found in expression")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), sym)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "kinds",
		Short: "List trigger kinds with their defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, k := range trigger.Kinds() {
				info := k.Info()
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-6s %s\n", info.Name, strconv.Quote(info.DefaultSymbol), info.Example); err != nil {
					return err
				}
			}
			return nil
		},
	})
	return cmd
}

func newActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions [word]",
		Short: "List text action words, or suggest one for a typo",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				_, err := fmt.Fprint(out, textaction.HelpText())
				return err
			}
			if action, ok := textaction.Lookup(args[0]); ok {
				_, err := fmt.Fprintf(out, "%s: %s\n", textaction.Label(action), textaction.SystemMessage(action, ""))
				return err
			}
			if word, ok := textaction.Suggest(args[0]); ok {
				_, err := fmt.Fprintf(out, "unknown action %q, did you mean %q?\n", args[0], word)
				return err
			}
			return fmt.Errorf("unknown action %q", args[0])
		},
	}
}

func newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the supported search engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range dispatch.Engines() {
				marker := " "
				if name == dispatch.DefaultEngine {
					marker = "*"
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

