// Package cobraext provides Cobra command factories for the opline parsers.
// It isolates the github.com/spf13/cobra dependency so that programs
// embedding the parsers never import it.
package cobraext

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/relux-works/opline/config"
	"github.com/relux-works/opline/operation"
	"github.com/relux-works/opline/parsing"
	"github.com/relux-works/opline/value"
)

// Settings carries the loaded configuration into the commands. The root
// command fills it before a subcommand runs; a nil Config means defaults.
type Settings struct {
	Config *config.Config
	Logger *slog.Logger
}

func (s *Settings) config() *config.Config {
	if s == nil || s.Config == nil {
		return config.Default()
	}
	cp := *s.Config
	cp.Resolve.Variables = maps.Clone(s.Config.Resolve.Variables)
	return &cp
}

func (s *Settings) logger() *slog.Logger {
	if s == nil || s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

// defineFlag collects -D name=value variables.
type defineFlag map[string]string

var _ pflag.Value = defineFlag(nil)

func (d defineFlag) String() string {
	pairs := make([]string, 0, len(d))
	for k, v := range d {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (d defineFlag) Set(s string) error {
	name, val, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("invalid variable %q: use name=value", s)
	}
	d[name] = val
	return nil
}

func (d defineFlag) Type() string { return "name=value" }

func addDefineFlag(fs *pflag.FlagSet) defineFlag {
	d := defineFlag{}
	fs.VarP(d, "define", "D", "Define an expression variable (repeatable)")
	return d
}

// applyDefines merges -D variables over the configured ones.
func applyDefines(cfg *config.Config, d defineFlag) {
	if len(d) == 0 {
		return
	}
	if cfg.Resolve.Variables == nil {
		cfg.Resolve.Variables = make(map[string]string, len(d))
	}
	maps.Copy(cfg.Resolve.Variables, d)
}

// ParseCommand creates a "parse" subcommand that splits a line into
// commands and prints each command's address, operation, typed properties,
// headers and output target. It fails when any command failed, after
// printing all of them. The --format flag is required.
func ParseCommand(s *Settings) *cobra.Command {
	var (
		prefix  string
		lenient bool
		resolve bool
		format  *formatFlag
		defines defineFlag
	)

	cmd := &cobra.Command{
		Use:   "parse <line>",
		Short: "Parse a management command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := s.config()
			if cmd.Flags().Changed("prefix") {
				cfg.Parse.Prefix = prefix
			}
			if cmd.Flags().Changed("lenient") {
				cfg.Parse.Lenient = lenient
			}
			if cmd.Flags().Changed("resolve") {
				cfg.Resolve.Values = resolve
				cfg.Resolve.Names = resolve
			}
			applyDefines(cfg, defines)

			opts, err := cfg.Options(s.logger())
			if err != nil {
				return err
			}
			cmds, err := operation.ParseLine(args[0], opts...)
			if err != nil {
				return err
			}
			reports := operation.NewReports(cmds)

			if err := writeResult(cmd.OutOrStdout(), format.mode, reports, func() []byte {
				return operation.FormatCompact(reports)
			}); err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				if r.Error != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d commands failed", failed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Current node address that relative addresses start from")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Accept a truncated line, as completion does")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "Resolve ${...} expressions in names and values")
	format = addFormatFlag(cmd.Flags(), ModeJSON, ModeCompact)
	defines = addDefineFlag(cmd.Flags())
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

// valueResult is the printable form of a typed value.
type valueResult struct {
	Kind  string      `json:"kind"`
	Value value.Value `json:"value"`
}

// ValueCommand creates a "value" subcommand that types one argument value
// and prints its kind and canonical rendering. The --format flag is
// required; "cty" prints the value as cty JSON.
func ValueCommand(s *Settings) *cobra.Command {
	var (
		resolve bool
		stage   string
		format  *formatFlag
		defines defineFlag
	)

	cmd := &cobra.Command{
		Use:   "value <text>",
		Short: "Type an argument value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := s.config()
			if cmd.Flags().Changed("stage") {
				cfg.Resolve.Stage = stage
			}
			if cmd.Flags().Changed("resolve") {
				cfg.Resolve.Values = resolve
			}
			applyDefines(cfg, defines)

			st, err := value.ParseStage(cfg.Resolve.Stage)
			if err != nil {
				return err
			}
			opts := []value.Option{value.WithMaxDepth(cfg.Parse.MaxDepth)}
			if cfg.Resolve.Values {
				opts = append(opts, value.WithResolver(cfg.Resolver(s.logger()).Resolve, st))
			}
			v, err := value.Parse(args[0], opts...)
			if err != nil {
				return err
			}

			if format.mode == ModeCty {
				data, err := value.MarshalCty(v)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			res := valueResult{Kind: v.Kind().String(), Value: v}
			return writeResult(cmd.OutOrStdout(), format.mode, res, func() []byte {
				return []byte("kind:" + res.Kind + "\nvalue:" + escapeKV(value.Render(v)) + "\n")
			})
		},
	}

	cmd.Flags().BoolVar(&resolve, "resolve", false, "Resolve ${...} expressions")
	cmd.Flags().StringVar(&stage, "stage", "", `When to resolve: "none", "before" or "leaves"`)
	format = addFormatFlag(cmd.Flags(), ModeJSON, ModeCompact, ModeCty)
	defines = addDefineFlag(cmd.Flags())
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

// ResolveCommand creates a "resolve" subcommand that substitutes ${...}
// expressions and prints the result. --lax keeps unknown names literally;
// --or-original prints the input unchanged on any failure.
func ResolveCommand(s *Settings) *cobra.Command {
	var (
		lax        bool
		orOriginal bool
		defines    defineFlag
	)

	cmd := &cobra.Command{
		Use:   "resolve <text>",
		Short: "Resolve ${...} expressions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := s.config()
			applyDefines(cfg, defines)
			r := cfg.Resolver(s.logger())

			var (
				out string
				err error
			)
			switch {
			case orOriginal:
				out = r.ResolveOrOriginal(args[0])
			case lax:
				out, err = r.ResolveLax(args[0])
			default:
				out, err = r.Resolve(args[0])
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&lax, "lax", false, "Leave unknown expressions in place")
	cmd.Flags().BoolVar(&orOriginal, "or-original", false, "Print the input unchanged when resolution fails")
	defines = addDefineFlag(cmd.Flags())
	return cmd
}

// SplitCommand creates a "split" subcommand that prints the sub-commands
// of a line with their offsets. The --format flag is required.
func SplitCommand(s *Settings) *cobra.Command {
	var (
		separators string
		lenient    bool
		format     *formatFlag
	)

	cmd := &cobra.Command{
		Use:   "split <line>",
		Short: "Split a line into sub-commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := s.config()
			if cmd.Flags().Changed("separators") {
				cfg.Parse.Separators = separators
			}
			if cmd.Flags().Changed("lenient") {
				cfg.Parse.Lenient = lenient
			}

			var segs []parsing.Segment
			if cfg.Parse.Lenient {
				segs = parsing.SplitPartial(args[0], cfg.Parse.Separators)
			} else {
				var err error
				if segs, err = parsing.Split(args[0], cfg.Parse.Separators); err != nil {
					return err
				}
			}
			s.logger().Debug("line split", "segments", len(segs))

			if segs == nil {
				segs = []parsing.Segment{}
			}
			return writeResult(cmd.OutOrStdout(), format.mode, segs, func() []byte {
				return formatSegments(segs)
			})
		},
	}

	cmd.Flags().StringVar(&separators, "separators", "", `Sub-command separators (default ",;")`)
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Let an unterminated quote run to the end of the line")
	format = addFormatFlag(cmd.Flags(), ModeJSON, ModeCompact)
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

// AddCommands adds the parse, value, resolve and split commands as
// subcommands of parent.
func AddCommands(parent *cobra.Command, s *Settings) {
	parent.AddCommand(ParseCommand(s))
	parent.AddCommand(ValueCommand(s))
	parent.AddCommand(ResolveCommand(s))
	parent.AddCommand(SplitCommand(s))
}

// writeResult prints v as indented JSON, or the compact form built by
// compact.
func writeResult(w io.Writer, mode OutputMode, v any, compact func() []byte) error {
	var data []byte
	if mode == ModeCompact {
		data = compact()
	} else {
		var err error
		if data, err = json.MarshalIndent(v, "", "  "); err != nil {
			return err
		}
		data = append(data, '\n')
	}
	_, err := w.Write(data)
	return err
}

// formatSegments prints segments as CSV rows under an "offset,text" header.
func formatSegments(segs []parsing.Segment) []byte {
	var b strings.Builder
	b.WriteString("offset,text\n")
	for _, seg := range segs {
		fmt.Fprintf(&b, "%d,%s\n", seg.Offset, escapeCSV(seg.Text))
	}
	return []byte(b.String())
}

// escapeCSV wraps text containing commas, quotes or newlines in double
// quotes with internal quotes doubled.
func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// escapeKV escapes embedded newlines so each key:value stays on one line.
func escapeKV(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	return strings.ReplaceAll(s, "\r", "\\r")
}

