package cobraext

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// OutputMode selects how a command prints its result.
type OutputMode int

const (
	ModeJSON    OutputMode = iota // indented JSON
	ModeCompact                   // key:value lines, or CSV rows for lists
	ModeCty                       // cty JSON, for the value command only
)

// String returns the canonical flag value for m.
func (m OutputMode) String() string {
	switch m {
	case ModeJSON:
		return "json"
	case ModeCompact:
		return "compact"
	case ModeCty:
		return "cty"
	default:
		return "unknown"
	}
}

// parseOutputMode converts a string flag value to an OutputMode.
// "compact" and "llm" map to ModeCompact; "json" maps to ModeJSON; "cty"
// maps to ModeCty. Returns an error for unrecognized values.
func parseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(s) {
	case "compact", "llm":
		return ModeCompact, nil
	case "json":
		return ModeJSON, nil
	case "cty":
		return ModeCty, nil
	default:
		return 0, fmt.Errorf("unknown format %q: use \"json\", \"compact\", or \"cty\"", s)
	}
}

// formatFlag is the --format flag. It refuses modes the command cannot
// print.
type formatFlag struct {
	mode    OutputMode
	allowed []OutputMode
}

var _ pflag.Value = (*formatFlag)(nil)

func newFormatFlag(allowed ...OutputMode) *formatFlag {
	return &formatFlag{mode: allowed[0], allowed: allowed}
}

func (f *formatFlag) String() string { return f.mode.String() }

func (f *formatFlag) Set(s string) error {
	m, err := parseOutputMode(s)
	if err != nil {
		return err
	}
	for _, a := range f.allowed {
		if a == m {
			f.mode = m
			return nil
		}
	}
	return fmt.Errorf("format %q is not supported here: use %s", s, f.usage())
}

func (f *formatFlag) Type() string { return "format" }

func (f *formatFlag) usage() string {
	names := make([]string, len(f.allowed))
	for i, a := range f.allowed {
		names[i] = fmt.Sprintf("%q", a.String())
	}
	return strings.Join(names, " or ")
}

// addFormatFlag registers a required --format flag on fs.
func addFormatFlag(fs *pflag.FlagSet, allowed ...OutputMode) *formatFlag {
	f := newFormatFlag(allowed...)
	fs.Var(f, "format", fmt.Sprintf("Output format (required): %s", f.usage()))
	return f
}
