package operation

import (
	"errors"

	"github.com/relux-works/opline/parsing"
)

// Command is one sub-command of a line. Offset locates Text in the line.
// Err holds the failure of this sub-command alone; Result keeps whatever
// was parsed before it.
type Command struct {
	Text   string
	Offset int
	Result *Result
	Err    error
}

// ParseLine splits line into sub-commands and parses each one. A failing
// sub-command does not stop the others. Error positions are relative to the
// whole line.
//
// The returned error is reserved for a line that cannot be split at all,
// which only happens in strict mode on an unterminated quote.
func ParseLine(line string, opts ...Option) ([]Command, error) {
	cfg := newConfig(opts)

	var segs []parsing.Segment
	if cfg.strict {
		var err error
		if segs, err = parsing.Split(line, cfg.separators); err != nil {
			return nil, err
		}
	} else {
		segs = parsing.SplitPartial(line, cfg.separators)
	}

	cmds := make([]Command, 0, len(segs))
	for _, seg := range segs {
		r := &Result{cfg: cfg}
		err := r.parse(seg.Text, line, seg.Offset)
		var se *parsing.SyntaxError
		if errors.As(err, &se) {
			err = se.Shift(seg.Offset, line)
		}
		cmds = append(cmds, Command{Text: seg.Text, Offset: seg.Offset, Result: r, Err: err})
	}
	cfg.logger.Debug("line parsed", "commands", len(cmds))
	return cmds, nil
}
