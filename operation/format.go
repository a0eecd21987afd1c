package operation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relux-works/opline/parsing"
	"github.com/relux-works/opline/value"
)

// Report is the printable summary of one parsed command.
type Report struct {
	Command    string               `json:"command"`
	Offset     int                  `json:"offset"`
	Address    string               `json:"address"`
	Nodes      Address              `json:"nodes"`
	Operation  string               `json:"operation,omitempty"`
	Properties *value.Object        `json:"properties,omitempty"`
	Headers    []Header             `json:"headers,omitempty"`
	Output     string               `json:"output,omitempty"`
	EndsOn     string               `json:"endsOn,omitempty"`
	EndsOnType bool                 `json:"endsOnType"`
	Complete   bool                 `json:"complete"`
	Error      *parsing.SyntaxError `json:"error,omitempty"`
}

// NewReport summarizes cmd, typing its property values and splitting its
// headers. The first failure found is kept in Error.
func NewReport(cmd Command) Report {
	r := cmd.Result
	rep := Report{
		Command:    cmd.Text,
		Offset:     cmd.Offset,
		Address:    r.Address.String(),
		Nodes:      r.Address.Clone(),
		Operation:  r.Operation,
		Output:     r.OutputTarget,
		EndsOn:     r.EndsOn(),
		EndsOnType: r.EndsOnType(),
		Complete:   r.IsRequestComplete(),
	}
	if cmd.Err != nil {
		rep.Error = asSyntaxError(cmd.Err)
		return rep
	}

	if r.HasProperties() {
		props, err := r.Values()
		if err != nil {
			rep.Error = asSyntaxError(err)
			return rep
		}
		rep.Properties = props
	}
	headers, err := r.HeaderList()
	if err != nil {
		rep.Error = asSyntaxError(err)
		return rep
	}
	rep.Headers = headers
	return rep
}

// NewReports summarizes every command of a line.
func NewReports(cmds []Command) []Report {
	out := make([]Report, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, NewReport(c))
	}
	return out
}

func asSyntaxError(err error) *parsing.SyntaxError {
	var se *parsing.SyntaxError
	if errors.As(err, &se) {
		return se
	}
	return &parsing.SyntaxError{Code: parsing.ErrInternal, Message: err.Error()}
}

// FormatCompact formats reports as key:value lines, one block per command,
// blocks separated by an empty line. Property values use the canonical
// value rendering. Empty fields are left out.
func FormatCompact(reports []Report) []byte {
	var b strings.Builder
	for i, rep := range reports {
		if i > 0 {
			b.WriteByte('\n')
		}
		formatReport(&b, rep)
	}
	return []byte(b.String())
}

func formatReport(b *strings.Builder, rep Report) {
	writeKV(b, "command", rep.Command)
	writeKV(b, "address", rep.Address)
	if rep.Operation != "" {
		writeKV(b, "operation", rep.Operation)
	}
	if rep.Properties != nil {
		for _, k := range rep.Properties.Keys() {
			v, _ := rep.Properties.Get(k)
			writeKV(b, "property."+k, value.Render(v))
		}
	}
	for _, h := range rep.Headers {
		writeKV(b, "header."+h.Name, h.Value)
	}
	if rep.Output != "" {
		writeKV(b, "output", rep.Output)
	}
	if rep.EndsOn != "" {
		writeKV(b, "ends-on", rep.EndsOn)
	}
	if rep.EndsOnType {
		writeKV(b, "ends-on-type", "true")
	}
	if rep.Complete {
		writeKV(b, "complete", "true")
	}
	if rep.Error != nil {
		writeKV(b, "error", fmt.Sprintf("%s at %d: %s", rep.Error.Code, rep.Error.Offset(), rep.Error.Message))
	}
}

// writeKV writes one key:value line. Embedded newlines are escaped so each
// pair stays on one line.
func writeKV(b *strings.Builder, key, val string) {
	val = strings.ReplaceAll(val, "\n", "\\n")
	val = strings.ReplaceAll(val, "\r", "\\r")
	b.WriteString(key)
	b.WriteByte(':')
	b.WriteString(val)
	b.WriteByte('\n')
}
