// Package operation parses management console commands:
//
//	/subsystem=logging/logger=app:write-attribute(name=level,value=DEBUG){rollout main} > out.txt
//
// into a resource Address, an operation name, raw property values, raw
// headers and an output target. Property values are typed on demand with
// the value package.
package operation

import (
	"errors"
	"fmt"

	"github.com/relux-works/opline/parsing"
	"github.com/relux-works/opline/value"
)

// stop records the last separator seen with nothing significant after it.
type stop uint8

const (
	stopNone stop = iota
	stopNodeSeparator
	stopNodeTypeNameSeparator
	stopOperationSeparator
	stopPropertyListStart
	stopPropertySeparator
	stopPropertyValueSeparator
	stopPropertyListEnd
	stopHeaderListStart
	stopHeaderSeparator
	stopHeaderListEnd
	stopOutputTargetStart
)

func (s stop) String() string {
	switch s {
	case stopNodeSeparator:
		return "node-separator"
	case stopNodeTypeNameSeparator:
		return "node-type-name-separator"
	case stopOperationSeparator:
		return "operation-separator"
	case stopPropertyListStart:
		return "property-list-start"
	case stopPropertySeparator:
		return "property-separator"
	case stopPropertyValueSeparator:
		return "property-value-separator"
	case stopPropertyListEnd:
		return "property-list-end"
	case stopHeaderListStart:
		return "header-list-start"
	case stopHeaderSeparator:
		return "header-separator"
	case stopHeaderListEnd:
		return "header-list-end"
	case stopOutputTargetStart:
		return "output-target-start"
	default:
		return ""
	}
}

// Property is one raw property of a command. Offset locates Value in the
// parsed text, or is -1 for implicit values of bare and negated names.
type Property struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Offset int    `json:"offset"`
}

// Result holds what one command parse found. It is filled during the parse
// and is read-only afterwards; after a failed parse it keeps everything
// found before the error.
type Result struct {
	Address      Address
	Operation    string
	Headers      string // raw text between '{' and '}'
	OutputTarget string

	// LastChunkIndex is the offset at which the token being typed starts.
	LastChunkIndex int

	names []string
	props map[string]Property

	stop      stop
	complete  bool
	headersAt int

	// line and base place the parsed text within a longer line, so that
	// errors found later are positioned in the line.
	line string
	base int

	cfg *config
}

// NewResult creates an empty Result whose address starts at the configured
// prefix.
func NewResult(opts ...Option) *Result {
	r := &Result{cfg: newConfig(opts)}
	r.Reset()
	return r
}

// Parse parses one command.
func Parse(input string, opts ...Option) (*Result, error) {
	r := NewResult(opts...)
	err := r.Parse(input)
	return r, err
}

// Parse resets r and parses input into it. r may be reused for successive
// prefixes of the same command, as completion does.
func (r *Result) Parse(input string) error {
	return r.parse(input, input, 0)
}

func (r *Result) parse(input, line string, base int) error {
	r.Reset()
	r.line, r.base = line, base

	h := &handler{r: r, g: grammar, cfg: r.cfg}
	err := parsing.Parse(input, h, grammar.request,
		parsing.WithStrict(r.cfg.strict),
		parsing.WithMaxDepth(r.cfg.maxDepth),
	)
	if err != nil {
		r.cfg.logger.Debug("command rejected", "input", input, "error", err)
		return err
	}
	r.cfg.logger.Debug("command parsed",
		"address", r.Address.String(),
		"operation", r.Operation,
		"properties", len(r.names),
	)
	return nil
}

// Reset clears r back to the prefix address.
func (r *Result) Reset() {
	if r.cfg == nil {
		r.cfg = newConfig(nil)
	}
	r.Address = r.cfg.prefix.Clone()
	r.Operation = ""
	r.Headers = ""
	r.OutputTarget = ""
	r.LastChunkIndex = 0
	r.names = nil
	r.props = make(map[string]Property)
	r.stop = stopNone
	r.complete = false
	r.headersAt = 0
}

func (r *Result) mark(s stop, chunk int) {
	r.stop = s
	r.LastChunkIndex = chunk
}

// setProperty stores a property. A repeated name keeps its first position
// and takes the last value.
func (r *Result) setProperty(name, raw string, at int) {
	if _, ok := r.props[name]; !ok {
		r.names = append(r.names, name)
	}
	r.props[name] = Property{Name: name, Value: raw, Offset: at}
}

// HasProperties reports whether any property was given.
func (r *Result) HasProperties() bool { return len(r.names) > 0 }

// PropertyNames returns the property names in order of first appearance.
func (r *Result) PropertyNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Property returns the raw value of a property.
func (r *Result) Property(name string) (string, bool) {
	p, ok := r.props[name]
	return p.Value, ok
}

// Properties returns the raw properties in order of first appearance.
func (r *Result) Properties() []Property {
	out := make([]Property, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.props[n])
	}
	return out
}

// Value types one property value. Expressions are resolved when value
// resolution is configured.
func (r *Result) Value(name string) (value.Value, error) {
	p, ok := r.props[name]
	if !ok {
		return nil, fmt.Errorf("property %q not given", name)
	}
	v, err := value.Parse(p.Value, r.cfg.valueOptions()...)
	if err != nil {
		return nil, r.reposition(err, p.Offset)
	}
	return v, nil
}

// Values types every property value into an Object keyed by property name.
func (r *Result) Values() (*value.Object, error) {
	out := value.NewObject()
	for _, n := range r.names {
		v, err := r.Value(n)
		if err != nil {
			return nil, err
		}
		out.Set(n, v)
	}
	return out, nil
}

// reposition moves a SyntaxError found in a sub-string starting at offset
// of the parsed text into the line.
func (r *Result) reposition(err error, offset int) error {
	var se *parsing.SyntaxError
	if offset < 0 || !errors.As(err, &se) {
		return err
	}
	return se.Shift(r.base+offset, r.line)
}

// EndsOnNodeSeparator reports whether the command ends on '/'.
func (r *Result) EndsOnNodeSeparator() bool { return r.stop == stopNodeSeparator }

// EndsOnNodeTypeNameSeparator reports whether the command ends on the '='
// between a node type and its name.
func (r *Result) EndsOnNodeTypeNameSeparator() bool { return r.stop == stopNodeTypeNameSeparator }

// EndsOnAddressOperationNameSeparator reports whether the command ends on ':'.
func (r *Result) EndsOnAddressOperationNameSeparator() bool { return r.stop == stopOperationSeparator }

// EndsOnPropertyListStart reports whether the command ends on '('.
func (r *Result) EndsOnPropertyListStart() bool { return r.stop == stopPropertyListStart }

// EndsOnPropertySeparator reports whether the command ends on ',' inside
// the property list.
func (r *Result) EndsOnPropertySeparator() bool { return r.stop == stopPropertySeparator }

// EndsOnPropertyValueSeparator reports whether the command ends on the '='
// after a property name.
func (r *Result) EndsOnPropertyValueSeparator() bool { return r.stop == stopPropertyValueSeparator }

// EndsOnPropertyListEnd reports whether the command ends on ')'.
func (r *Result) EndsOnPropertyListEnd() bool { return r.stop == stopPropertyListEnd }

// EndsOnHeaderListStart reports whether the command ends on '{'.
func (r *Result) EndsOnHeaderListStart() bool { return r.stop == stopHeaderListStart }

// EndsOnHeaderSeparator reports whether the command ends on ';' inside the
// headers.
func (r *Result) EndsOnHeaderSeparator() bool { return r.stop == stopHeaderSeparator }

// EndsOnHeaderListEnd reports whether the command ends on the closing '}'.
func (r *Result) EndsOnHeaderListEnd() bool { return r.stop == stopHeaderListEnd }

// EndsOnOutputTargetStart reports whether the command ends on '>' with no
// target yet.
func (r *Result) EndsOnOutputTargetStart() bool { return r.stop == stopOutputTargetStart }

// EndsOnSeparator reports whether the command ends on any separator.
func (r *Result) EndsOnSeparator() bool { return r.stop != stopNone }

// EndsOnType reports whether the address ends on a node type without a
// name.
func (r *Result) EndsOnType() bool { return r.Address.EndsOnType() }

// IsRequestComplete reports whether the property list has been closed.
func (r *Result) IsRequestComplete() bool { return r.complete }

// EndsOn names the separator the command ends on, or "".
func (r *Result) EndsOn() string { return r.stop.String() }
