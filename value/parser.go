package value

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/relux-works/opline/parsing"
)

// DefaultMaxDepth bounds the nesting of lists and objects.
const DefaultMaxDepth = 32

// Stage selects when ${...} expressions in a value are resolved.
type Stage uint8

const (
	StageNone   Stage = iota // keep expressions as written
	StageBefore              // resolve the whole text, then type it
	StageLeaves              // type the text, then resolve each string leaf
)

// String returns the stage name used in configuration files.
func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageBefore:
		return "before"
	case StageLeaves:
		return "leaves"
	default:
		return "unknown"
	}
}

// ParseStage converts a stage name back into a Stage.
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return StageNone, nil
	case "before":
		return StageBefore, nil
	case "leaves":
		return StageLeaves, nil
	default:
		return 0, fmt.Errorf("unknown expression stage %q: use \"none\", \"before\", or \"leaves\"", s)
	}
}

// ResolveFunc substitutes expressions in one string.
type ResolveFunc func(string) (string, error)

// Option configures Parse.
type Option func(*parser)

// WithMaxDepth bounds the nesting of lists and objects.
func WithMaxDepth(n int) Option {
	return func(p *parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithResolver sets the function applied to expressions and the stage at
// which it runs. A nil resolve or StageNone disables resolution.
func WithResolver(resolve ResolveFunc, stage Stage) Option {
	return func(p *parser) {
		p.resolve = resolve
		p.stage = stage
	}
}

type parser struct {
	input    string
	maxDepth int
	resolve  ResolveFunc
	stage    Stage
}

// Parse types one raw argument value. The form is detected from the text:
//
//	[a,b]            List
//	[a=1,(b=>2)]     PropertyList
//	{a=1,b=>2}       Object
//	a=1,b=[x,y]      Object
//	a,b              List of strings
//	bytes{1,-2,0x7f} Bytes
//
// Everything else, including braces whose entries are not all name=value,
// is a String. Errors are *parsing.SyntaxError values positioned in text.
func Parse(text string, opts ...Option) (Value, error) {
	p := &parser{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	if p.resolve == nil {
		p.stage = StageNone
	}
	if p.stage == StageBefore {
		resolved, err := p.resolve(text)
		if err != nil {
			return nil, err
		}
		text = resolved
	}
	p.input = text
	if err := p.balanced(); err != nil {
		return nil, err
	}
	return p.value(text, 0, 0)
}

// balanced rejects unterminated quotes, unclosed brackets and a trailing
// escape before any typing happens.
func (p *parser) balanced() error {
	var t parsing.Tracker
	for i, r := range p.input {
		t.Step(i, r)
	}
	if t.Balanced() {
		return nil
	}
	at, closer, ok := t.Unclosed()
	if !ok {
		return p.errorf(len(p.input)-1, parsing.ErrStructural, "escape character at end of value")
	}
	if closer == '"' {
		err := p.errorf(at, parsing.ErrStructural, "unterminated quoted string")
		err.Got = p.input[at:]
		return err
	}
	err := p.errorf(at, parsing.ErrStructural, "unclosed %q", p.input[at])
	err.Expected = fmt.Sprintf("%q", closer)
	return err
}

func (p *parser) value(s string, base, depth int) (Value, error) {
	if depth > p.maxDepth {
		return nil, p.errorf(base, parsing.ErrStructural, "value nesting exceeds %d levels", p.maxDepth)
	}
	s, base = trim(s, base)
	if s == "" {
		return String(""), nil
	}

	if rest, ok := strings.CutPrefix(s, "bytes"); ok && strings.HasPrefix(rest, "{") {
		if end := parsing.MatchingCloser(rest); end == len(rest)-1 {
			return p.bytes(rest[1:end], base+len("bytes{"))
		}
	}

	switch s[0] {
	case '[':
		if parsing.MatchingCloser(s) == len(s)-1 {
			return p.list(s[1:len(s)-1], base+1, depth)
		}
	case '{':
		if parsing.MatchingCloser(s) == len(s)-1 {
			return p.object(s, base, depth)
		}
	}
	return p.unbracketed(s, base, depth)
}

// list types the inside of [...]: a PropertyList when every element is a
// property, a List otherwise.
func (p *parser) list(inner string, base, depth int) (Value, error) {
	if strings.TrimSpace(inner) == "" {
		return List{}, nil
	}
	segs := parsing.SplitTop(inner, ',')
	props := make([]property, 0, len(segs))
	for _, seg := range segs {
		elem, off := trim(seg.Text, base+seg.Offset)
		if elem == "" {
			return nil, p.errorf(off, parsing.ErrStructural, "empty list element")
		}
		if prop, ok := p.property(elem, off, true); ok {
			props = append(props, prop)
		}
	}

	if len(props) == len(segs) {
		out := make(PropertyList, 0, len(props))
		for _, prop := range props {
			v, err := p.value(prop.text, prop.at, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, Property{Name: prop.name, Value: v})
		}
		return out, nil
	}

	out := make(List, 0, len(segs))
	for _, seg := range segs {
		v, err := p.value(seg.Text, base+seg.Offset, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// object types {...}. Braces whose entries are not all properties are kept
// as an opaque string.
func (p *parser) object(s string, base, depth int) (Value, error) {
	inner := s[1 : len(s)-1]
	if strings.TrimSpace(inner) == "" {
		return NewObject(), nil
	}
	props, ok := p.properties(inner, base+1)
	if !ok {
		return p.str(s, base)
	}
	return p.build(props, depth)
}

// unbracketed types comma-separated text with no enclosing brackets.
func (p *parser) unbracketed(s string, base, depth int) (Value, error) {
	segs := parsing.SplitTop(s, ',')
	if props, ok := p.properties(s, base); ok {
		return p.build(props, depth)
	}
	if len(segs) == 1 {
		return p.str(s, base)
	}

	for _, seg := range segs {
		elem, off := trim(seg.Text, base+seg.Offset)
		if elem == "" {
			return p.str(s, base)
		}
		if _, ok := p.property(elem, off, false); ok {
			return p.str(s, base)
		}
	}
	out := make(List, 0, len(segs))
	for _, seg := range segs {
		elem, off := trim(seg.Text, base+seg.Offset)
		v, err := p.str(elem, off)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// properties splits s on top-level commas and reports whether every
// segment is a name=value or name=>value property.
func (p *parser) properties(s string, base int) ([]property, bool) {
	segs := parsing.SplitTop(s, ',')
	props := make([]property, 0, len(segs))
	for _, seg := range segs {
		elem, off := trim(seg.Text, base+seg.Offset)
		prop, ok := p.property(elem, off, false)
		if !ok {
			return nil, false
		}
		props = append(props, prop)
	}
	return props, true
}

func (p *parser) build(props []property, depth int) (Value, error) {
	obj := NewObject()
	for _, prop := range props {
		v, err := p.value(prop.text, prop.at, depth+1)
		if err != nil {
			return nil, err
		}
		obj.Set(prop.name, v)
	}
	return obj, nil
}

// property is a name=value element found in the text; text and at locate
// the raw value.
type property struct {
	name string
	text string
	at   int
}

// property matches name=value, name=>value and, when parens is set,
// (name=>value). The '=' must sit outside brackets, quotes and escapes.
func (p *parser) property(elem string, base int, parens bool) (property, bool) {
	if parens && elem[0] == '(' && parsing.MatchingCloser(elem) == len(elem)-1 {
		inner, off := trim(elem[1:len(elem)-1], base+1)
		if inner == "" {
			return property{}, false
		}
		return p.property(inner, off, false)
	}

	var t parsing.Tracker
	eq := -1
	for i, r := range elem {
		if t.Step(i, r).Top() && r == '=' {
			eq = i
			break
		}
	}
	if eq <= 0 {
		return property{}, false
	}
	name, ok := key(strings.TrimRightFunc(elem[:eq], unicode.IsSpace))
	if !ok {
		return property{}, false
	}
	start := eq + 1
	if strings.HasPrefix(elem[start:], ">") {
		start++
	}
	return property{name: name, text: elem[start:], at: base + start}, true
}

// key validates a property name: a quoted string, or letters, digits and
// "_.-". Inside quotes only \" and \\ are escapes.
func key(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return unquoteKey(s[1 : len(s)-1])
	}
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if !isKeyChar(r) {
			return "", false
		}
	}
	return s, true
}

func unquoteKey(s string) (string, bool) {
	if !strings.ContainsAny(s, `"\`) {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			return "", false
		case '\\':
			if i+1 == len(s) || (s[i+1] != '"' && s[i+1] != '\\') {
				return "", false
			}
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String(), true
}

func isKeyChar(r rune) bool {
	return r == '_' || r == '.' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// str builds a String: quotes at the outer level are removed, escapes are
// decoded, and bracketed regions are copied verbatim.
func (p *parser) str(s string, base int) (Value, error) {
	var b strings.Builder
	depth := 0
	quoted := false
	for i := 0; i < len(s); {
		r, w := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '\\':
			if i+w >= len(s) {
				return nil, p.errorf(base+i, parsing.ErrStructural, "escape character at end of value")
			}
			n, nw := utf8.DecodeRuneInString(s[i+w:])
			if depth > 0 {
				b.WriteString(s[i : i+w+nw])
			} else if err := p.unescape(&b, n, base+i); err != nil {
				return nil, err
			}
			i += w + nw
			continue
		case r == '"':
			quoted = !quoted
			if depth > 0 {
				b.WriteRune(r)
			}
		case quoted:
			b.WriteRune(r)
		case parsing.Closer(r) != 0:
			depth++
			b.WriteRune(r)
		case depth > 0 && strings.ContainsRune("}])", r):
			depth--
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		i += w
	}
	out := b.String()
	if p.stage == StageLeaves {
		resolved, err := p.resolve(out)
		if err != nil {
			return nil, p.anchor(err, base)
		}
		out = resolved
	}
	return String(out), nil
}

// unescape writes the character an escape sequence stands for.
func (p *parser) unescape(b *strings.Builder, r rune, at int) error {
	switch r {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'b':
		b.WriteByte('\b')
	case 'r':
		b.WriteByte('\r')
	case 'f':
		b.WriteByte('\f')
	case '\\', '"':
		b.WriteRune(r)
	case '$':
		// A doubled '$' keeps the resolver from reading "${" as an
		// expression.
		if p.stage == StageLeaves {
			b.WriteString("$$")
		} else {
			b.WriteByte('$')
		}
	case '[', ']', '{', '}', '(', ')', '=', ',', ':':
		b.WriteRune(r)
	default:
		err := p.errorf(at, parsing.ErrTokenValidation, "invalid escape sequence \\%c", r)
		err.Got = `\` + string(r)
		err.Expected = `one of \n \t \b \r \f \\ \" or an escaped structural character`
		return err
	}
	return nil
}

func (p *parser) bytes(inner string, base int) (Value, error) {
	if strings.TrimSpace(inner) == "" {
		return Bytes{}, nil
	}
	segs := parsing.SplitTop(inner, ',')
	out := make(Bytes, 0, len(segs))
	for _, seg := range segs {
		entry, off := trim(seg.Text, base+seg.Offset)
		b, err := parseByte(entry)
		if err != nil {
			se := p.errorf(off, parsing.ErrValueRange, "%s", err)
			se.Got = entry
			return nil, se
		}
		out = append(out, b)
	}
	return out, nil
}

// anchor moves an error reported against a string leaf to the leaf's
// offset in the input.
func (p *parser) anchor(err error, base int) error {
	if se, ok := err.(*parsing.SyntaxError); ok {
		return se.Shift(base, p.input)
	}
	return err
}

func (p *parser) errorf(offset int, code, format string, args ...any) *parsing.SyntaxError {
	return parsing.Errorf(p.input, offset, code, format, args...)
}

// trim strips surrounding whitespace from s and moves base along with it.
func trim(s string, base int) (string, int) {
	t := strings.TrimLeftFunc(s, unicode.IsSpace)
	base += len(s) - len(t)
	return strings.TrimRightFunc(t, unicode.IsSpace), base
}
