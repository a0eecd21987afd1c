// Package expr resolves ${name} and ${name:default} expressions against a
// caller-supplied Lookup.
//
// Supported forms:
//
//	${name}             value of name
//	${name:default}     value of name, or default when name is unknown
//	${a,b:default}      first known of a and b, or default
//	${${inner}}         name computed from another expression
//	${env.HOME}         environment variable, through the Env lookup
//	${/} ${:}           path and path-list separators
//	$$                  a literal '$'; "$${x}" yields "${x}"
//
// Resolved values are resolved again until no expression remains, up to a
// fixed depth.
package expr

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/relux-works/opline/parsing"
)

// DefaultMaxDepth bounds nested and recursive resolution.
const DefaultMaxDepth = 32

// Resolver substitutes expressions in strings. It holds no mutable state and
// may be shared between goroutines when its Lookup may.
type Resolver struct {
	lookup   Lookup
	maxDepth int
	pathSep  string
	listSep  string
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth bounds how many levels of nested or recursive expressions
// are followed before resolution fails.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithSeparators overrides the values of ${/} and ${:}.
func WithSeparators(path, list string) Option {
	return func(r *Resolver) {
		r.pathSep = path
		r.listSep = list
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver answering names from lookup. A nil lookup knows no
// names.
func New(lookup Lookup, opts ...Option) *Resolver {
	if lookup == nil {
		lookup = MapLookup(nil)
	}
	r := &Resolver{
		lookup:   lookup,
		maxDepth: DefaultMaxDepth,
		pathSep:  string(os.PathSeparator),
		listSep:  string(os.PathListSeparator),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve substitutes every expression in s. An unknown name without a
// default, an unclosed "${", or runaway recursion fails with a
// *parsing.SyntaxError positioned in s.
func (r *Resolver) Resolve(s string) (string, error) {
	p := &pass{r: r, input: s, strict: true}
	return p.expand(s, 0, false, 0)
}

// ResolveLax substitutes the expressions it can and leaves unknown ones and
// unclosed "${" untouched. It fails only on runaway recursion.
func (r *Resolver) ResolveLax(s string) (string, error) {
	p := &pass{r: r, input: s}
	return p.expand(s, 0, false, 0)
}

// ResolveOrOriginal returns the fully resolved s, or s itself when any
// expression cannot be resolved.
func (r *Resolver) ResolveOrOriginal(s string) string {
	out, err := r.Resolve(s)
	if err != nil {
		r.logger.Debug("expression kept as written", "input", s, "error", err)
		return s
	}
	return out
}

// ContainsExpression reports whether s holds at least one complete ${...}
// expression that resolution would substitute.
func ContainsExpression(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 >= len(s) {
			continue
		}
		switch s[i+1] {
		case '$':
			i++
			if i+1 < len(s) && s[i+1] == '{' {
				end := closingBrace(s, i+1)
				if end < 0 {
					return false
				}
				i = end
			}
		case '{':
			if closingBrace(s, i+1) >= 0 {
				return true
			}
		}
	}
	return false
}

// pass is one call to Resolve or ResolveLax. Errors are reported against
// input, the text the caller passed in.
type pass struct {
	r      *Resolver
	input  string
	strict bool
}

// expand resolves s, which sits at offset base of the input. When pinned
// is set, s came out of a lookup and every error is reported at base.
func (p *pass) expand(s string, base int, pinned bool, depth int) (string, error) {
	at := func(local int) int {
		if pinned {
			return base
		}
		return base + local
	}
	if depth > p.r.maxDepth {
		return "", parsing.Errorf(p.input, at(0), parsing.ErrResolution,
			"expression nesting exceeds %d levels", p.r.maxDepth)
	}
	if !strings.Contains(s, "$") {
		return s, nil
	}

	var b strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '$' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}

		switch s[i+1] {
		case '$':
			b.WriteByte('$')
			i += 2
			if i < len(s) && s[i] == '{' {
				end := closingBrace(s, i)
				if end < 0 {
					b.WriteString(s[i:])
					return b.String(), nil
				}
				b.WriteString(s[i : end+1])
				i = end + 1
			}
		case '{':
			end := closingBrace(s, i+1)
			if end < 0 {
				if p.strict {
					err := parsing.Errorf(p.input, at(i), parsing.ErrStructural, "unclosed expression")
					err.Got = s[i:]
					err.Expected = `"}"`
					return "", err
				}
				b.WriteString(s[i:])
				return b.String(), nil
			}
			val, ok, err := p.evaluate(s[i+2:end], base, pinned, i+2, depth)
			if err != nil {
				return "", err
			}
			if !ok {
				ref := s[i : end+1]
				if p.strict {
					err := parsing.Errorf(p.input, at(i), parsing.ErrResolution, "unresolved expression %s", ref)
					err.Got = ref
					return "", err
				}
				p.r.logger.Debug("expression left unresolved", "expression", ref)
				val = ref
			}
			b.WriteString(val)
			i = end + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// evaluate resolves the body of one ${...} found at local offset off of
// the enclosing text. ok is false when no name matched and no default is
// given.
func (p *pass) evaluate(body string, base int, pinned bool, off, depth int) (string, bool, error) {
	switch body {
	case "/":
		return p.r.pathSep, true, nil
	case ":":
		return p.r.listSep, true, nil
	}

	names, def, hasDefault := cutDefault(body)

	if strings.Contains(names, "${") {
		inner, err := p.expand(names, base+off, pinned, depth+1)
		if err != nil {
			return "", false, err
		}
		names = inner
	}

	for _, name := range strings.Split(names, ",") {
		v, ok := p.r.lookup.Lookup(name)
		if !ok {
			continue
		}
		refAt := base + off - 2
		if pinned {
			refAt = base
		}
		out, err := p.expand(v, refAt, true, depth+1)
		return out, err == nil, err
	}

	if !hasDefault {
		return "", false, nil
	}
	defOff := off + len(body) - len(def)
	out, err := p.expand(def, base+defOff, pinned, depth+1)
	return out, err == nil, err
}

// cutDefault splits an expression body at its first ':' outside nested
// expressions.
func cutDefault(body string) (names, def string, ok bool) {
	depth := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 {
				return body[:i], body[i+1:], true
			}
		}
	}
	return body, "", false
}

// closingBrace returns the index of the '}' matching the '{' at open, or -1.
func closingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
