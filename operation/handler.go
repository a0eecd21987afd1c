package operation

import (
	"errors"
	"strings"
	"unicode"

	"github.com/relux-works/opline/parsing"
)

// phase is the part of a command the parser has reached. Parts must
// appear in this order.
type phase uint8

const (
	phaseAddress phase = iota
	phaseOperation
	phaseProperties
	phaseHeaders
	phaseOutput
)

// handler receives engine events and fills a Result.
type handler struct {
	r   *Result
	g   *states
	cfg *config

	phase       phase
	addressSeen bool // the address state has been entered
	lastSep     bool // the last address character was '/'
	pendingName bool // a node type was just followed by '='

	// current name token
	tok     strings.Builder
	tokAt   int
	tokLen  int // validated characters, expressions count as one
	nav     bool
	quoted  bool
	negated bool
	gap     bool // whitespace seen inside a property token

	// current property value
	hasValue bool
	value    string
	valueAt  int

	propCount  int
	sepPending bool
}

func (h *handler) Entered(ctx *parsing.Context) error {
	g, r := h.g, h.r
	at := ctx.Offset()

	switch s := ctx.State(); s {
	case g.address:
		if h.phase > phaseAddress {
			return ctx.Errorf(parsing.ErrStructural, "address must precede the operation")
		}
		if h.addressSeen {
			return ctx.Errorf(parsing.ErrStructural, "unexpected whitespace in address")
		}
		h.addressSeen = true

	case g.nodeType:
		h.startToken(at)

	case g.nodeName:
		if !h.pendingName {
			return ctx.Errorf(parsing.ErrStructural, "node name without a node type")
		}
		h.pendingName = false
		r.mark(stopNodeTypeNameSeparator, at+1)
		h.startToken(at + 1)

	case g.quotedName:
		if h.tokLen > 0 || h.quoted {
			return ctx.Errorf(parsing.ErrTokenValidation, "quote inside node name")
		}
		h.quoted = true
		r.mark(stopNone, r.LastChunkIndex)

	case g.expression:
		h.tok.WriteString("${")
		r.mark(stopNone, r.LastChunkIndex)

	case g.operation:
		if h.phase >= phaseOperation {
			return ctx.Errorf(parsing.ErrStructural, "operation name already given")
		}
		h.phase = phaseOperation
		r.mark(stopOperationSeparator, at+1)
		h.startToken(at + 1)

	case g.propertyList:
		if h.phase < phaseOperation {
			return ctx.Errorf(parsing.ErrStructural, "property list without an operation name")
		}
		if h.phase >= phaseProperties {
			return ctx.Errorf(parsing.ErrStructural, "property list already given")
		}
		h.phase = phaseProperties
		r.mark(stopPropertyListStart, at+1)

	case g.property:
		h.startToken(at)
		h.negated = false
		h.gap = false
		h.hasValue = false

	case g.value:
		if h.tokLen == 0 {
			return ctx.Errorf(parsing.ErrStructural, "missing property name")
		}
		if h.negated {
			return ctx.Errorf(parsing.ErrStructural, "negated property %q cannot take a value", h.tok.String())
		}
		h.hasValue = true
		r.mark(stopPropertyValueSeparator, at+1)

	case g.headers:
		if h.phase < phaseOperation {
			return ctx.Errorf(parsing.ErrStructural, "headers without an operation name")
		}
		if h.phase >= phaseHeaders {
			return ctx.Errorf(parsing.ErrStructural, "header list already given")
		}
		h.phase = phaseHeaders
		r.mark(stopHeaderListStart, at+1)

	case g.outputTarget:
		h.phase = phaseOutput
		r.mark(stopOutputTargetStart, at+1)

	default:
		if g.isRegion(s) {
			r.mark(stopNone, r.LastChunkIndex)
		}
	}
	return nil
}

func (h *handler) Character(ctx *parsing.Context) error {
	g, r := h.g, h.r
	c := ctx.Char()
	at := ctx.Offset()

	switch s := ctx.State(); s {
	case g.request:
		// Only whitespace is consumed here.

	case g.address:
		// '/' is the only character the address consumes itself.
		if at == ctx.StateStart() {
			r.Address.Reset()
		} else if h.lastSep {
			return ctx.Errorf(parsing.ErrStructural, "root separator in the middle of a path")
		}
		h.lastSep = true
		r.mark(stopNodeSeparator, at+1)

	case g.quotedName:
		h.tok.WriteRune(c)

	case g.expression:
		h.tok.WriteRune(c)

	case g.propertyList:
		// ','
		if h.propCount == 0 || h.sepPending {
			return ctx.Errorf(parsing.ErrStructural, "empty property")
		}
		h.sepPending = true
		r.mark(stopPropertySeparator, at+1)

	case g.headers:
		switch {
		case c == ';' && !ctx.Escaped():
			r.mark(stopHeaderSeparator, at+1)
		case !unicode.IsSpace(c):
			r.mark(stopNone, r.LastChunkIndex)
		}

	case g.value, g.outputTarget:
		if !unicode.IsSpace(c) {
			r.mark(stopNone, r.LastChunkIndex)
		}

	default:
		if kind, ok := g.kindOf(s); ok {
			return h.tokenChar(ctx, kind)
		}
		if g.isRegion(s) {
			r.mark(stopNone, r.LastChunkIndex)
		}
	}
	return nil
}

// tokenChar validates one character of a name token and appends it.
func (h *handler) tokenChar(ctx *parsing.Context, kind tokenKind) error {
	c := ctx.Char()
	first := h.tokLen == 0

	if kind == tokenProperty {
		if unicode.IsSpace(c) {
			if h.tokLen > 0 || h.negated {
				h.gap = true
			}
			return nil
		}
		if h.gap {
			return ctx.Errorf(parsing.ErrStructural, "unexpected whitespace in property name")
		}
		if c == '!' {
			switch {
			case h.negated && first:
				return ctx.Errorf(parsing.ErrStructural, "'!!' is not allowed")
			case !first:
				return ctx.Errorf(parsing.ErrTokenValidation, "%s", invalidChar(kind, c, first))
			}
			h.negated = true
			h.r.mark(stopNone, ctx.Offset()+1)
			h.tokAt = ctx.Offset() + 1
			return nil
		}
	}
	h.r.mark(stopNone, h.r.LastChunkIndex)

	switch kind {
	case tokenNodeType:
		switch {
		case first && c == '.':
			h.nav = true
		case h.nav:
			if !isNavPrefix(h.tok.String() + string(c)) {
				return ctx.Errorf(parsing.ErrTokenValidation, "invalid navigation token %q", h.tok.String()+string(c))
			}
		case first && !isIdentStart(c), !first && !isIdentChar(c):
			return ctx.Errorf(parsing.ErrTokenValidation, "%s", invalidChar(kind, c, first))
		}

	case tokenNodeName:
		switch {
		case h.quoted:
			return ctx.Errorf(parsing.ErrTokenValidation, "unexpected character after quoted node name")
		case ctx.Escaped():
			if !strings.ContainsRune(`/:=\"`, c) {
				return ctx.Errorf(parsing.ErrTokenValidation, "invalid escape \\%c in node name", c)
			}
		case first && c == '*':
		case h.tok.String() == "*":
			return ctx.Errorf(parsing.ErrTokenValidation, "wildcard node name must stand alone")
		case !isNameChar(c, first):
			return ctx.Errorf(parsing.ErrTokenValidation, "%s", invalidChar(kind, c, first))
		}

	default:
		if first && !isIdentStart(c) || !first && !isIdentChar(c) {
			return ctx.Errorf(parsing.ErrTokenValidation, "%s", invalidChar(kind, c, first))
		}
	}

	h.tok.WriteRune(c)
	h.tokLen++
	return nil
}

func (h *handler) Leaving(ctx *parsing.Context) error {
	g, r := h.g, h.r
	closed := !ctx.AtEnd()

	switch ctx.State() {
	case g.expression:
		if closed {
			h.tok.WriteByte('}')
		}
		if ctx.Parent() != g.expression {
			h.tokLen++
		}

	case g.nodeType:
		return h.commitType(ctx)

	case g.nodeName:
		return h.commitName(ctx)

	case g.operation:
		name := h.tok.String()
		if name == "" {
			if !closed && !ctx.Strict() {
				return nil
			}
			return ctx.Errorf(parsing.ErrStructural, "missing operation name")
		}
		name, err := h.resolveName(ctx, name)
		if err != nil {
			return err
		}
		r.Operation = name

	case g.property:
		return h.commitProperty(ctx)

	case g.value:
		start := ctx.StateStart() + 1
		raw := ctx.Input()[start:ctx.Offset()]
		trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
		h.valueAt = start + len(raw) - len(trimmed)
		h.value = strings.TrimRightFunc(trimmed, unicode.IsSpace)

	case g.propertyList:
		if !closed {
			return nil
		}
		if h.sepPending {
			return ctx.Errorf(parsing.ErrStructural, "property list ends with a separator")
		}
		r.complete = true
		r.mark(stopPropertyListEnd, ctx.Offset()+1)

	case g.headers:
		start := ctx.StateStart() + 1
		end := ctx.Offset()
		raw := ctx.Input()[start:end]
		trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
		r.headersAt = start + len(raw) - len(trimmed)
		r.Headers = strings.TrimRightFunc(trimmed, unicode.IsSpace)
		if closed {
			r.mark(stopHeaderListEnd, end+1)
		}

	case g.outputTarget:
		start := ctx.StateStart() + 1
		target := strings.TrimSpace(ctx.Input()[start:])
		if target == "" && ctx.Strict() {
			return ctx.ErrorAt(start-1, parsing.ErrStructural, "missing output target")
		}
		r.OutputTarget = target
	}
	return nil
}

func (h *handler) startToken(at int) {
	h.tok.Reset()
	h.tokAt = at
	h.tokLen = 0
	h.nav = false
	h.quoted = false
	h.lastSep = false
	h.r.mark(h.r.stop, at)
}

// commitType applies a finished address segment token. A token followed by
// '=' is a node type; otherwise it names a trailing type-only node or, when
// there is none, starts a new one.
func (h *handler) commitType(ctx *parsing.Context) error {
	r := h.r
	tok := h.tok.String()
	named := !ctx.AtEnd() && ctx.Char() == '='

	if h.nav {
		if named {
			return ctx.ErrorAt(h.tokAt, parsing.ErrStructural, "navigation token %q cannot take a name", tok)
		}
		var err error
		switch tok {
		case navSelf:
		case navParent:
			err = r.Address.ToParent()
		case navTypeOnly:
			err = r.Address.ToTypeOnly()
		default:
			if ctx.AtEnd() && !ctx.Strict() {
				return nil
			}
			return ctx.ErrorAt(h.tokAt, parsing.ErrTokenValidation, "invalid navigation token %q", tok)
		}
		if err != nil {
			se := ctx.ErrorAt(h.tokAt, parsing.ErrStructural, "%q: %v", tok, err)
			se.Got = tok
			return se
		}
		return nil
	}

	name, err := h.resolveName(ctx, tok)
	if err != nil {
		return err
	}
	switch {
	case named:
		if err := r.Address.ToNodeType(name); err != nil {
			return ctx.ErrorAt(h.tokAt, parsing.ErrStructural, "node type %q follows a node type without a name", tok)
		}
		h.pendingName = true
	case r.Address.EndsOnType():
		return r.Address.ToNode(name)
	default:
		return r.Address.ToNodeType(name)
	}
	return nil
}

func (h *handler) commitName(ctx *parsing.Context) error {
	tok := h.tok.String()
	if tok == "" && h.quoted {
		return ctx.ErrorAt(h.tokAt, parsing.ErrStructural, "node name cannot be empty")
	}
	if tok == "" {
		if ctx.AtEnd() && !ctx.Strict() {
			return nil
		}
		return ctx.Errorf(parsing.ErrStructural, "missing node name")
	}
	name := tok
	if !h.quoted {
		var err error
		if name, err = h.resolveName(ctx, tok); err != nil {
			return err
		}
	}
	if err := h.r.Address.ToNode(name); err != nil {
		return ctx.ErrorAt(h.tokAt, parsing.ErrInternal, "%v", err)
	}
	return nil
}

func (h *handler) commitProperty(ctx *parsing.Context) error {
	tok := h.tok.String()
	if tok == "" {
		if h.negated && (!ctx.AtEnd() || ctx.Strict()) {
			return ctx.Errorf(parsing.ErrStructural, "missing property name")
		}
		return nil
	}
	name, err := h.resolveName(ctx, tok)
	if err != nil {
		return err
	}
	switch {
	case h.hasValue:
		h.r.setProperty(name, h.value, h.valueAt)
	case h.negated:
		h.r.setProperty(name, "false", -1)
	default:
		h.r.setProperty(name, "true", -1)
	}
	h.propCount++
	h.sepPending = false
	return nil
}

// resolveName substitutes expressions in a name token when name resolution
// is on.
func (h *handler) resolveName(ctx *parsing.Context, tok string) (string, error) {
	if !h.cfg.resolveNames || !strings.Contains(tok, "${") {
		return tok, nil
	}
	out, err := h.cfg.resolver.Resolve(tok)
	if err != nil {
		var se *parsing.SyntaxError
		if errors.As(err, &se) {
			return "", se.Shift(h.tokAt, ctx.Input())
		}
		return "", err
	}
	return out, nil
}
