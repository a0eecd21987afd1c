package parsing

import "fmt"

// DefaultMaxDepth bounds the number of simultaneously open states.
const DefaultMaxDepth = 64

// Handler receives the events fired while the engine walks the input.
// Returning an error aborts the parse immediately.
type Handler interface {
	Entered(ctx *Context) error
	Character(ctx *Context) error
	Leaving(ctx *Context) error
}

type frame struct {
	state *State
	start int // offset of the character that opened the state
}

// Context is the engine's view of a parse in progress. Handlers read the
// current state, character and offset from it.
type Context struct {
	cursor   *Cursor
	stack    []frame
	strict   bool
	escaped  bool
	maxDepth int
}

// Option configures a parse.
type Option func(*Context)

// WithStrict controls end-of-input handling. Strict parses fail when a
// state declaring Unterminated is still open; lenient parses leave it.
// Parses are strict by default.
func WithStrict(strict bool) Option {
	return func(c *Context) {
		c.strict = strict
	}
}

// WithMaxDepth bounds the state stack depth.
func WithMaxDepth(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// Parse drives input through the grammar rooted at initial, firing events
// on h. The initial state is entered before the first character and left
// after the last one.
func Parse(input string, h Handler, initial *State, opts ...Option) error {
	ctx := &Context{
		cursor:   NewCursor(input),
		strict:   true,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx.run(h, initial)
}

// State returns the innermost open state.
func (c *Context) State() *State {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1].state
}

// Parent returns the state enclosing the current one, or nil.
func (c *Context) Parent() *State {
	if len(c.stack) < 2 {
		return nil
	}
	return c.stack[len(c.stack)-2].state
}

// StateStart returns the offset at which the current state was opened.
func (c *Context) StateStart() int {
	if len(c.stack) == 0 {
		return 0
	}
	return c.stack[len(c.stack)-1].start
}

// Depth returns the number of open states.
func (c *Context) Depth() int { return len(c.stack) }

// Offset returns the byte offset of the current character.
func (c *Context) Offset() int { return c.cursor.Offset() }

// Char returns the current character, or 0 at end of input.
func (c *Context) Char() rune { return c.cursor.Char() }

// AtEnd reports whether the input is exhausted.
func (c *Context) AtEnd() bool { return c.cursor.AtEnd() }

// Escaped reports whether the current character was preceded by '\'.
func (c *Context) Escaped() bool { return c.escaped }

// Strict reports whether the parse fails on unterminated states.
func (c *Context) Strict() bool { return c.strict }

// Input returns the full input.
func (c *Context) Input() string { return c.cursor.Input() }

// Pos converts an offset of the input into a Pos.
func (c *Context) Pos(offset int) Pos { return c.cursor.Pos(offset) }

// Errorf reports a SyntaxError at the current character.
func (c *Context) Errorf(code, format string, args ...any) error {
	err := c.ErrorAt(c.Offset(), code, format, args...)
	if !c.AtEnd() {
		err.Got = string(c.Char())
	}
	return err
}

// ErrorAt reports a SyntaxError at offset.
func (c *Context) ErrorAt(offset int, code, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Pos:     c.cursor.Pos(offset),
	}
}

func (c *Context) run(h Handler, initial *State) error {
	if err := c.push(h, initial); err != nil {
		return err
	}

	// Re-offering actions do not advance; a grammar that keeps re-offering
	// the same character is broken.
	stalls := 0
	for !c.cursor.AtEnd() {
		tr, width := c.State().transition(c.cursor)
		advanced := true

		switch tr.Action {
		case Consume:
			if err := h.Character(c); err != nil {
				return err
			}
			c.cursor.Advance(width)
		case Skip:
			c.cursor.Advance(width)
		case Enter:
			if err := c.push(h, tr.Child); err != nil {
				return err
			}
			c.cursor.Advance(width)
		case Descend:
			if err := c.push(h, tr.Child); err != nil {
				return err
			}
			advanced = false
		case Leave:
			if err := c.pop(h); err != nil {
				return err
			}
			c.cursor.Advance(width)
		case Return:
			if err := c.pop(h); err != nil {
				return err
			}
			advanced = false
		case Escape:
			at := c.Offset()
			c.cursor.Advance(width)
			if c.cursor.AtEnd() {
				if c.strict {
					return c.ErrorAt(at, ErrStructural, "escape character at end of input")
				}
				continue
			}
			c.escaped = true
			err := h.Character(c)
			c.escaped = false
			if err != nil {
				return err
			}
			c.cursor.Next()
		case Fail:
			return c.Errorf(tr.Code, "%s", tr.Message)
		default:
			return c.Errorf(ErrInternal, "state %q: unknown action %s", c.State(), tr.Action)
		}

		if advanced {
			stalls = 0
			continue
		}
		stalls++
		if stalls > 2*c.maxDepth+2 {
			return c.Errorf(ErrInternal, "state %q made no progress", c.State())
		}
	}

	return c.finish(h)
}

// finish leaves the states still open at end of input, innermost first.
func (c *Context) finish(h Handler) error {
	for len(c.stack) > 0 {
		top := c.stack[len(c.stack)-1]
		if c.strict && top.state.Unterminated != "" {
			err := c.ErrorAt(top.start, ErrStructural, "%s", top.state.Unterminated)
			err.Got = "end of input"
			return err
		}
		if err := h.Leaving(c); err != nil {
			return err
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
	return nil
}

func (c *Context) push(h Handler, s *State) error {
	if s == nil {
		return c.Errorf(ErrInternal, "transition without a target state")
	}
	if len(c.stack) >= c.maxDepth {
		return c.Errorf(ErrStructural, "nesting exceeds %d levels", c.maxDepth)
	}
	c.stack = append(c.stack, frame{state: s, start: c.Offset()})
	return h.Entered(c)
}

func (c *Context) pop(h Handler) error {
	if len(c.stack) < 2 {
		return c.Errorf(ErrInternal, "state %q cannot leave the initial state", c.State())
	}
	if err := h.Leaving(c); err != nil {
		return err
	}
	c.stack = c.stack[:len(c.stack)-1]
	return nil
}
