package parsing

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Cursor walks an input string one character at a time. It keeps the
// current byte offset, the decoded character under it, and a table of
// line starts for converting offsets into line/column positions.
type Cursor struct {
	input      string
	offset     int
	ch         rune
	width      int
	lineStarts []int // byte offsets where each line starts
}

// NewCursor creates a cursor positioned on the first character of input.
func NewCursor(input string) *Cursor {
	c := &Cursor{
		input:      input,
		lineStarts: []int{0}, // line 1 starts at offset 0
	}
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			c.lineStarts = append(c.lineStarts, i+1)
		}
	}
	c.seek(0)
	return c
}

// Input returns the full text being walked.
func (c *Cursor) Input() string { return c.input }

// Offset returns the byte offset of the current character.
func (c *Cursor) Offset() int { return c.offset }

// Char returns the current character, or 0 at end of input.
func (c *Cursor) Char() rune { return c.ch }

// Width returns the encoded byte width of the current character.
func (c *Cursor) Width() int { return c.width }

// AtEnd reports whether the cursor has moved past the last character.
func (c *Cursor) AtEnd() bool { return c.offset >= len(c.input) }

// Advance moves the cursor n bytes forward.
func (c *Cursor) Advance(n int) {
	c.seek(c.offset + n)
}

// Next moves the cursor past the current character.
func (c *Cursor) Next() {
	c.seek(c.offset + c.width)
}

// HasPrefix reports whether the input at offset starts with s.
func (c *Cursor) HasPrefix(offset int, s string) bool {
	if offset < 0 || offset > len(c.input) {
		return false
	}
	return strings.HasPrefix(c.input[offset:], s)
}

// Rest returns the input from the current character to the end.
func (c *Cursor) Rest() string {
	if c.AtEnd() {
		return ""
	}
	return c.input[c.offset:]
}

// Pos converts a byte offset into a Pos with line and column.
func (c *Cursor) Pos(offset int) Pos {
	if offset < 0 {
		offset = 0
	}
	// Binary search for the line containing this offset
	line := sort.Search(len(c.lineStarts), func(i int) bool {
		return c.lineStarts[i] > offset
	})
	col := offset - c.lineStarts[line-1] + 1
	return Pos{Offset: offset, Line: line, Column: col}
}

func (c *Cursor) seek(offset int) {
	if offset >= len(c.input) {
		c.offset = len(c.input)
		c.ch = 0
		c.width = 0
		return
	}
	c.offset = offset
	c.ch, c.width = utf8.DecodeRuneInString(c.input[offset:])
}
