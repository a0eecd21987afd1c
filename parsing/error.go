package parsing

import (
	"errors"
	"fmt"
)

// Error code constants for categorizing syntax errors.
const (
	ErrStructural      = "STRUCTURAL_ERROR"       // unbalanced quotes/brackets, misplaced separators, "..", "!!"
	ErrTokenValidation = "TOKEN_VALIDATION_ERROR" // illegal character in a name token or escape
	ErrValueRange      = "VALUE_RANGE_ERROR"      // bytes literal out of range or malformed
	ErrResolution      = "RESOLUTION_ERROR"       // unresolved expression or runaway recursion
	ErrInternal        = "INTERNAL_ERROR"         // state machine invariant broken
)

// SyntaxError represents a positional failure found while parsing a line,
// an argument value, or an expression.
type SyntaxError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Pos      Pos    `json:"pos"`
	Got      string `json:"got,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// Error implements the error interface for SyntaxError.
func (e *SyntaxError) Error() string {
	if e.Got != "" && e.Expected != "" {
		return fmt.Sprintf("syntax error at %d:%d: %s (got %q, expected %s)",
			e.Pos.Line, e.Pos.Column, e.Message, e.Got, e.Expected)
	}
	if e.Got != "" {
		return fmt.Sprintf("syntax error at %d:%d: %s (got %q)",
			e.Pos.Line, e.Pos.Column, e.Message, e.Got)
	}
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Offset returns the byte offset of the offending character.
func (e *SyntaxError) Offset() int {
	return e.Pos.Offset
}

// Shift returns a copy of the error moved delta bytes to the right and
// re-anchored against input, which must contain the text the error was
// originally reported against at that delta.
func (e *SyntaxError) Shift(delta int, input string) *SyntaxError {
	cp := *e
	cp.Pos = NewCursor(input).Pos(e.Pos.Offset + delta)
	return &cp
}

// Errorf builds a SyntaxError for code at offset within input.
func Errorf(input string, offset int, code, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Pos:     NewCursor(input).Pos(offset),
	}
}

// CodeOf returns the code of the SyntaxError in err's chain, or "" when
// err carries none.
func CodeOf(err error) string {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
