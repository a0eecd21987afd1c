package parsing

import (
	"errors"
	"fmt"
	"testing"
	"unicode"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Handler that logs every event as a compact string.
type recorder struct {
	events []string
	failOn rune
}

func (r *recorder) Entered(ctx *Context) error {
	r.events = append(r.events, fmt.Sprintf("enter %s@%d", ctx.State(), ctx.Offset()))
	return nil
}

func (r *recorder) Character(ctx *Context) error {
	if r.failOn != 0 && ctx.Char() == r.failOn {
		return ctx.Errorf(ErrTokenValidation, "handler rejected %q", ctx.Char())
	}
	prefix := ""
	if ctx.Escaped() {
		prefix = `\`
	}
	r.events = append(r.events, fmt.Sprintf("%s:%s%c", ctx.State(), prefix, ctx.Char()))
	return nil
}

func (r *recorder) Leaving(ctx *Context) error {
	at := "end"
	if !ctx.AtEnd() {
		at = fmt.Sprintf("%d", ctx.Offset())
	}
	r.events = append(r.events, fmt.Sprintf("leave %s@%s", ctx.State(), at))
	return nil
}

// testGrammar: root holds words and (groups); groups nest and must close;
// "${" opens an expression closed by "}"; "!" is illegal.
func testGrammar() *State {
	root := NewState("root")
	group := NewState("group")
	group.Unterminated = "unclosed group"
	word := NewState("word")
	expr := NewState("expr")
	expr.Unterminated = "unclosed expression"

	word.Rules = []Rule{
		OnClass(func(r rune) bool { return !unicode.IsLetter(r) }, Yield()),
	}
	expr.Rules = []Rule{
		On("}", Pop()),
	}
	group.Rules = []Rule{
		On(")", Pop()),
		On("(", Push(group)),
		OnClass(unicode.IsSpace, Ignore()),
		OnClass(unicode.IsLetter, Delegate(word)),
	}
	root.Rules = []Rule{
		On("$", Push(expr)).Followed("{"),
		On("(", Push(group)),
		On("\\", EscapeNext()),
		On("!", Reject(ErrTokenValidation, "bang is not allowed")),
		OnClass(unicode.IsSpace, Ignore()),
	}
	return root
}

func TestParse_Events(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "flat characters",
			input: "ab",
			want:  []string{"enter root@0", "root:a", "root:b", "leave root@end"},
		},
		{
			name:  "group consumes delimiters",
			input: "a(b)c",
			want: []string{
				"enter root@0", "root:a",
				"enter group@1",
				"enter word@2", "word:b", "leave word@3",
				"leave group@3",
				"root:c",
				"leave root@end",
			},
		},
		{
			name:  "nested groups",
			input: "((x))",
			want: []string{
				"enter root@0",
				"enter group@0",
				"enter group@1",
				"enter word@2", "word:x", "leave word@3",
				"leave group@3",
				"leave group@4",
				"leave root@end",
			},
		},
		{
			name:  "whitespace skipped",
			input: " a ( b ) ",
			want: []string{
				"enter root@0", "root:a",
				"enter group@3",
				"enter word@5", "word:b", "leave word@6",
				"leave group@7",
				"leave root@end",
			},
		},
		{
			name:  "escape deactivates structural character",
			input: `a\(b`,
			want:  []string{"enter root@0", "root:a", `root:\(`, "root:b", "leave root@end"},
		},
		{
			name:  "lookahead consumed with trigger",
			input: "a${b}c",
			want: []string{
				"enter root@0", "root:a",
				"enter expr@1", "expr:b", "leave expr@4",
				"root:c",
				"leave root@end",
			},
		},
		{
			name:  "dollar without brace is ordinary",
			input: "$a",
			want:  []string{"enter root@0", "root:$", "root:a", "leave root@end"},
		},
		{
			name:  "empty input enters and leaves root",
			input: "",
			want:  []string{"enter root@0", "leave root@end"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			err := Parse(tt.input, rec, testGrammar())
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, rec.events); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_ReturnReoffersCharacter(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, Parse("(ab)", rec, testGrammar()))

	// The ')' that ends the word must still close the group.
	want := []string{
		"enter root@0",
		"enter group@0",
		"enter word@1", "word:a", "word:b", "leave word@3",
		"leave group@3",
		"leave root@end",
	}
	assert.Equal(t, want, rec.events)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     []Option
		wantCode string
		wantOff  int
		wantMsg  string
	}{
		{
			name:     "unterminated group strict",
			input:    "a(b",
			wantCode: ErrStructural,
			wantOff:  1,
			wantMsg:  "unclosed group",
		},
		{
			name:     "innermost unterminated state reported",
			input:    "(a(b",
			wantCode: ErrStructural,
			wantOff:  2,
			wantMsg:  "unclosed group",
		},
		{
			name:     "unterminated expression",
			input:    "${abc",
			wantCode: ErrStructural,
			wantOff:  0,
			wantMsg:  "unclosed expression",
		},
		{
			name:     "rejected character",
			input:    "ab!",
			wantCode: ErrTokenValidation,
			wantOff:  2,
			wantMsg:  "bang is not allowed",
		},
		{
			name:     "escape at end strict",
			input:    `ab\`,
			wantCode: ErrStructural,
			wantOff:  2,
			wantMsg:  "escape character at end of input",
		},
		{
			name:     "max depth",
			input:    "((((",
			opts:     []Option{WithMaxDepth(3)},
			wantCode: ErrStructural,
			wantOff:  2,
			wantMsg:  "nesting exceeds 3 levels",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Parse(tt.input, &recorder{}, testGrammar(), tt.opts...)
			require.Error(t, err)

			var se *SyntaxError
			require.True(t, errors.As(err, &se), "expected *SyntaxError, got %T", err)
			assert.Equal(t, tt.wantCode, se.Code)
			assert.Equal(t, tt.wantOff, se.Offset())
			assert.Contains(t, se.Error(), tt.wantMsg)
		})
	}
}

func TestParse_LenientLeavesOpenStates(t *testing.T) {
	rec := &recorder{}
	err := Parse("a(b", rec, testGrammar(), WithStrict(false))
	require.NoError(t, err)

	want := []string{
		"enter root@0", "root:a",
		"enter group@1",
		"enter word@2", "word:b",
		"leave word@end", "leave group@end", "leave root@end",
	}
	assert.Equal(t, want, rec.events)
}

func TestParse_LenientDanglingEscape(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, Parse(`a\`, rec, testGrammar(), WithStrict(false)))
	assert.Equal(t, []string{"enter root@0", "root:a", "leave root@end"}, rec.events)
}

func TestParse_HandlerErrorAborts(t *testing.T) {
	rec := &recorder{failOn: 'x'}
	err := Parse("abxcd", rec, testGrammar())
	require.Error(t, err)
	assert.Equal(t, ErrTokenValidation, CodeOf(err))
	// Nothing after the failing character is seen.
	assert.Equal(t, []string{"enter root@0", "root:a", "root:b"}, rec.events)
}

func TestParse_StallGuard(t *testing.T) {
	// A child that yields on the very character its parent delegates on
	// would spin forever without the guard.
	root := NewState("root")
	child := NewState("child")
	child.Rules = []Rule{On("x", Yield())}
	root.Rules = []Rule{On("x", Delegate(child))}

	err := Parse("x", &recorder{}, root)
	require.Error(t, err)
	assert.Equal(t, ErrInternal, CodeOf(err))
}

func TestParse_ReturnFromRootIsInternalError(t *testing.T) {
	root := NewState("root")
	root.Rules = []Rule{On("x", Yield())}

	err := Parse("x", &recorder{}, root)
	assert.Equal(t, ErrInternal, CodeOf(err))
}

func TestContext_Accessors(t *testing.T) {
	var seen []string
	h := handlerFuncs{
		entered: func(ctx *Context) error {
			if ctx.State().Name == "group" {
				seen = append(seen, fmt.Sprintf("parent=%s depth=%d start=%d", ctx.Parent(), ctx.Depth(), ctx.StateStart()))
			}
			return nil
		},
	}
	require.NoError(t, Parse("ab(c)", h, testGrammar()))
	assert.Equal(t, []string{"parent=root depth=2 start=2"}, seen)
}

type handlerFuncs struct {
	entered func(*Context) error
}

func (h handlerFuncs) Entered(ctx *Context) error {
	if h.entered != nil {
		return h.entered(ctx)
	}
	return nil
}
func (h handlerFuncs) Character(*Context) error { return nil }
func (h handlerFuncs) Leaving(*Context) error   { return nil }

func TestAction_String(t *testing.T) {
	assert.Equal(t, "descend", Descend.String())
	assert.Equal(t, "unknown", Action(200).String())
}

func FuzzParse(f *testing.F) {
	f.Add("a(b)c")
	f.Add("((x))")
	f.Add(`a\(b`)
	f.Add("${a}")
	f.Add("(((")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		// Must not panic in either mode.
		_ = Parse(input, &recorder{}, testGrammar())
		_ = Parse(input, &recorder{}, testGrammar(), WithStrict(false))
	})
}
