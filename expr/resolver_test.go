package expr

import (
	"errors"
	"testing"

	"github.com/relux-works/opline/parsing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver(opts ...Option) *Resolver {
	vars := MapLookup{
		"test.op-name": "test-op",
		"host":         "localhost",
		"port":         "9990",
		"url":          "${host}:${port}",
		"which":        "host",
		"loop":         "${loop}",
		"empty":        "",
	}
	opts = append([]Option{WithSeparators("/", ":")}, opts...)
	return New(vars, opts...)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "read-resource", want: "read-resource"},
		{name: "single name", input: "${host}", want: "localhost"},
		{name: "embedded", input: "http://${host}:${port}/", want: "http://localhost:9990/"},
		{name: "default unused", input: "${host:other}", want: "localhost"},
		{name: "default used", input: "${missing:fallback}", want: "fallback"},
		{name: "empty default", input: "${missing:}", want: ""},
		{name: "expression default", input: "${unknown:${test.op-name}}", want: "test-op"},
		{name: "alternatives", input: "${nope,port}", want: "9990"},
		{name: "alternatives with default", input: "${nope,nada:x}", want: "x"},
		{name: "recursive value", input: "${url}", want: "localhost:9990"},
		{name: "nested name", input: "${${which}}", want: "localhost"},
		{name: "empty value", input: "[${empty}]", want: "[]"},
		{name: "double dollar", input: "$$", want: "$"},
		{name: "double dollar suppresses expression", input: "$${host}", want: "${host}"},
		{name: "lone dollar", input: "cost $5", want: "cost $5"},
		{name: "trailing dollar", input: "a$", want: "a$"},
		{name: "path separator", input: "a${/}b", want: "a/b"},
		{name: "list separator", input: "a${:}b", want: "a:b"},
	}
	r := testResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode string
		wantOff  int
	}{
		{name: "unknown name", input: "x=${nope}", wantCode: parsing.ErrResolution, wantOff: 2},
		{name: "unknown alternatives", input: "${a,b}", wantCode: parsing.ErrResolution, wantOff: 0},
		{name: "unknown inside default", input: "${a:${b}}", wantCode: parsing.ErrResolution, wantOff: 4},
		{name: "unclosed", input: "ok ${host", wantCode: parsing.ErrStructural, wantOff: 3},
		{name: "runaway recursion", input: "go ${loop}", wantCode: parsing.ErrResolution, wantOff: 3},
	}
	r := testResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.input)
			require.Error(t, err)
			var se *parsing.SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantCode, se.Code)
			assert.Equal(t, tt.wantOff, se.Offset())
		})
	}
}

func TestResolveLax(t *testing.T) {
	r := testResolver()

	got, err := r.ResolveLax("${host}/${nope}/${missing:d}")
	require.NoError(t, err)
	assert.Equal(t, "localhost/${nope}/d", got)

	got, err = r.ResolveLax("open ${host")
	require.NoError(t, err)
	assert.Equal(t, "open ${host", got)

	_, err = r.ResolveLax("${loop}")
	assert.Equal(t, parsing.ErrResolution, parsing.CodeOf(err))
}

func TestResolveOrOriginal(t *testing.T) {
	r := testResolver()
	assert.Equal(t, "localhost", r.ResolveOrOriginal("${host}"))
	assert.Equal(t, "${host}/${nope}", r.ResolveOrOriginal("${host}/${nope}"))
}

func TestResolve_Idempotent(t *testing.T) {
	r := testResolver()
	for _, in := range []string{"${url}", "a${/}b", "${missing:x}", "plain"} {
		once, err := r.Resolve(in)
		require.NoError(t, err)
		twice, err := r.Resolve(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestResolve_MaxDepth(t *testing.T) {
	vars := MapLookup{"a": "${b}", "b": "${c}", "c": "done"}

	got, err := New(vars).Resolve("${a}")
	require.NoError(t, err)
	assert.Equal(t, "done", got)

	_, err = New(vars, WithMaxDepth(1)).Resolve("${a}")
	assert.Equal(t, parsing.ErrResolution, parsing.CodeOf(err))
}

func TestNew_NilLookup(t *testing.T) {
	r := New(nil)
	got, err := r.Resolve("${x:y}")
	require.NoError(t, err)
	assert.Equal(t, "y", got)
}

func TestContainsExpression(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"${a}", true},
		{"x${a:b}y", true},
		{"$${a}", false},
		{"$${a}${b}", true},
		{"${a", false},
		{"$a", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsExpression(tt.input), "ContainsExpression(%q)", tt.input)
	}
}

func FuzzResolveLax(f *testing.F) {
	f.Add("${a:${b}}")
	f.Add("$${x}")
	f.Add("${${${")
	f.Add("}}${")

	r := New(MapLookup{"a": "${a}", "b": "1"})
	f.Fuzz(func(t *testing.T, input string) {
		_, _ = r.ResolveLax(input)
		_ = r.ResolveOrOriginal(input)
	})
}
