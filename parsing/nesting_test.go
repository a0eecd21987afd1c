package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Step(t *testing.T) {
	var tr Tracker
	input := `a{b"c}"\[d]}`
	var marks []Mark
	for i, r := range input {
		marks = append(marks, tr.Step(i, r))
	}

	want := []Mark{
		{Depth: 0, Active: true},  // a
		{Depth: 0, Active: true},  // {
		{Depth: 1, Active: true},  // b
		{Depth: 1, Active: false}, // "
		{Depth: 1, Active: false}, // c
		{Depth: 1, Active: false}, // } quoted
		{Depth: 1, Active: false}, // "
		{Depth: 1, Active: false}, // \
		{Depth: 1, Active: false}, // [ escaped
		{Depth: 1, Active: true},  // d
		{Depth: 1, Active: true},  // ] does not match {
		{Depth: 0, Active: true},  // }
	}
	assert.Equal(t, want, marks)
	assert.True(t, tr.Balanced())
}

func TestTracker_Unclosed(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantAt     int
		wantCloser rune
		wantOK     bool
	}{
		{name: "balanced", input: "{a}[b](c)", wantOK: false},
		{name: "open brace", input: "x{a[b]", wantAt: 1, wantCloser: '}', wantOK: true},
		{name: "innermost first", input: "{a[b", wantAt: 2, wantCloser: ']', wantOK: true},
		{name: "open quote wins", input: `{a"b`, wantAt: 2, wantCloser: '"', wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tr Tracker
			for i, r := range tt.input {
				tr.Step(i, r)
			}
			at, closer, ok := tr.Unclosed()
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantAt, at)
				assert.Equal(t, tt.wantCloser, closer)
			}
			assert.Equal(t, !tt.wantOK, tr.Balanced())
		})
	}
}

func TestMatchingCloser(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"[a,b]", 4},
		{"{a={b}}", 6},
		{"[a]]", 2},
		{`["]"]`, 4},
		{`[\]]`, 3},
		{"(x", -1},
		{"abc", -1},
		{"", -1},
		{"bytes{1}", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchingCloser(tt.input), "MatchingCloser(%q)", tt.input)
	}
}

func TestCloser(t *testing.T) {
	for _, open := range Openers {
		assert.NotZero(t, Closer(open), "Closer(%q)", open)
	}
	assert.Zero(t, Closer('x'))
}
