package parsing

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		separators string
		want       []Segment
	}{
		{
			name: "single command",
			line: ":read-resource",
			want: []Segment{{Text: ":read-resource", Offset: 0}},
		},
		{
			name: "comma and semicolon",
			line: ":a, :b; :c",
			want: []Segment{
				{Text: ":a", Offset: 0},
				{Text: ":b", Offset: 4},
				{Text: ":c", Offset: 8},
			},
		},
		{
			name: "separators inside brackets ignored",
			line: ":op(a={b,c},d=[1;2]),:other",
			want: []Segment{
				{Text: ":op(a={b,c},d=[1;2])", Offset: 0},
				{Text: ":other", Offset: 21},
			},
		},
		{
			name: "separators inside quotes ignored",
			line: `/a="x,y":op;:b`,
			want: []Segment{
				{Text: `/a="x,y":op`, Offset: 0},
				{Text: ":b", Offset: 12},
			},
		},
		{
			name: "escaped separator ignored",
			line: `/a=x\,y:op,:b`,
			want: []Segment{
				{Text: `/a=x\,y:op`, Offset: 0},
				{Text: ":b", Offset: 11},
			},
		},
		{
			name: "empty segments dropped",
			line: ";; :a ;;; :b ;",
			want: []Segment{
				{Text: ":a", Offset: 3},
				{Text: ":b", Offset: 10},
			},
		},
		{
			name:       "custom separator",
			line:       "a,b|c",
			separators: "|",
			want: []Segment{
				{Text: "a,b", Offset: 0},
				{Text: "c", Offset: 4},
			},
		},
		{
			name: "blank line",
			line: "   ",
			want: nil,
		},
		{
			name: "unmatched closer is ordinary",
			line: "a],b",
			want: []Segment{
				{Text: "a]", Offset: 0},
				{Text: "b", Offset: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.line, tt.separators)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Split(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestSplit_UnterminatedQuote(t *testing.T) {
	_, err := Split(`:a, :b(x="y,z)`, "")
	require.Error(t, err)

	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ErrStructural, se.Code)
	assert.Equal(t, 9, se.Offset())
}

func TestSplitPartial_ToleratesOpenQuote(t *testing.T) {
	got := SplitPartial(`:a, :b(x="y,z`, "")
	want := []Segment{
		{Text: ":a", Offset: 0},
		{Text: `:b(x="y,z`, Offset: 4},
	}
	assert.Equal(t, want, got)
}

func TestSplitTop(t *testing.T) {
	got := SplitTop(`a=1, b={x,y} ,`, ',')
	want := []Segment{
		{Text: "a=1", Offset: 0},
		{Text: " b={x,y} ", Offset: 4},
		{Text: "", Offset: 14},
	}
	assert.Equal(t, want, got)
}
