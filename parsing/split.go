package parsing

import (
	"strings"
	"unicode"
)

// DefaultSeparators separates sub-commands on one line.
const DefaultSeparators = ",;"

// Split divides line on separators that sit outside brackets, quotes and
// escapes. Segments are trimmed; empty segments are dropped. An
// unterminated quote fails with a structural SyntaxError.
func Split(line, separators string) ([]Segment, error) {
	segs, t := split(line, separators)
	if t.Quoted() {
		at, _, _ := t.Unclosed()
		err := Errorf(line, at, ErrStructural, "unterminated quoted string")
		err.Got = line[at:]
		return nil, err
	}
	return segs, nil
}

// SplitPartial is Split for input that may be cut off mid-token, as during
// completion: an unterminated quote simply runs to the end of the line.
func SplitPartial(line, separators string) []Segment {
	segs, _ := split(line, separators)
	return segs
}

// SplitTop divides s on sep at depth 0 without trimming or dropping
// segments, so that every byte of s belongs to exactly one segment.
func SplitTop(s string, sep rune) []Segment {
	var (
		t     Tracker
		segs  []Segment
		start int
	)
	for i, r := range s {
		if t.Step(i, r).Top() && r == sep {
			segs = append(segs, Segment{Text: s[start:i], Offset: start})
			start = i + len(string(sep))
		}
	}
	return append(segs, Segment{Text: s[start:], Offset: start})
}

func split(line, separators string) ([]Segment, *Tracker) {
	var (
		t     Tracker
		segs  []Segment
		start int
	)
	if separators == "" {
		separators = DefaultSeparators
	}
	for i, r := range line {
		if t.Step(i, r).Top() && strings.ContainsRune(separators, r) {
			segs = appendTrimmed(segs, line[start:i], start)
			start = i + len(string(r))
		}
	}
	segs = appendTrimmed(segs, line[start:], start)
	return segs, &t
}

func appendTrimmed(segs []Segment, text string, offset int) []Segment {
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	offset += len(text) - len(trimmed)
	trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)
	if trimmed == "" {
		return segs
	}
	return append(segs, Segment{Text: trimmed, Offset: offset})
}
