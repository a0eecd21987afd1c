package parsing

// Openers lists the characters that open a nested region. The value
// grammar, the property-list states and the splitter all nest on the
// same set.
const Openers = "{[("

// Closer returns the character closing the region opened by open, or 0.
func Closer(open rune) rune {
	switch open {
	case '{':
		return '}'
	case '[':
		return ']'
	case '(':
		return ')'
	}
	return 0
}

// Mark classifies one character fed to a Tracker.
type Mark struct {
	// Depth is the nesting depth the character sits at. Brackets report
	// the depth outside the region they open or close.
	Depth int

	// Active is false for characters inside quotes, escaped characters,
	// and the quote and escape characters themselves.
	Active bool
}

// Top reports whether the character is structural at depth 0.
func (m Mark) Top() bool { return m.Active && m.Depth == 0 }

type opening struct {
	closer rune
	at     int
}

// Tracker follows bracket nesting, double-quoted regions and backslash
// escapes across a string fed one character at a time. A closing bracket
// that does not match the innermost open region is an ordinary character.
type Tracker struct {
	open    []opening
	quoted  bool
	quoteAt int
	escaped bool
}

// Step feeds the character r found at byte offset at.
func (t *Tracker) Step(at int, r rune) Mark {
	depth := len(t.open)
	if t.escaped {
		t.escaped = false
		return Mark{Depth: depth}
	}
	if r == '\\' {
		t.escaped = true
		return Mark{Depth: depth}
	}
	if t.quoted {
		if r == '"' {
			t.quoted = false
		}
		return Mark{Depth: depth}
	}
	if r == '"' {
		t.quoted = true
		t.quoteAt = at
		return Mark{Depth: depth}
	}
	if c := Closer(r); c != 0 {
		t.open = append(t.open, opening{closer: c, at: at})
		return Mark{Depth: depth, Active: true}
	}
	if depth > 0 && t.open[depth-1].closer == r {
		t.open = t.open[:depth-1]
		return Mark{Depth: depth - 1, Active: true}
	}
	return Mark{Depth: depth, Active: true}
}

// Depth returns the current nesting depth.
func (t *Tracker) Depth() int { return len(t.open) }

// Quoted reports whether the tracker is inside a quoted region.
func (t *Tracker) Quoted() bool { return t.quoted }

// Balanced reports whether every region opened so far has been closed.
func (t *Tracker) Balanced() bool {
	return len(t.open) == 0 && !t.quoted && !t.escaped
}

// Unclosed describes the innermost region still open: its opening offset
// and the character that would close it. ok is false when balanced.
func (t *Tracker) Unclosed() (at int, closer rune, ok bool) {
	if t.quoted {
		return t.quoteAt, '"', true
	}
	if n := len(t.open); n > 0 {
		return t.open[n-1].at, t.open[n-1].closer, true
	}
	return 0, 0, false
}

// MatchingCloser returns the offset of the character closing the region
// opened at s[0], or -1 when s does not start with an opener or the region
// is never closed.
func MatchingCloser(s string) int {
	if s == "" || Closer(rune(s[0])) == 0 {
		return -1
	}
	var t Tracker
	for i, r := range s {
		m := t.Step(i, r)
		if i > 0 && m.Top() && t.Depth() == 0 {
			return i
		}
	}
	return -1
}
