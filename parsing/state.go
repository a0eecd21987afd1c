package parsing

import (
	"strings"
	"unicode"
)

// Action is what a state does with the character under the cursor.
type Action uint8

const (
	Consume Action = iota // stay in the state and fire Character
	Skip                  // stay in the state, no event
	Enter                 // push the child state; the character is consumed
	Descend               // push the child state; the character is re-offered to it
	Leave                 // pop the state; the character is consumed
	Return                // pop the state; the character is re-offered to the parent
	Escape                // consume '\' and deliver the next character as escaped
	Fail                  // abort the parse
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case Consume:
		return "consume"
	case Skip:
		return "skip"
	case Enter:
		return "enter"
	case Descend:
		return "descend"
	case Leave:
		return "leave"
	case Return:
		return "return"
	case Escape:
		return "escape"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// Transition is one entry of a state's transition table.
type Transition struct {
	Action  Action
	Child   *State // for Enter and Descend
	Code    string // for Fail
	Message string // for Fail
}

// Stay consumes the character and fires Character.
func Stay() Transition { return Transition{Action: Consume} }

// Ignore consumes the character silently.
func Ignore() Transition { return Transition{Action: Skip} }

// Push enters child, consuming the character.
func Push(child *State) Transition { return Transition{Action: Enter, Child: child} }

// Delegate enters child and lets it see the character.
func Delegate(child *State) Transition { return Transition{Action: Descend, Child: child} }

// Pop leaves the state, consuming the character.
func Pop() Transition { return Transition{Action: Leave} }

// Yield leaves the state without consuming the character.
func Yield() Transition { return Transition{Action: Return} }

// EscapeNext treats the character as an escape for the one after it.
func EscapeNext() Transition { return Transition{Action: Escape} }

// Reject fails the parse with code and message.
func Reject(code, message string) Transition {
	return Transition{Action: Fail, Code: code, Message: message}
}

// Rule maps a character set or class, optionally followed by a fixed
// lookahead, to a transition.
type Rule struct {
	chars    string
	class    func(rune) bool
	followed string
	Do       Transition
}

// On matches any character in chars.
func On(chars string, do Transition) Rule {
	return Rule{chars: chars, Do: do}
}

// OnClass matches any character for which class returns true.
func OnClass(class func(rune) bool, do Transition) Rule {
	return Rule{class: class, Do: do}
}

// Followed restricts the rule to characters followed by s. The lookahead
// is consumed together with the character by consuming actions.
func (r Rule) Followed(s string) Rule {
	r.followed = s
	return r
}

func (r Rule) matches(c *Cursor) bool {
	ch := c.Char()
	switch {
	case r.class != nil:
		if !r.class(ch) {
			return false
		}
	case !strings.ContainsRune(r.chars, ch):
		return false
	}
	if r.followed == "" {
		return true
	}
	return c.HasPrefix(c.Offset()+c.Width(), r.followed)
}

// State is a node of a grammar: an explicit, ordered transition table with
// a default for characters no rule matches.
type State struct {
	Name    string
	Rules   []Rule
	Default Transition

	// Unterminated, when set, is the error reported in strict mode if the
	// input ends while this state is still open. States that leave it empty
	// tolerate partial input.
	Unterminated string
}

// NewState creates a state whose unmatched characters are consumed.
func NewState(name string) *State {
	return &State{Name: name, Default: Stay()}
}

// String returns the state name.
func (s *State) String() string { return s.Name }

// transition picks the rule for the current character and returns the
// number of bytes a consuming action advances.
func (s *State) transition(c *Cursor) (Transition, int) {
	for _, r := range s.Rules {
		if r.matches(c) {
			return r.Do, c.Width() + len(r.followed)
		}
	}
	return s.Default, c.Width()
}

// IsSpace is the whitespace class used by the grammars.
func IsSpace(r rune) bool {
	return unicode.IsSpace(r)
}
