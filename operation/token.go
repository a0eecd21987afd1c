package operation

import "fmt"

// tokenKind names the kind of name token being read, for validation and
// error messages.
type tokenKind uint8

const (
	tokenNodeType tokenKind = iota
	tokenNodeName
	tokenOperation
	tokenProperty
	tokenHeader
)

func (k tokenKind) String() string {
	switch k {
	case tokenNodeType:
		return "node type"
	case tokenNodeName:
		return "node name"
	case tokenOperation:
		return "operation name"
	case tokenProperty:
		return "property name"
	case tokenHeader:
		return "header name"
	default:
		return "token"
	}
}

// isIdentStart checks if a rune can start a name token.
// Letters, digits, underscore.
func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}

// isIdentChar checks if a rune can appear in a name token after the first
// character. Adds hyphen.
func isIdentChar(r rune) bool {
	return isIdentStart(r) || r == '-'
}

// isNameChar is isIdentChar for node names, which also take '.' after the
// first character ("app.war").
func isNameChar(r rune, first bool) bool {
	if first {
		return isIdentStart(r)
	}
	return isIdentChar(r) || r == '.'
}

// navigation tokens recognized at the start of an address segment.
const (
	navSelf     = "."
	navParent   = ".."
	navTypeOnly = ".type"
)

// isNavPrefix reports whether s can still grow into a navigation token.
func isNavPrefix(s string) bool {
	return len(s) <= len(navTypeOnly) && navTypeOnly[:len(s)] == s ||
		len(s) <= len(navParent) && navParent[:len(s)] == s
}

// invalidChar describes why r is refused in a token of kind k.
func invalidChar(k tokenKind, r rune, first bool) string {
	if first && r == '-' {
		return fmt.Sprintf("%s cannot start with '-'", k)
	}
	return fmt.Sprintf("invalid character %q in %s", r, k)
}
