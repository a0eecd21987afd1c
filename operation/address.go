package operation

import (
	"errors"
	"fmt"
	"strings"
)

// Node is one segment of a resource address. An empty Name means the node
// has a type but no name yet.
type Node struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// Address is an ordered path of nodes. The zero value is the root.
type Address []Node

// Address navigation errors. The grammar wraps them into positional
// syntax errors.
var (
	ErrAboveRoot     = errors.New("address is already the root")
	ErrTypeNoName    = errors.New("address ends on a node type without a name")
	ErrNoPendingType = errors.New("address does not end on a node type")
)

// ToNodeType appends a node that has a type but no name. Two consecutive
// type-only nodes are refused.
func (a *Address) ToNodeType(typ string) error {
	if a.EndsOnType() {
		return ErrTypeNoName
	}
	*a = append(*a, Node{Type: typ})
	return nil
}

// ToNode names the trailing type-only node.
func (a *Address) ToNode(name string) error {
	if !a.EndsOnType() {
		return ErrNoPendingType
	}
	(*a)[len(*a)-1].Name = name
	return nil
}

// Append adds a complete node.
func (a *Address) Append(typ, name string) error {
	if err := a.ToNodeType(typ); err != nil {
		return err
	}
	return a.ToNode(name)
}

// ToParent drops the last node.
func (a *Address) ToParent() error {
	if len(*a) == 0 {
		return ErrAboveRoot
	}
	*a = (*a)[:len(*a)-1]
	return nil
}

// ToTypeOnly discards the name of the last node.
func (a *Address) ToTypeOnly() error {
	if len(*a) == 0 {
		return ErrAboveRoot
	}
	(*a)[len(*a)-1].Name = ""
	return nil
}

// Reset moves to the root.
func (a *Address) Reset() {
	*a = (*a)[:0]
}

// EndsOnType reports whether the last node lacks a name.
func (a Address) EndsOnType() bool {
	return len(a) > 0 && a[len(a)-1].Name == ""
}

// IsRoot reports whether the address has no nodes.
func (a Address) IsRoot() bool { return len(a) == 0 }

// Clone returns a copy that shares no storage with a.
func (a Address) Clone() Address {
	if a == nil {
		return nil
	}
	out := make(Address, len(a))
	copy(out, a)
	return out
}

// String renders the canonical "/type=name/type" form; the root is "/".
func (a Address) String() string {
	if len(a) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, n := range a {
		b.WriteByte('/')
		b.WriteString(n.Type)
		if n.Name != "" {
			b.WriteByte('=')
			b.WriteString(quoteName(n.Name))
		}
	}
	return b.String()
}

// ParseAddress reads an address written in the canonical form, or any
// relative form the grammar accepts, against the root.
func ParseAddress(s string) (Address, error) {
	r, err := Parse(s)
	if err != nil {
		return nil, err
	}
	if r.Operation != "" || r.HasProperties() || r.Headers != "" || r.OutputTarget != "" {
		return nil, fmt.Errorf("%q is not a plain address", s)
	}
	return r.Address, nil
}

// quoteName quotes a node name that would not read back unquoted.
func quoteName(name string) string {
	if name == "*" {
		return name
	}
	plain := true
	for i, r := range name {
		if !isNameChar(r, i == 0) {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range name {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
