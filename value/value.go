// Package value implements the argument-value grammar: it turns one raw
// operation argument into a typed value tree of strings, lists, objects,
// property lists and byte arrays.
package value

import (
	"bytes"
	"encoding/json"
)

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindString Kind = iota
	KindList
	KindObject
	KindPropertyList
	KindBytes
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	case KindPropertyList:
		return "property-list"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Value is a node of a typed value tree. The concrete types are String,
// List, *Object, PropertyList and Bytes.
type Value interface {
	Kind() Kind
	isValue()
}

// String is a scalar value.
type String string

// List is an ordered sequence of values.
type List []Value

// Property is one named entry of a PropertyList.
type Property struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// PropertyList is an ordered sequence of named values. Unlike an Object it
// may repeat names.
type PropertyList []Property

// Bytes is a byte array of signed entries.
type Bytes []int8

func (String) Kind() Kind       { return KindString }
func (List) Kind() Kind         { return KindList }
func (*Object) Kind() Kind      { return KindObject }
func (PropertyList) Kind() Kind { return KindPropertyList }
func (Bytes) Kind() Kind        { return KindBytes }

func (String) isValue()       {}
func (List) isValue()         {}
func (*Object) isValue()      {}
func (PropertyList) isValue() {}
func (Bytes) isValue()        {}

// Object maps names to values and remembers insertion order. Setting an
// existing name replaces its value in place.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set stores v under name.
func (o *Object) Set(name string, v Value) {
	if o.values == nil {
		o.values = make(map[string]Value)
	}
	if _, ok := o.values[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.values[name] = v
}

// Get returns the value stored under name.
func (o *Object) Get(name string) (Value, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Keys returns the names in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.keys) }

// MarshalJSON writes the entries in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
