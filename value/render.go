package value

import (
	"strings"
	"unicode"
)

// Render writes v in the form Parse reads back. Lists, objects and
// property lists keep their kind across Render and Parse, except an empty
// PropertyList, which renders as "[]" and reads back as an empty List.
func Render(v Value) string {
	var b strings.Builder
	render(&b, v)
	return b.String()
}

func render(b *strings.Builder, v Value) {
	switch v := v.(type) {
	case String:
		b.WriteString(quote(string(v)))
	case List:
		b.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			render(b, e)
		}
		b.WriteByte(']')
	case *Object:
		b.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(renderKey(k))
			b.WriteString("=>")
			render(b, v.values[k])
		}
		b.WriteByte('}')
	case PropertyList:
		b.WriteByte('[')
		for i, p := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('(')
			b.WriteString(renderKey(p.Name))
			b.WriteString("=>")
			render(b, p.Value)
			b.WriteByte(')')
		}
		b.WriteByte(']')
	case Bytes:
		b.WriteString(formatBytes(v))
	}
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func renderKey(k string) string {
	if k == "" {
		return `""`
	}
	for _, r := range k {
		if !isKeyChar(r) {
			return `"` + keyEscaper.Replace(k) + `"`
		}
	}
	return k
}

// quote returns s unchanged when it reads back as the same string, and a
// quoted, escaped form otherwise.
func quote(s string) string {
	if !needsQuote(s) {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\r':
			b.WriteString(`\r`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func needsQuote(s string) bool {
	if s == "" || strings.HasPrefix(s, "bytes") {
		return true
	}
	if strings.ContainsAny(s, `,[]{}()="\`) {
		return true
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return strings.TrimSpace(s) != s
}
