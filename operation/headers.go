package operation

import (
	"strings"
	"unicode"

	"github.com/relux-works/opline/parsing"
)

// Header is one request header. Headers are written name=value, as a name
// followed by a space-separated argument ("rollout main-group"), or as a
// bare name meaning "true".
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HeaderList splits the raw headers on ';'.
func (r *Result) HeaderList() ([]Header, error) {
	if r.Headers == "" {
		return nil, nil
	}
	at := r.headersAt
	segs, err := parsing.Split(r.Headers, ";")
	if err != nil {
		return nil, r.reposition(err, at)
	}
	out := make([]Header, 0, len(segs))
	for _, seg := range segs {
		h, err := parseHeader(seg.Text)
		if err != nil {
			return nil, r.reposition(err, at+seg.Offset)
		}
		out = append(out, h)
	}
	return out, nil
}

func parseHeader(s string) (Header, error) {
	var h Header
	name := s
	if parts := parsing.SplitTop(s, '='); len(parts) > 1 {
		name = strings.TrimSpace(parts[0].Text)
		h.Value = strings.TrimSpace(s[parts[1].Offset:])
	} else if i := strings.IndexFunc(s, unicode.IsSpace); i > 0 {
		name = s[:i]
		h.Value = strings.TrimSpace(s[i:])
	} else {
		h.Value = "true"
	}

	for i, c := range name {
		if i == 0 && !isIdentStart(c) || i > 0 && !isIdentChar(c) {
			err := parsing.Errorf(s, i, parsing.ErrTokenValidation, "%s", invalidChar(tokenHeader, c, i == 0))
			err.Got = name
			return Header{}, err
		}
	}
	if name == "" {
		return Header{}, parsing.Errorf(s, 0, parsing.ErrStructural, "missing header name")
	}
	h.Name = name
	return h, nil
}
