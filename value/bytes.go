package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// parseByte reads one bytes{...} entry: a signed decimal in -128..127 or
// an unsigned hex literal in 0x00..0xFF.
func parseByte(s string) (int8, error) {
	if s == "" {
		return 0, errors.New("empty byte entry")
	}
	if digits, ok := cutHexPrefix(s); ok {
		if digits == "" {
			return 0, fmt.Errorf("malformed hex byte %q", s)
		}
		n, err := strconv.ParseUint(digits, 16, 8)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return 0, fmt.Errorf("hex byte %q out of range 0x00..0xFF", s)
			}
			return 0, fmt.Errorf("malformed hex byte %q", s)
		}
		return int8(uint8(n)), nil
	}
	if s[0] == '-' || s[0] == '+' {
		if _, ok := cutHexPrefix(s[1:]); ok {
			return 0, fmt.Errorf("hex byte %q must not carry a sign", s)
		}
	}
	n, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("byte %q out of range -128..127", s)
		}
		return 0, fmt.Errorf("malformed byte %q", s)
	}
	return int8(n), nil
}

func cutHexPrefix(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:], true
	}
	return s, false
}

// formatBytes renders entries the way bytes{...} accepts them back.
func formatBytes(b Bytes) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strconv.Itoa(int(v))
	}
	return "bytes{" + strings.Join(parts, ",") + "}"
}
