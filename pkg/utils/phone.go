package utils

import "strings"

// NormalizePhone reduces a phone number to E.164-like form: digits only with a
// single leading '+' when the input carried one. Formatting characters such as
// spaces, dashes, dots and parentheses are dropped.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	if strings.HasPrefix(raw, "+") {
		b.WriteByte('+')
	}
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	out := b.String()
	if out == "+" {
		return ""
	}
	return out
}
