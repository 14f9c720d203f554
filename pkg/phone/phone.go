package phone

import "strings"

// Normalize strips everything but digits and turns a +82 prefix into a
// leading 0 ("+82 10-1234-5678" -> "01012345678").
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.HasPrefix(strings.TrimSpace(s), "+82") && strings.HasPrefix(out, "82") {
		out = "0" + out[2:]
	}
	return out
}

// Valid reports whether s normalizes to a Korean mobile number.
func Valid(s string) bool {
	n := Normalize(s)
	return strings.HasPrefix(n, "01") && (len(n) == 10 || len(n) == 11)
}

// Mask hides the middle block: "01012345678" -> "010-****-5678".
func Mask(s string) string {
	n := Normalize(s)
	if len(n) < 10 {
		return n
	}
	return n[:3] + "-****-" + n[len(n)-4:]
}
