package analyzer

import "strings"

// Normalize lower-cases raw, turns every character that is not an ASCII
// letter or digit into a space, collapses space runs and trims the result.
// The output only contains [a-z0-9] and single inner spaces, so
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	pendingSpace := false
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}
