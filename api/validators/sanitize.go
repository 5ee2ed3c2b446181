package validators

import (
	"strings"
	"unicode"
)

// SanitizeString normalizes client-supplied header or form values: surrounding
// whitespace and control characters are dropped, and the result is cut to
// maxLen runes. Idempotency keys pass through here before they reach storage.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))

	if maxLen <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) <= maxLen {
		return cleaned
	}
	return string(runes[:maxLen])
}
