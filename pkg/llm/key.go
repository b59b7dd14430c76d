package llm

import "strings"

// MaskKey hides all but the first and last four characters of an API key.
// Keys of eight characters or fewer are masked entirely.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
