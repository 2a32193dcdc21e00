package core

import "strings"

// CleanString trims surrounding whitespace in s. Pass true to also lowercase,
// for case-insensitive fields such as emails and ids.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}
