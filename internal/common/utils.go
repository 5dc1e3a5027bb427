package common

import "strings"

// HasAnyFold returns true if s contains any of the substrings,
// case-insensitively.
func HasAnyFold(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
