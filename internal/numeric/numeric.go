// Package numeric holds the small text checks shared by the stat file
// loader and the math challenge verifier.
package numeric

import "strings"

// Valid reports whether s is a non-empty run of ASCII decimal digits.
// Signs, spaces and separators are rejected.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// TrimNewline removes one trailing line ending ("\n" or "\r\n") from s.
func TrimNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
