// Package isin validates and normalizes ISIN security identifiers.
//
// An ISIN is a 12-character code: a two-letter country prefix, nine
// uppercase alphanumerics (the NSIN), and a single check digit.
// Example: IE00B4L5Y983.
package isin

import (
	"regexp"
	"strings"
)

// Length is the fixed length of a well-formed ISIN.
const Length = 12

// pattern checks the structure: 2 letters, 9 alphanumeric, 1 digit.
var pattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// Normalize trims surrounding whitespace and upper-cases the code.
// It does not validate; callers normalize before storing or comparing.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code is a structurally well-formed ISIN.
// The check is case-sensitive: callers are expected to Normalize
// before storage, and a lower-case code is rejected. Empty or
// malformed input returns false; Valid never panics.
func Valid(code string) bool {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != Length {
		return false
	}
	return pattern.MatchString(trimmed)
}
