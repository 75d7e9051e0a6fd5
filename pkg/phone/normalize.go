// Package phone canonicalizes free-text supplier phone numbers.
package phone

import (
	"strings"
)

// DefaultCountryCode is the dialing prefix applied to bare national numbers.
const DefaultCountryCode = "91"

// nationalLength is the digit count of a national subscriber number.
const nationalLength = 10

// Normalize returns the canonical E.164-style form of raw, or "" when the
// input cannot yield a usable number. countryCode is given without "+";
// an empty value falls back to DefaultCountryCode.
func Normalize(raw, countryCode string) string {
	cc := strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	if cc == "" {
		cc = DefaultCountryCode
	}

	digits := Digits(raw)
	n := len(digits)

	switch {
	case n == nationalLength:
		return "+" + cc + digits
	case n == nationalLength+1 && digits[0] == '0':
		// Trunk prefix in front of a national number.
		return "+" + cc + digits[1:]
	case n == nationalLength+len(cc) && strings.HasPrefix(digits, cc):
		return "+" + digits
	case n == nationalLength+len(cc)+1 && strings.HasPrefix(digits[1:], cc):
		return "+" + digits[1:]
	case n >= nationalLength:
		return digits
	default:
		return ""
	}
}

// Digits strips every non-digit character from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Usable reports whether a canonical number can be used for short-text delivery.
func Usable(canonical string) bool {
	return canonical != ""
}
