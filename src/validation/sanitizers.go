// backend/src/validation/sanitizers.go
package validation

import (
	"strings"
	"unicode"
)

// Input sanitizers. These run before a field value is stored, mirroring what
// the form inputs do as the user types: numeric fields silently drop
// non-digits, letter fields upper-case and drop everything else.

// DigitsOnly keeps only ASCII digits.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// UpperLettersOnly upper-cases and keeps only A-Z.
func UpperLettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		r = unicode.ToUpper(r)
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, s)
}

// UpperAlnumOnly upper-cases and keeps only A-Z and 0-9.
func UpperAlnumOnly(s string) string {
	return strings.Map(func(r rune) rune {
		r = unicode.ToUpper(r)
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}

// StripUnprintable removes non-printable characters, allowing common
// whitespace like space, tab, newline, and carriage return. Applied to the
// free-text name fields.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1 // Drop the rune
	}, s)
}
