// Package naming converts human-readable labels into the canonical field identifiers used
// to compare form fields with CRM fields.
//
// # Rules
//
//  1. Unicode NFD decomposition, combining marks removed ("Imię" -> "Imie")
//  2. Every run of characters outside [A-Za-z0-9] becomes a single "_"
//  3. Repeated "_" collapsed, leading and trailing "_" trimmed
//  4. Lowercased
//  5. Empty or digit-leading results get an "f_" prefix
//  6. Truncated to the requested maximum length
//
// Both suggested names and existing CRM names go through the same function, so
// comparisons are symmetric.
package naming

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultMaxLength is the length limit for suggested CRM field names.
	DefaultMaxLength = 50
	// CompareMaxLength is the length limit used when normalizing names for equality checks.
	CompareMaxLength = 200
	// Convention describes the rules above for API consumers.
	Convention = "snake_case ascii (no diacritics), lowercase, non-alnum -> _, collapse _, prefix f_ if starts with digit"

	seedLength = 8
)

var (
	nonAlnumRe = regexp.MustCompile(`[^A-Za-z0-9]+`)
	repeatedRe = regexp.MustCompile(`_+`)
)

// Normalize converts input into a canonical identifier no longer than maxLen.
// fallbackSeed (usually the field ref) only matters when input normalizes to nothing,
// in which case the first 8 characters of the normalized seed keep the result distinct.
// A maxLen <= 0 uses DefaultMaxLength.
func Normalize(input, fallbackSeed string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	s := collapse(stripDiacritics(input))

	if s == "" {
		seed := collapse(stripDiacritics(fallbackSeed))
		if len(seed) > seedLength {
			seed = strings.Trim(seed[:seedLength], "_")
		}
		s = "f_" + seed
		s = strings.TrimRight(s, "_")
	} else if startsWithDigit(s) {
		s = "f_" + s
	}

	if len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "_")
	}

	return s
}

// NormalizeName normalizes a label with the default length limit and no seed.
func NormalizeName(input string) string {
	return Normalize(input, "", DefaultMaxLength)
}

// NormalizeForCompare normalizes a name for equality checks between the form and the CRM.
func NormalizeForCompare(name string) string {
	return Normalize(name, "", CompareMaxLength)
}

// Equal reports whether two labels normalize to the same identifier.
func Equal(a, b string) bool {
	return NormalizeForCompare(a) == NormalizeForCompare(b)
}

func collapse(s string) string {
	s = nonAlnumRe.ReplaceAllString(s, "_")
	s = repeatedRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	return strings.ToLower(s)
}

// stripDiacritics decomposes s into NFD form and drops nonspacing marks.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
