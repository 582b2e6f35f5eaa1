// Package naming turns raw receipt article names into lookup keys and brand labels.
package naming

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MultiPackMarker is the leading character the register prints for bundled articles
const MultiPackMarker = '*'

// IsMultiPack reports whether the raw name carries the multi-pack marker
func IsMultiPack(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), string(MultiPackMarker))
}

// StripMarker removes the leading multi-pack marker and surrounding whitespace.
// Repeated markers are all removed so the result never starts with one.
func StripMarker(raw string) string {
	s := strings.TrimSpace(raw)
	for strings.HasPrefix(s, string(MultiPackMarker)) {
		s = strings.TrimSpace(s[1:])
	}
	return s
}

// Normalize returns the canonical product key for a raw article name.
// Normalize(Normalize(x)) == Normalize(x) for every x.
func Normalize(raw string) string {
	s := norm.NFC.String(raw)
	s = StripMarker(s)
	s = strings.Join(strings.Fields(s), " ")
	// cases.Caser keeps state, so one per call
	return cases.Lower(language.German).String(s)
}
