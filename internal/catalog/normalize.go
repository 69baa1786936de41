// Package catalog resolves a customer's current plan name to the
// equivalent plan on a destination Netplay server.
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// abbreviations expands the two shorthands used in Brazilian plan names
// ("s/" = "sem", "c/" = "com"). Applied before the non-alphanumeric strip
// so the expanded letters survive it.
var abbreviations = strings.NewReplacer("s/", "sem", "c/", "com")

// deaccent decomposes characters and drops combining marks ("ç" -> "c",
// "ã" -> "a").
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize produces the canonical comparison key for a plan name:
// lower-cased, abbreviations expanded, diacritics stripped, and every
// character outside [a-z0-9] removed. Normalize is idempotent.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = abbreviations.Replace(s)
	if stripped, _, err := transform.String(deaccent, s); err == nil {
		s = stripped
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
