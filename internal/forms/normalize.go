// Package forms canonicalizes clinical form names into comparable keys.
package forms

import (
	"strings"
	"unicode"
)

// synonyms folds known spellings of the same form onto one key.
// Every value must also map to itself (or be absent) so that Normalize is
// idempotent.
var synonyms = map[string]string{
	"inclusioncriteria":          "inclusionexclusion",
	"exclusioncriteria":          "inclusionexclusion",
	"inclusionexclusioncriteria": "inclusionexclusion",
	"inclusionexclusion":         "inclusionexclusion",
	"hematology":                 "hematologyinlabs",
	"hematologyinlabs":           "hematologyinlabs",
}

// Normalize lowercases name, strips every rune that is not a letter, digit
// or underscore, and folds the result through the synonym table.
// The same function serves user input, rule file stems and form conditions.
func Normalize(name string) string {
	key := strip(name)
	if folded, ok := synonyms[key]; ok {
		return folded
	}
	return key
}

// Equal reports whether two display names normalize to the same key.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// strip lowercases per rune and keeps only word runes.
func strip(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		r = unicode.ToLower(r)
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
