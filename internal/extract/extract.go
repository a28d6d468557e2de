// Package extract pulls field values out of free clinical text with
// per-field regular expressions. It backs the offline natural-language
// converter, which has no language model to lean on.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/rules"
)

// Pattern locates the value of one field. The expression's first capture
// group holds the value; matching is case-insensitive.
type Pattern struct {
	Field string
	re    *regexp.Regexp
}

// NewPattern compiles expr for field. The expression must have at least
// one capture group.
func NewPattern(field, expr string) (Pattern, error) {
	if field == "" {
		return Pattern{}, fmt.Errorf("pattern has no field name")
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("compile pattern for %q: %w", field, err)
	}
	if re.NumSubexp() < 1 {
		return Pattern{}, fmt.Errorf("pattern for %q has no capture group", field)
	}
	return Pattern{Field: field, re: re}, nil
}

// MustPattern is NewPattern that panics on error, for static patterns.
func MustPattern(field, expr string) Pattern {
	p, err := NewPattern(field, expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Fields applies every pattern to text and returns the first capture of
// each matching pattern, typed as int, float64 or string. Fields that do
// not match are absent from the result. A later pattern for the same field
// overrides an earlier match.
func Fields(text string, patterns []Pattern) map[string]any {
	extracted := make(map[string]any)
	for _, p := range patterns {
		if p.re == nil {
			continue
		}
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		extracted[p.Field] = autoType(m[1])
	}
	return extracted
}

// autoType parses raw as float64 when it contains a dot, as int otherwise,
// and falls back to the string.
func autoType(raw string) any {
	if strings.Contains(raw, ".") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}

// PatternsFor derives a `name: value` pattern per field. Underscores in a
// field name match spaces, hyphens or underscores in the text, so
// date_of_birth finds "Date of birth: 1990-04-02". The value runs to the
// next whitespace, comma or semicolon, minus trailing full stops.
func PatternsFor(fieldNames []string) []Pattern {
	patterns := make([]Pattern, 0, len(fieldNames))
	for _, name := range fieldNames {
		words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == ' ' || r == '-' })
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		expr := `\b` + strings.Join(words, `[\s_-]*`) + `\b\s*(?:[:=]|\bis\b|\bof\b)?\s*([^\s,;]*[^\s,;.])`
		patterns = append(patterns, MustPattern(name, expr))
	}
	return patterns
}

// FromRules extracts values for every field referenced by the conditions of
// the rule blocks in ruleText.
func FromRules(text, ruleText string) map[string]any {
	return Fields(text, PatternsFor(rules.ReferencedFields(ruleText)))
}
