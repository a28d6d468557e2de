// internal/rules/blocks.go
package rules

import (
	"regexp"
	"strings"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

/*
 * Rule block extraction.
 *
 * Rule files are free text holding zero or more blocks shaped like
 *
 *   rule "Age Range" { form == "Demography" conditions { age >= 0 } }
 *
 * Extraction is an explicit scanner state machine rather than a pattern
 * match so that nested braces inside a body are balanced correctly:
 *
 *   seeking    -> looking for the `rule` keyword on a word boundary
 *   inName     -> inside the quoted rule name (backslash escapes honoured)
 *   awaitBody  -> whitespace between the name and the opening brace
 *   inBody     -> counting brace depth; braces inside quoted strings do
 *                 not count. The format has no comment syntax, so `//`
 *                 is ordinary body text.
 *
 * A header that is not followed by a brace, or a body that never balances
 * before end of input, produces no block; scanning resumes right after the
 * header so later blocks are still found.
 */

// formConditionPattern finds `form == "<value>"` comparisons inside a body.
// FormConditions drops matches that are the last segment of a dotted path.
var formConditionPattern = regexp.MustCompile(`(?i)\bform\s*==\s*"([^"\n]+)"`)

type scanState int

const (
	stateSeeking scanState = iota
	stateInName
	stateAwaitBody
	stateInBody
)

// ExtractRuleBlocks returns every well-formed rule block of text in order of
// appearance. Category is left empty; callers attach it. Never fails.
func ExtractRuleBlocks(text string) []types.RuleBlock {
	s := &blockScanner{text: text}
	from := 0
	for {
		next, unterminated := s.scan(from)
		if !unterminated {
			return s.blocks
		}
		// Drop the unbalanced block and look for headers inside its body
		from = next
	}
}

// blockScanner holds the state machine for one ExtractRuleBlocks call.
type blockScanner struct {
	text   string
	blocks []types.RuleBlock
}

// scan runs the state machine from offset from to end of input. When input
// ends inside a body it reports unterminated and the body start offset.
func (s *blockScanner) scan(from int) (bodyStart int, unterminated bool) {
	text := s.text
	var (
		state     = stateSeeking
		start     int // offset of the `rule` keyword
		resume    int // where seeking restarts when the header is abandoned
		name      strings.Builder
		depth     int
		inString  bool
	)

	for i := from; i < len(text); i++ {
		c := text[i]

		switch state {
		case stateSeeking:
			if !isKeywordAt(text, i) {
				continue
			}
			start = i
			j := skipSpace(text, i+len("rule"))
			if j < len(text) && text[j] == '"' {
				name.Reset()
				state = stateInName
				i = j
			} else {
				i += len("rule") - 1
			}

		case stateInName:
			switch c {
			case '\\':
				if i+1 < len(text) && text[i+1] != '\n' {
					name.WriteByte(text[i+1])
					i++
				}
			case '"':
				state = stateAwaitBody
				resume = i + 1
			case '\n':
				// Names never span lines; abandon the header
				state = stateSeeking
				i = start + len("rule") - 1
			default:
				name.WriteByte(c)
			}

		case stateAwaitBody:
			if isSpace(c) {
				continue
			}
			if c != '{' {
				state = stateSeeking
				i = resume - 1
				continue
			}
			state = stateInBody
			bodyStart = i + 1
			depth = 1
			inString = false

		case stateInBody:
			switch {
			case inString:
				if c == '\\' {
					i++
				} else if c == '"' {
					inString = false
				}
			case c == '"':
				inString = true
			case c == '{':
				depth++
			case c == '}':
				depth--
				if depth == 0 {
					body := text[bodyStart:i]
					s.blocks = append(s.blocks, types.RuleBlock{
						Name:           name.String(),
						FormConditions: FormConditions(body),
						RawText:        text[start : i+1],
						Body:           body,
					})
					state = stateSeeking
				}
			}
		}
	}

	return bodyStart, state == stateInBody
}

// FormConditions returns every `form == "<value>"` value found in body.
// Only a bare `form` token counts; `visit.form == "X"` compares a field.
func FormConditions(body string) []string {
	var forms []string
	for _, m := range formConditionPattern.FindAllStringSubmatchIndex(body, -1) {
		if start := m[0]; start > 0 && (body[start-1] == '.' || isWordByte(body[start-1])) {
			continue
		}
		forms = append(forms, body[m[2]:m[3]])
	}
	return forms
}

// isKeywordAt reports whether a case-insensitive `rule` token starts at i
// and is delimited by non-word bytes on both sides.
func isKeywordAt(text string, i int) bool {
	if i+len("rule") > len(text) || !strings.EqualFold(text[i:i+len("rule")], "rule") {
		return false
	}
	if i > 0 && isWordByte(text[i-1]) {
		return false
	}
	end := i + len("rule")
	return end == len(text) || !isWordByte(text[end])
}

// isWordByte treats non-ASCII bytes as word bytes so `rule` embedded in a
// multi-byte word never matches.
func isWordByte(c byte) bool {
	return c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func skipSpace(text string, i int) int {
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	return i
}
