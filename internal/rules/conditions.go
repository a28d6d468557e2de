// internal/rules/conditions.go
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

/*
 * Conditions section parsing.
 *
 * A rule body may carry a section such as
 *
 *   conditions {
 *     age >= 18 && age <= 85
 *     || consent_withdrawn == true
 *   }
 *
 * which parses into a Check in disjunctive normal form. `||` and `or`
 * separate groups; `&&`, `and`, `;`, `,` and newlines separate conditions
 * inside a group. The section keyword may be `conditions`, `condition`,
 * `when` or `check`, optionally followed by a colon.
 *
 * Supported comparisons:
 *   field (== | = | != | < | <= | > | >=) literal-or-field
 *   field in [literal, ...]
 *   field startswith "x" / field endswith "x"
 *   field is null / field is not null
 *   exists field
 *
 * Comparisons on `form` associate the block with a form and are dropped.
 * Parentheses are rejected: nesting would leave DNF.
 */

var sectionKeywords = []string{"conditions", "condition", "when", "check"}

// ParseCheck parses the conditions section of block into a Check.
// Returns ErrNoConditions when the body has no section.
func ParseCheck(block types.RuleBlock) (*types.Check, error) {
	section, ok := conditionsSection(block.Body)
	if !ok {
		return nil, types.ErrNoConditions
	}
	check, err := ParseConditions(section)
	if err != nil {
		return nil, err
	}
	check.RuleName = block.DisplayName()
	return check, nil
}

// ParseConditions parses a bare conditions expression.
func ParseConditions(expr string) (*types.Check, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{src: expr, toks: toks}
	groups, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, types.ErrEmptyExpression
	}
	return &types.Check{OrGroups: groups}, nil
}

// conditionsSection returns the text between the braces of the first
// conditions section in body.
func conditionsSection(body string) (string, bool) {
	inString := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		if c == '/' && i+1 < len(body) && body[i+1] == '/' {
			for i < len(body) && body[i] != '\n' {
				i++
			}
			continue
		}
		if i > 0 && isWordByte(body[i-1]) {
			continue
		}
		for _, kw := range sectionKeywords {
			end := i + len(kw)
			if end > len(body) || !strings.EqualFold(body[i:end], kw) {
				continue
			}
			if end < len(body) && isWordByte(body[end]) {
				continue
			}
			j := skipSpace(body, end)
			if j < len(body) && body[j] == ':' {
				j = skipSpace(body, j+1)
			}
			if j < len(body) && body[j] == '{' {
				if closeIdx, ok := matchBrace(body, j); ok {
					return body[j+1 : closeIdx], true
				}
			}
		}
	}
	return "", false
}

// matchBrace returns the offset of the brace closing the one at open.
func matchBrace(text string, open int) (int, bool) {
	depth := 0
	inString := false
	for i := open; i < len(text); i++ {
		c := text[i]
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
				return i, true
			}
		}
	}
	return 0, false
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp      // comparison operator
	tokAnd     // && and ; ,
	tokNewline // newline, an AND separator outside lists
	tokOr
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	text  string // operator, identifier, or decoded string literal
	num   float64
	start int
	end   int
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			toks = append(toks, token{kind: tokNewline, start: i, end: i + 1})
			i++
		case isSpace(c):
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '&' && i+1 < len(src) && src[i+1] == '&':
			toks = append(toks, token{kind: tokAnd, text: "&&", start: i, end: i + 2})
			i += 2
		case c == '|' && i+1 < len(src) && src[i+1] == '|':
			toks = append(toks, token{kind: tokOr, text: "||", start: i, end: i + 2})
			i += 2
		case c == ';' || c == ',':
			toks = append(toks, token{kind: tokAnd, text: string(c), start: i, end: i + 1})
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBracket, start: i, end: i + 1})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBracket, start: i, end: i + 1})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, start: i, end: i + 1})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, start: i, end: i + 1})
			i++
		case c == '=' || c == '!' || c == '<' || c == '>':
			op := string(c)
			if i+1 < len(src) && src[i+1] == '=' {
				op += "="
			}
			switch op {
			case "=":
				op = "=="
			case "!":
				return nil, fmt.Errorf("%w: unexpected '!' at offset %d", types.ErrUnsupportedCondition, i)
			}
			width := 1
			if i+1 < len(src) && src[i+1] == '=' {
				width = 2
			}
			toks = append(toks, token{kind: tokOp, text: op, start: i, end: i + width})
			i += width
		case c == '"' || c == '\'':
			s, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, start: i, end: next})
			i = next
		case isDigit(c) || (c == '-' && i+1 < len(src) && (isDigit(src[i+1]) || src[i+1] == '.')) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			j := i + 1
			for j < len(src) && (isDigit(src[j]) || src[j] == '.' || src[j] == 'e' || src[j] == 'E' ||
				((src[j] == '-' || src[j] == '+') && (src[j-1] == 'e' || src[j-1] == 'E'))) {
				j++
			}
			n, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q", types.ErrUnsupportedCondition, src[i:j])
			}
			toks = append(toks, token{kind: tokNumber, num: n, text: src[i:j], start: i, end: j})
			i = j
		case isIdentStart(c):
			j := lexPath(src, i)
			toks = append(toks, token{kind: tokIdent, text: src[i:j], start: i, end: j})
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", types.ErrUnsupportedCondition, c, i)
		}
	}
	return toks, nil
}

// lexString decodes a quoted literal starting at i.
func lexString(src string, i int) (string, int, error) {
	quote := src[i]
	var b strings.Builder
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			if j+1 < len(src) {
				b.WriteByte(src[j+1])
				j++
			}
		case quote:
			return b.String(), j + 1, nil
		case '\n':
			return "", 0, fmt.Errorf("%w: unterminated string at offset %d", types.ErrUnsupportedCondition, i)
		default:
			b.WriteByte(src[j])
		}
	}
	return "", 0, fmt.Errorf("%w: unterminated string at offset %d", types.ErrUnsupportedCondition, i)
}

// lexPath consumes an identifier with dotted keys and [n] indices.
func lexPath(src string, i int) int {
	j := i
	for j < len(src) {
		c := src[j]
		switch {
		case isWordByte(c):
			j++
		case c == '.' && j+1 < len(src) && isIdentStart(src[j+1]):
			j++
		case c == '[':
			k := j + 1
			for k < len(src) && isDigit(src[k]) {
				k++
			}
			if k == j+1 || k >= len(src) || src[k] != ']' {
				return j
			}
			j = k + 1
		default:
			return j
		}
	}
	return j
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c >= 0x80 || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token{kind: tokEOF, start: len(p.src), end: len(p.src)}
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// keyword reports whether t is the identifier kw, ignoring case.
func keyword(t token, kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func isOr(t token) bool { return t.kind == tokOr || keyword(t, "or") }

func isAnd(t token) bool {
	return t.kind == tokAnd || t.kind == tokNewline || keyword(t, "and")
}

func (p *parser) skipNewlines() {
	for p.peek().kind == tokNewline {
		p.pos++
	}
}

func (p *parser) unexpected(t token) error {
	if t.kind == tokEOF {
		return fmt.Errorf("%w: unexpected end of conditions", types.ErrUnsupportedCondition)
	}
	return fmt.Errorf("%w: unexpected %q at offset %d", types.ErrUnsupportedCondition,
		p.src[t.start:t.end], t.start)
}

// parseExpr parses groups separated by OR. Groups left empty after
// dropping form comparisons are omitted.
func (p *parser) parseExpr() ([]types.OrGroup, error) {
	var groups []types.OrGroup
	for {
		group, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		if len(group.Conditions) > 0 {
			groups = append(groups, group)
		}
		t := p.peek()
		if t.kind == tokEOF {
			return groups, nil
		}
		if !isOr(t) {
			return nil, p.unexpected(t)
		}
		p.next()
	}
}

// parseGroup parses conditions separated by AND separators. It stops
// before an OR token or end of input.
func (p *parser) parseGroup() (types.OrGroup, error) {
	var group types.OrGroup
	for {
		for isAnd(p.peek()) {
			p.next()
		}
		t := p.peek()
		if t.kind == tokEOF || isOr(t) {
			return group, nil
		}
		cond, keep, err := p.parseCondition()
		if err != nil {
			return types.OrGroup{}, err
		}
		if keep {
			group.Conditions = append(group.Conditions, cond)
		}
		t = p.peek()
		if t.kind != tokEOF && !isOr(t) && !isAnd(t) {
			return types.OrGroup{}, p.unexpected(t)
		}
	}
}

// parseCondition parses one comparison. keep is false for form comparisons.
func (p *parser) parseCondition() (types.Condition, bool, error) {
	first := p.next()
	switch {
	case first.kind == tokLParen || first.kind == tokRParen:
		return types.Condition{}, false, fmt.Errorf("%w: parenthesized expressions", types.ErrUnsupportedCondition)
	case keyword(first, "exists"):
		field := p.next()
		if field.kind != tokIdent {
			return types.Condition{}, false, p.unexpected(field)
		}
		return p.finish(first, field.text, int(OpExists), int(FieldTypeAny), nil, nil, nil)
	case keyword(first, "not"):
		return types.Condition{}, false, fmt.Errorf("%w: negation", types.ErrUnsupportedCondition)
	case first.kind != tokIdent:
		return types.Condition{}, false, p.unexpected(first)
	}

	field := first
	opTok := p.next()
	switch {
	case opTok.kind == tokOp:
		return p.parseComparison(field, opTok)
	case keyword(opTok, "in"):
		values, ft, err := p.parseList()
		if err != nil {
			return types.Condition{}, false, err
		}
		return p.finish(field, field.text, int(OpIn), int(ft), nil, values, nil)
	case keyword(opTok, "is"):
		op := OpIsNull
		t := p.next()
		if keyword(t, "not") {
			op = OpExists
			t = p.next()
		}
		if !keyword(t, "null") {
			return types.Condition{}, false, p.unexpected(t)
		}
		return p.finish(field, field.text, int(op), int(FieldTypeAny), nil, nil, nil)
	case keyword(opTok, "startswith") || keyword(opTok, "endswith"):
		op := OpPrefix
		if keyword(opTok, "endswith") {
			op = OpSuffix
		}
		lit := p.next()
		if lit.kind != tokString {
			return types.Condition{}, false, p.unexpected(lit)
		}
		return p.finish(field, field.text, int(op), int(FieldTypeText), lit.text, nil, nil)
	default:
		return types.Condition{}, false, p.unexpected(opTok)
	}
}

var comparisonOps = map[string]Operator{
	"==": OpEq, "!=": OpNeq, "<": OpLt, "<=": OpLte, ">": OpGt, ">=": OpGte,
}

func (p *parser) parseComparison(field, opTok token) (types.Condition, bool, error) {
	op := comparisonOps[opTok.text]
	p.skipNewlines()
	rhs := p.next()

	switch {
	case rhs.kind == tokNumber:
		return p.finish(field, field.text, int(op), int(FieldTypeNumeric), rhs.num, nil, nil)
	case rhs.kind == tokString:
		return p.finish(field, field.text, int(op), int(FieldTypeText), rhs.text, nil, nil)
	case keyword(rhs, "true") || keyword(rhs, "false"):
		return p.finish(field, field.text, int(op), int(FieldTypeBoolean), keyword(rhs, "true"), nil, nil)
	case keyword(rhs, "null"):
		switch op {
		case OpEq:
			return p.finish(field, field.text, int(OpIsNull), int(FieldTypeAny), nil, nil, nil)
		case OpNeq:
			return p.finish(field, field.text, int(OpExists), int(FieldTypeAny), nil, nil, nil)
		}
		return types.Condition{}, false, fmt.Errorf("%w: ordering against null", types.ErrUnsupportedCondition)
	case rhs.kind == tokIdent:
		ref, err := ParseFieldPath(rhs.text)
		if err != nil {
			return types.Condition{}, false, err
		}
		return p.finish(field, field.text, int(op), int(FieldTypeAny), nil, nil, ref)
	default:
		return types.Condition{}, false, p.unexpected(rhs)
	}
}

// parseList parses `[lit, lit, ...]` and infers a common field type.
func (p *parser) parseList() ([]any, FieldType, error) {
	if t := p.next(); t.kind != tokLBracket {
		return nil, 0, p.unexpected(t)
	}
	var values []any
	ft := FieldTypeUnspecified
	for {
		p.skipNewlines()
		t := p.next()
		var v any
		var vt FieldType
		switch {
		case t.kind == tokRBracket:
			if ft == FieldTypeUnspecified {
				ft = FieldTypeAny
			}
			return values, ft, nil
		case t.kind == tokNumber:
			v, vt = t.num, FieldTypeNumeric
		case t.kind == tokString:
			v, vt = t.text, FieldTypeText
		case keyword(t, "true") || keyword(t, "false"):
			v, vt = keyword(t, "true"), FieldTypeBoolean
		default:
			return nil, 0, p.unexpected(t)
		}
		values = append(values, v)
		if len(values) > types.MaxInOperatorValues {
			return nil, 0, types.ErrTooManyInValues
		}
		switch ft {
		case FieldTypeUnspecified:
			ft = vt
		case vt:
		default:
			ft = FieldTypeAny
		}

		p.skipNewlines()
		switch sep := p.peek(); {
		case sep.kind == tokAnd && sep.text == ",":
			p.next()
		case sep.kind == tokRBracket:
		default:
			return nil, 0, p.unexpected(sep)
		}
	}
}

// finish builds the condition spanning from the start token to the last
// consumed token and drops form comparisons.
func (p *parser) finish(start token, field string, op, ft int, value any, values []any, ref []types.PathSegment) (types.Condition, bool, error) {
	path, err := ParseFieldPath(field)
	if err != nil {
		return types.Condition{}, false, err
	}
	if len(path) == 1 && strings.EqualFold(path[0].Key, "form") {
		return types.Condition{}, false, nil
	}

	end := p.toks[p.pos-1].end
	return types.Condition{
		Source:    strings.Join(strings.Fields(p.src[start.start:end]), " "),
		FieldPath: path,
		FieldRef:  ref,
		Operator:  op,
		FieldType: ft,
		Value:     value,
		Values:    values,
	}, true, nil
}
