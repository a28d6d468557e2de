// internal/rules/operators.go
package rules

import (
	"strings"
)

/*
 * Operator comparison logic.
 *
 * Values should already be coerced via Coerce() before reaching Compare().
 *
 *   - exists/is_null: null checks
 *   - eq/neq: equality, numeric kinds compared as float64
 *   - lt/lte/gt/gte: numeric, or lexicographic when both sides are strings
 *     (ISO-8601 dates such as "2024-05-01" order correctly that way)
 *   - prefix/suffix: string prefix/suffix matching
 *   - in: membership with equality semantics
 */

// Operator is a condition comparison operator.
type Operator int

const (
	OpUnspecified Operator = iota
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpPrefix
	OpSuffix
	OpIn
	OpExists
	OpIsNull
)

// String returns the operator as written in rule text.
func (op Operator) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpPrefix:
		return "startswith"
	case OpSuffix:
		return "endswith"
	case OpIn:
		return "in"
	case OpExists:
		return "exists"
	case OpIsNull:
		return "is null"
	default:
		return "?"
	}
}

// Compare applies the operator to compare value against target.
func Compare(op Operator, value, target any) bool {
	switch op {
	case OpExists:
		return value != nil
	case OpIsNull:
		return value == nil
	case OpEq:
		return compareEqual(value, target)
	case OpNeq:
		return !compareEqual(value, target)
	case OpLt, OpLte, OpGt, OpGte:
		cmp, ok := compareOrdered(value, target)
		if !ok {
			return false
		}
		switch op {
		case OpLt:
			return cmp < 0
		case OpLte:
			return cmp <= 0
		case OpGt:
			return cmp > 0
		default:
			return cmp >= 0
		}
	case OpPrefix:
		vs, ok1 := value.(string)
		ps, ok2 := target.(string)
		return ok1 && ok2 && strings.HasPrefix(vs, ps)
	case OpSuffix:
		vs, ok1 := value.(string)
		ss, ok2 := target.(string)
		return ok1 && ok2 && strings.HasSuffix(vs, ss)
	case OpIn:
		return compareIn(value, target)
	default:
		return false
	}
}

// compareEqual performs equality comparison with numeric type coercion.
func compareEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	return a == b
}

// compareOrdered performs three-way comparison (-1/0/1).
// ok is false for incomparable types.
func compareOrdered(a, b any) (int, bool) {
	if na, nb, ok := asNumbers(a, b); ok {
		switch {
		case na < nb:
			return -1, true
		case na > nb:
			return 1, true
		default:
			return 0, true
		}
	}
	sa, ok1 := a.(string)
	sb, ok2 := b.(string)
	if ok1 && ok2 {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

// asNumbers converts both values to float64 for numeric comparison.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

// toFloat64 converts value to float64 if it's a numeric type.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// compareIn checks if value exists in set using equality semantics.
func compareIn(value, set any) bool {
	arr, ok := set.([]any)
	if !ok {
		return false
	}
	for _, elem := range arr {
		if compareEqual(value, elem) {
			return true
		}
	}
	return false
}
