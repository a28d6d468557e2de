// internal/types/rules.go
package types

/*
 * Check types for the deterministic rule checker.
 *
 * A rule block's `conditions { ... }` section compiles into a Check in
 * disjunctive normal form: the check passes when any OrGroup has all of its
 * Conditions satisfied.
 *
 * Key types:
 *   - Check: compiled conditions of one rule block
 *   - OrGroup: AND group (all conditions must match)
 *   - Condition: single comparison with field path and operator
 *   - PathSegment: one component of a field path (key or index)
 */

// PathSegment represents one component of a field path.
type PathSegment struct {
	Key     string // object key (mutually exclusive with Index)
	Index   int    // array index
	IsIndex bool   // disambiguates Index=0 from unset
}

// Condition represents a single comparison in a rule's conditions section.
type Condition struct {
	Source    string        // condition text as authored, for reasons
	FieldPath []PathSegment // path into submission fields
	FieldRef  []PathSegment // comparison field (mutually exclusive with Value)
	Operator  int           // operator enum value
	FieldType int           // field type enum value
	Value     any           // comparison value (nil for exists/is_null)
	Values    []any         // for IN operator
}

// OrGroup represents an AND group in DNF (all conditions must match).
type OrGroup struct {
	Conditions []Condition
}

// Check is the compiled conditions section of one rule block.
type Check struct {
	RuleName string
	OrGroups []OrGroup
}

// Resource limits enforced by the checker.
const (
	// MaxPathDepth bounds dotted field paths such as vitals.bp.systolic.
	MaxPathDepth = 16

	// MaxInOperatorValues bounds the literal list of an `in [...]` comparison.
	MaxInOperatorValues = 64
)
