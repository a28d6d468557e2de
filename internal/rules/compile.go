// internal/rules/compile.go
package rules

import (
	"fmt"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

/*
 * Check compilation and validation.
 *
 * Compiles types.Check to CompiledCheck with typed operators and validated
 * resource limits. Enforcing limits here moves error detection to parse
 * time rather than evaluation time.
 *
 * Conditions keep their authored order so the condition reported in a
 * verdict reason is stable across identical inputs.
 */

// CompiledCondition is a pre-processed condition ready for evaluation.
type CompiledCondition struct {
	Source    string
	Path      []types.PathSegment
	Operator  Operator
	FieldType FieldType
	Value     any                 // comparison value (nil for exists/is_null)
	Values    []any               // for IN operator
	FieldRef  []types.PathSegment // for cross-field comparison (mutually exclusive with Value)
}

// CompiledOrGroup is a pre-processed AND group.
type CompiledOrGroup struct {
	Conditions []CompiledCondition
}

// CompiledCheck is fully pre-processed and ready for evaluation.
type CompiledCheck struct {
	RuleName string
	OrGroups []CompiledOrGroup
}

// Compile validates and pre-processes a check for evaluation.
func Compile(check *types.Check) (*CompiledCheck, error) {
	if check == nil || len(check.OrGroups) == 0 {
		return nil, types.ErrEmptyExpression
	}

	compiled := &CompiledCheck{
		RuleName: check.RuleName,
		OrGroups: make([]CompiledOrGroup, 0, len(check.OrGroups)),
	}

	for _, group := range check.OrGroups {
		if len(group.Conditions) == 0 {
			return nil, types.ErrEmptyExpression
		}
		compiledGroup := CompiledOrGroup{
			Conditions: make([]CompiledCondition, 0, len(group.Conditions)),
		}
		for _, cond := range group.Conditions {
			cc, err := compileCondition(cond)
			if err != nil {
				return nil, err
			}
			compiledGroup.Conditions = append(compiledGroup.Conditions, cc)
		}
		compiled.OrGroups = append(compiled.OrGroups, compiledGroup)
	}

	return compiled, nil
}

// compileCondition validates a single condition.
// Enforces path depth and IN value limits.
func compileCondition(cond types.Condition) (CompiledCondition, error) {
	if len(cond.FieldPath) == 0 {
		return CompiledCondition{}, fmt.Errorf("%w: condition without field", types.ErrUnsupportedCondition)
	}
	if len(cond.FieldPath) > types.MaxPathDepth || len(cond.FieldRef) > types.MaxPathDepth {
		return CompiledCondition{}, types.ErrPathTooDeep
	}

	op := Operator(cond.Operator)
	if op <= OpUnspecified || op > OpIsNull {
		return CompiledCondition{}, fmt.Errorf("%w: operator %d", types.ErrUnsupportedCondition, cond.Operator)
	}

	ft := FieldType(cond.FieldType)
	if ft == FieldTypeUnspecified {
		ft = FieldTypeAny
	}

	if op == OpIn && len(cond.Values) > types.MaxInOperatorValues {
		return CompiledCondition{}, types.ErrTooManyInValues
	}

	source := cond.Source
	if source == "" {
		source = FormatFieldPath(cond.FieldPath) + " " + op.String()
	}

	return CompiledCondition{
		Source:    source,
		Path:      cond.FieldPath,
		Operator:  op,
		FieldType: ft,
		Value:     cond.Value,
		Values:    cond.Values,
		FieldRef:  cond.FieldRef,
	}, nil
}
