// internal/rules/evaluate.go
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

/*
 * Check evaluation.
 *
 * Evaluates a CompiledCheck against submission fields with DNF semantics
 * (OR of AND groups). Each condition has three outcomes:
 *
 *   match    - comparison holds
 *   nomatch  - comparison fails, or the value has the wrong shape
 *   missing  - the field (or compared field) is absent or null
 *
 * A group matches when all of its conditions match. A group is blocked when
 * none of its conditions fail but at least one is missing. The verdict is
 * PASS when any group matches, NOT_APPLICABLE when no group matches but one
 * is blocked, and FAIL otherwise.
 *
 * `is null` and `exists` inspect presence directly and never report missing.
 */

type outcome int

const (
	outcomeMatch outcome = iota
	outcomeNoMatch
	outcomeMissing
)

// CheckResult is the outcome of evaluating one compiled check.
type CheckResult struct {
	Status types.VerdictStatus
	Reason string
}

// Evaluate checks the compiled conditions against fields.
func Evaluate(check *CompiledCheck, fields map[string]any) CheckResult {
	var firstFailed, firstMissing string

	for _, group := range check.OrGroups {
		result, cond := evaluateGroup(group, fields)
		switch result {
		case outcomeMatch:
			return CheckResult{
				Status: types.StatusPass,
				Reason: "conditions met: " + groupSource(group),
			}
		case outcomeMissing:
			if firstMissing == "" {
				firstMissing = cond.Source
			}
		default:
			if firstFailed == "" {
				firstFailed = cond.Source
			}
		}
	}

	if firstMissing != "" {
		return CheckResult{
			Status: types.StatusNotApplicable,
			Reason: "required field missing: " + firstMissing,
		}
	}
	return CheckResult{
		Status: types.StatusFail,
		Reason: "condition not met: " + firstFailed,
	}
}

// evaluateGroup reports the group outcome and the condition that decided it.
// A failing condition outranks a missing one.
func evaluateGroup(group CompiledOrGroup, fields map[string]any) (outcome, CompiledCondition) {
	result := outcomeMatch
	var missing CompiledCondition

	for _, cond := range group.Conditions {
		switch evaluateCondition(cond, fields) {
		case outcomeNoMatch:
			return outcomeNoMatch, cond
		case outcomeMissing:
			if result == outcomeMatch {
				result = outcomeMissing
				missing = cond
			}
		}
	}

	return result, missing
}

// evaluateCondition orchestrates: resolve path -> coerce type -> compare operator.
func evaluateCondition(cond CompiledCondition, fields map[string]any) outcome {
	value, present := lookup(cond.Path, fields)

	switch cond.Operator {
	case OpIsNull:
		return boolOutcome(!present)
	case OpExists:
		return boolOutcome(present)
	}
	if !present {
		return outcomeMissing
	}

	coerced, err := Coerce(value, cond.FieldType)
	if err != nil {
		return outcomeNoMatch
	}

	var target any
	switch {
	case len(cond.FieldRef) > 0:
		refValue, ok := lookup(cond.FieldRef, fields)
		if !ok {
			return outcomeMissing
		}
		refCoerced, err := Coerce(refValue, cond.FieldType)
		if err != nil {
			return outcomeNoMatch
		}
		target = refCoerced.Value
	case cond.Operator == OpIn:
		target = cond.Values
	default:
		target = cond.Value
	}

	return boolOutcome(Compare(cond.Operator, coerced.Value, target))
}

// lookup resolves path and reports whether a non-null value is present.
func lookup(path []types.PathSegment, fields map[string]any) (any, bool) {
	resolved, err := ResolveField(path, fields)
	if err != nil || !resolved.Found || resolved.Value == nil {
		return nil, false
	}
	return resolved.Value, true
}

func boolOutcome(ok bool) outcome {
	if ok {
		return outcomeMatch
	}
	return outcomeNoMatch
}

func groupSource(group CompiledOrGroup) string {
	parts := make([]string, 0, len(group.Conditions))
	for _, cond := range group.Conditions {
		parts = append(parts, cond.Source)
	}
	return strings.Join(parts, " && ")
}

// CheckBlock evaluates the conditions section of block against fields.
// Blocks without a usable conditions section are NOT_APPLICABLE.
func CheckBlock(block types.RuleBlock, fields map[string]any) types.RuleVerdict {
	verdict := types.RuleVerdict{
		RuleName: block.DisplayName(),
		Category: block.Category,
	}

	check, err := ParseCheck(block)
	if err == nil {
		var compiled *CompiledCheck
		if compiled, err = Compile(check); err == nil {
			result := Evaluate(compiled, fields)
			verdict.Status = result.Status
			verdict.Reason = result.Reason
			return verdict
		}
	}

	verdict.Status = types.StatusNotApplicable
	switch {
	case errors.Is(err, types.ErrNoConditions):
		verdict.Reason = "no conditions section"
	case errors.Is(err, types.ErrEmptyExpression):
		verdict.Reason = "no checkable conditions"
	default:
		verdict.Reason = fmt.Sprintf("conditions not checkable: %v", err)
	}
	return verdict
}

// CheckAll evaluates every matched rule in order.
func CheckAll(matches []types.MatchedRule, fields map[string]any) []types.RuleVerdict {
	verdicts := make([]types.RuleVerdict, 0, len(matches))
	for _, m := range matches {
		block := m.Block
		if block.Category == "" {
			block.Category = m.Category
		}
		verdicts = append(verdicts, CheckBlock(block, fields))
	}
	return verdicts
}

// ReferencedFields lists the top-level submission fields that the
// conditions of every rule block in text refer to, in first-seen order.
// Blocks whose conditions cannot be parsed are skipped.
func ReferencedFields(text string) []string {
	seen := make(map[string]bool)
	fields := []string{}
	add := func(path []types.PathSegment) {
		if len(path) == 0 || path[0].IsIndex {
			return
		}
		key := path[0].Key
		if seen[strings.ToLower(key)] {
			return
		}
		seen[strings.ToLower(key)] = true
		fields = append(fields, key)
	}

	for _, block := range ExtractRuleBlocks(text) {
		check, err := ParseCheck(block)
		if err != nil {
			continue
		}
		for _, group := range check.OrGroups {
			for _, cond := range group.Conditions {
				add(cond.FieldPath)
				add(cond.FieldRef)
			}
		}
	}
	return fields
}
