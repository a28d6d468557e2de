package types

import "errors"

// Sentinel errors for editcheck operations.
var (
	// ErrCorpusUnavailable indicates the rule root is missing or not a directory.
	// Fatal to any resolution attempt.
	ErrCorpusUnavailable = errors.New("rule corpus unavailable")

	// ErrReferenceNotFound indicates no reference rule text exists for a form name.
	ErrReferenceNotFound = errors.New("reference rules not found")

	// ErrExternalCollaborator indicates the language-model collaborator failed
	// or returned output that could not be used.
	ErrExternalCollaborator = errors.New("external collaborator failure")

	// ErrNoConditions indicates a rule block has no conditions section.
	ErrNoConditions = errors.New("rule has no conditions section")

	// ErrEmptyExpression indicates a rule has no evaluable conditions.
	ErrEmptyExpression = errors.New("rule has no evaluable conditions")

	// ErrUnsupportedCondition indicates condition text outside the checker grammar.
	ErrUnsupportedCondition = errors.New("unsupported condition syntax")

	// ErrPathTooDeep indicates a field path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("field path exceeds maximum depth")

	// ErrTooManyInValues indicates an IN list exceeds MaxInOperatorValues.
	ErrTooManyInValues = errors.New("IN operator has too many values")

	// ErrCoercionFailed indicates type coercion failed.
	ErrCoercionFailed = errors.New("type coercion failed")

	// ErrFieldNotFound indicates a field path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")
)
