package api

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

type ruleJSON struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Path     string `json:"path"`
	Text     string `json:"text"`
}

type resolveResponse struct {
	Form           string     `json:"form"`
	NormalizedForm string     `json:"normalized_form"`
	RuleNames      []string   `json:"rule_names"`
	Rules          []ruleJSON `json:"rules"`
}

type reportResponse struct {
	*types.Report
	Counts map[types.VerdictStatus]int `json:"counts"`
}

// toStruct converts v to a Struct through its JSON encoding, so json tags
// define the wire shape.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return structpb.NewStruct(m)
}

// fromStruct decodes a submission. A missing form is allowed and resolves
// to no rules.
func fromStruct(s *structpb.Struct) (*types.Submission, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("invalid submission: %w", err)
	}
	return types.DecodeSubmission(data)
}
