package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

func TestCompile_SimpleCheck(t *testing.T) {
	check := &types.Check{
		RuleName: "simple-check",
		OrGroups: []types.OrGroup{
			{
				Conditions: []types.Condition{
					{
						FieldPath: []types.PathSegment{{Key: "subject"}},
						Operator:  int(OpExists),
						FieldType: int(FieldTypeAny),
					},
				},
			},
		},
	}

	compiled, err := Compile(check)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}

	if compiled.RuleName != "simple-check" {
		t.Errorf("RuleName = %v, want %v", compiled.RuleName, "simple-check")
	}
	if len(compiled.OrGroups) != 1 {
		t.Fatalf("len(OrGroups) = %v, want 1", len(compiled.OrGroups))
	}
	if len(compiled.OrGroups[0].Conditions) != 1 {
		t.Fatalf("len(Conditions) = %v, want 1", len(compiled.OrGroups[0].Conditions))
	}
	cond := compiled.OrGroups[0].Conditions[0]
	if cond.Operator != OpExists {
		t.Errorf("Operator = %v, want %v", cond.Operator, OpExists)
	}
	if cond.Source != "subject exists" {
		t.Errorf("Source = %q, want %q", cond.Source, "subject exists")
	}
}

func TestCompile_PreservesConditionOrder(t *testing.T) {
	check, err := ParseConditions(`c == 3 && a in [1, 2] && b is null || z == 1`)
	if err != nil {
		t.Fatalf("ParseConditions() error = %v, want nil", err)
	}

	compiled, err := Compile(check)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}

	if len(compiled.OrGroups) != 2 {
		t.Fatalf("len(OrGroups) = %v, want 2", len(compiled.OrGroups))
	}
	var got []string
	for _, cond := range compiled.OrGroups[0].Conditions {
		got = append(got, cond.Source)
	}
	want := []string{"c == 3", "a in [1, 2]", "b is null"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("condition order = %v, want %v", got, want)
	}
}

func TestCompile_DefaultsFieldType(t *testing.T) {
	check := &types.Check{OrGroups: []types.OrGroup{{Conditions: []types.Condition{{
		FieldPath: []types.PathSegment{{Key: "x"}},
		Operator:  int(OpEq),
		Value:     "y",
	}}}}}

	compiled, err := Compile(check)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if ft := compiled.OrGroups[0].Conditions[0].FieldType; ft != FieldTypeAny {
		t.Errorf("FieldType = %v, want %v", ft, FieldTypeAny)
	}
}

func TestCompile_Errors(t *testing.T) {
	deep := make([]types.PathSegment, types.MaxPathDepth+1)
	for i := range deep {
		deep[i] = types.PathSegment{Key: "k"}
	}
	manyValues := make([]any, types.MaxInOperatorValues+1)
	for i := range manyValues {
		manyValues[i] = float64(i)
	}
	single := func(cond types.Condition) *types.Check {
		return &types.Check{OrGroups: []types.OrGroup{{Conditions: []types.Condition{cond}}}}
	}

	tests := []struct {
		name    string
		check   *types.Check
		wantErr error
	}{
		{"nil check", nil, types.ErrEmptyExpression},
		{"no groups", &types.Check{}, types.ErrEmptyExpression},
		{"empty group", &types.Check{OrGroups: []types.OrGroup{{}}}, types.ErrEmptyExpression},
		{
			"path too deep",
			single(types.Condition{FieldPath: deep, Operator: int(OpExists)}),
			types.ErrPathTooDeep,
		},
		{
			"field ref too deep",
			single(types.Condition{FieldPath: []types.PathSegment{{Key: "a"}}, FieldRef: deep, Operator: int(OpEq)}),
			types.ErrPathTooDeep,
		},
		{
			"too many in values",
			single(types.Condition{FieldPath: []types.PathSegment{{Key: "a"}}, Operator: int(OpIn), Values: manyValues}),
			types.ErrTooManyInValues,
		},
		{
			"unspecified operator",
			single(types.Condition{FieldPath: []types.PathSegment{{Key: "a"}}}),
			types.ErrUnsupportedCondition,
		},
		{
			"out of range operator",
			single(types.Condition{FieldPath: []types.PathSegment{{Key: "a"}}, Operator: 99}),
			types.ErrUnsupportedCondition,
		},
		{
			"missing field path",
			single(types.Condition{Operator: int(OpExists)}),
			types.ErrUnsupportedCondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.check)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
