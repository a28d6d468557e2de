package rules

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

func mustCompile(t *testing.T, expr string) *CompiledCheck {
	t.Helper()
	check, err := ParseConditions(expr)
	if err != nil {
		t.Fatalf("ParseConditions(%q) error = %v", expr, err)
	}
	compiled, err := Compile(check)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", expr, err)
	}
	return compiled
}

func TestEvaluate(t *testing.T) {
	const ageRange = "age >= 18 && age <= 85"

	tests := []struct {
		name   string
		expr   string
		fields map[string]any
		want   types.VerdictStatus
	}{
		{"in range", ageRange, map[string]any{"age": float64(45)}, types.StatusPass},
		{"below range", ageRange, map[string]any{"age": float64(17)}, types.StatusFail},
		{"absent", ageRange, map[string]any{}, types.StatusNotApplicable},
		{"null", ageRange, map[string]any{"age": nil}, types.StatusNotApplicable},
		{"numeric string", ageRange, map[string]any{"age": "45"}, types.StatusPass},
		{"json number", ageRange, map[string]any{"age": json.Number("45")}, types.StatusPass},
		{"int value", ageRange, map[string]any{"age": 45}, types.StatusPass},
		{"non numeric string", ageRange, map[string]any{"age": "abc"}, types.StatusFail},
		{"boolean is not numeric", ageRange, map[string]any{"age": true}, types.StatusFail},
		{"case insensitive key", "Age >= 18", map[string]any{"age": float64(20)}, types.StatusPass},

		{"second group passes", "a == 1 || b == 2", map[string]any{"b": float64(2)}, types.StatusPass},
		{"failed and blocked groups", "a == 1 || b == 2", map[string]any{"a": float64(3)}, types.StatusNotApplicable},
		{"both groups fail", "a == 1 || b == 2", map[string]any{"a": float64(3), "b": float64(3)}, types.StatusFail},
		{"failure outranks missing", "a == 1 && b == 2", map[string]any{"a": float64(2)}, types.StatusFail},

		{"is null absent", "x is null", map[string]any{}, types.StatusPass},
		{"is null present", "x is null", map[string]any{"x": float64(1)}, types.StatusFail},
		{"is not null null", "x is not null", map[string]any{"x": nil}, types.StatusFail},
		{"exists present", "exists x", map[string]any{"x": "v"}, types.StatusPass},

		{"in list member", `sex in ["M", "F"]`, map[string]any{"sex": "F"}, types.StatusPass},
		{"in list non member", `sex in ["M", "F"]`, map[string]any{"sex": "X"}, types.StatusFail},
		{"numeric in list", "arm in [1, 2]", map[string]any{"arm": "2"}, types.StatusPass},

		{"iso date ordering", `visit_date >= "2024-01-01"`, map[string]any{"visit_date": "2024-05-01"}, types.StatusPass},
		{"iso date before", `visit_date >= "2024-01-01"`, map[string]any{"visit_date": "2023-12-31"}, types.StatusFail},

		{"field ref", "end >= start", map[string]any{"start": float64(5), "end": float64(10)}, types.StatusPass},
		{"field ref fails", "end >= start", map[string]any{"start": float64(5), "end": float64(1)}, types.StatusFail},
		{"field ref missing", "end >= start", map[string]any{"end": float64(10)}, types.StatusNotApplicable},
		{"field ref dates", "end >= start", map[string]any{"start": "2024-01-01", "end": "2024-02-01"}, types.StatusPass},

		{"nested path", "vitals.bp.systolic < 140",
			map[string]any{"vitals": map[string]any{"bp": map[string]any{"systolic": float64(120)}}}, types.StatusPass},
		{"array index", "visits[1].weight > 50",
			map[string]any{"visits": []any{map[string]any{"weight": float64(40)}, map[string]any{"weight": float64(60)}}},
			types.StatusPass},
		{"array index out of range", "visits[5].weight > 50",
			map[string]any{"visits": []any{}}, types.StatusNotApplicable},

		{"boolean string", "consent == true", map[string]any{"consent": "TRUE"}, types.StatusPass},
		{"boolean false", "consent == true", map[string]any{"consent": false}, types.StatusFail},
		{"number is not boolean", "consent == true", map[string]any{"consent": float64(1)}, types.StatusFail},

		{"text lenient", `site == "12"`, map[string]any{"site": float64(12)}, types.StatusPass},
		{"not equal text", `sex != "U"`, map[string]any{"sex": "M"}, types.StatusPass},
		{"startswith", `name startswith "Dr"`, map[string]any{"name": "Dr Who"}, types.StatusPass},
		{"endswith", `name endswith "Jr"`, map[string]any{"name": "Dr Who"}, types.StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(mustCompile(t, tt.expr), tt.fields)
			if result.Status != tt.want {
				t.Errorf("Evaluate() status = %v, want %v (reason %q)", result.Status, tt.want, result.Reason)
			}
		})
	}
}

func TestEvaluate_Reasons(t *testing.T) {
	check := mustCompile(t, "age >= 18 && age <= 85")

	tests := []struct {
		name   string
		fields map[string]any
		want   string
	}{
		{"pass", map[string]any{"age": float64(30)}, "conditions met: age >= 18 && age <= 85"},
		{"fail", map[string]any{"age": float64(90)}, "condition not met: age <= 85"},
		{"missing", map[string]any{}, "required field missing: age >= 18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(check, tt.fields).Reason; got != tt.want {
				t.Errorf("Reason = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckBlock(t *testing.T) {
	fields := map[string]any{"age": float64(45)}

	tests := []struct {
		name       string
		block      types.RuleBlock
		wantStatus types.VerdictStatus
		wantReason string
	}{
		{
			name:       "passing conditions",
			block:      types.RuleBlock{Name: "Age", Category: "cat", Body: `form == "Demography" conditions { age >= 18 }`},
			wantStatus: types.StatusPass,
			wantReason: "conditions met: age >= 18",
		},
		{
			name:       "no section",
			block:      types.RuleBlock{Name: "Plain", Body: `form == "Demography"`},
			wantStatus: types.StatusNotApplicable,
			wantReason: "no conditions section",
		},
		{
			name:       "only form comparisons",
			block:      types.RuleBlock{Name: "Form", Body: `conditions { form == "Demography" }`},
			wantStatus: types.StatusNotApplicable,
			wantReason: "no checkable conditions",
		},
		{
			name:       "unsupported syntax",
			block:      types.RuleBlock{Name: "Paren", Body: `conditions { (age > 1) }`},
			wantStatus: types.StatusNotApplicable,
			wantReason: "conditions not checkable: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := CheckBlock(tt.block, fields)
			if verdict.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", verdict.Status, tt.wantStatus)
			}
			if !strings.HasPrefix(verdict.Reason, tt.wantReason) {
				t.Errorf("Reason = %q, want prefix %q", verdict.Reason, tt.wantReason)
			}
			if verdict.RuleName != tt.block.Name || verdict.Category != tt.block.Category {
				t.Errorf("verdict identity = %q/%q, want %q/%q",
					verdict.RuleName, verdict.Category, tt.block.Name, tt.block.Category)
			}
		})
	}
}

func TestCheckAll(t *testing.T) {
	matches := []types.MatchedRule{
		{Block: types.RuleBlock{Name: "Adult", Body: "conditions { age >= 18 }"}, Category: "editchecks"},
		{Block: types.RuleBlock{Body: "conditions { sex is not null }"}, Category: "protocol"},
	}

	got := CheckAll(matches, map[string]any{"age": float64(12)})
	want := []types.RuleVerdict{
		{RuleName: "Adult", Category: "editchecks", Status: types.StatusFail, Reason: "condition not met: age >= 18"},
		{RuleName: types.UnnamedRule, Category: "protocol", Status: types.StatusFail, Reason: "condition not met: sex is not null"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CheckAll() mismatch (-want +got):\n%s", diff)
	}

	if got := CheckAll(nil, nil); got == nil || len(got) != 0 {
		t.Errorf("CheckAll(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestReferencedFields(t *testing.T) {
	text := `
rule "A" { form == "Demography" conditions { age >= 18 && sex in ["M", "F"] } }
rule "B" { conditions { Age < 100 || visits[0].date >= enrolled_on } }
rule "C" { form == "Demography" }
rule "D" { conditions { (broken) } }
`
	want := []string{"age", "sex", "visits", "enrolled_on"}
	if diff := cmp.Diff(want, ReferencedFields(text)); diff != "" {
		t.Errorf("ReferencedFields() mismatch (-want +got):\n%s", diff)
	}

	if got := ReferencedFields(""); got == nil || len(got) != 0 {
		t.Errorf("ReferencedFields(\"\") = %#v, want empty non-nil slice", got)
	}
}
