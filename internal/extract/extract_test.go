package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFields(t *testing.T) {
	patterns := []Pattern{
		MustPattern("age", `age[:\s]*([0-9]{1,3})`),
		MustPattern("weight", `weight[:\s]*([0-9.]+)`),
		MustPattern("site", `site[:\s]*([A-Z0-9-]+)`),
		MustPattern("bmi", `bmi[:\s]*([0-9.]+)`),
	}

	tests := []struct {
		name string
		text string
		want map[string]any
	}{
		{
			name: "typed values",
			text: "AGE: 45, Weight 70.5 kg, site US-12",
			want: map[string]any{"age": 45, "weight": 70.5, "site": "US-12"},
		},
		{
			name: "missing fields are absent",
			text: "age 30",
			want: map[string]any{"age": 30},
		},
		{
			name: "nothing matches",
			text: "no structured data here",
			want: map[string]any{},
		},
		{
			name: "unparsable dotted value stays text",
			text: "weight 1.2.3",
			want: map[string]any{"weight": "1.2.3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Fields(tt.text, patterns)); diff != "" {
				t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFields_ZeroPatternSkipped(t *testing.T) {
	got := Fields("age 3", []Pattern{{Field: "age"}})
	if len(got) != 0 {
		t.Errorf("Fields() = %v, want empty", got)
	}
}

func TestNewPattern_Errors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		expr  string
	}{
		{"no field", "", `(x)`},
		{"bad regexp", "x", `(`},
		{"no capture group", "x", `x\d+`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPattern(tt.field, tt.expr); err == nil {
				t.Errorf("NewPattern(%q, %q) error = nil, want error", tt.field, tt.expr)
			}
		})
	}
}

func TestPatternsFor(t *testing.T) {
	text := "Subject is a 45 year old. Age: 45; sex is F. Date of birth: 1979-03-02, weight=70.5 and height 180."
	patterns := PatternsFor([]string{"age", "sex", "date_of_birth", "weight", "height", "pulse", "_"})

	if len(patterns) != 6 {
		t.Fatalf("len(patterns) = %d, want 6", len(patterns))
	}

	want := map[string]any{
		"age":           45,
		"sex":           "F",
		"date_of_birth": "1979-03-02",
		"weight":        70.5,
		"height":        180,
	}
	if diff := cmp.Diff(want, Fields(text, patterns)); diff != "" {
		t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRules(t *testing.T) {
	ruleText := `
rule "Adult" { form == "Demography" conditions { age >= 18 && sex in ["M", "F"] } }
`
	got := FromRules("female, age 34, sex F", ruleText)
	want := map[string]any{"age": 34, "sex": "F"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromRules() mismatch (-want +got):\n%s", diff)
	}
}
