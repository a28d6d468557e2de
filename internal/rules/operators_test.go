package rules

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name   string
		op     Operator
		value  any
		target any
		want   bool
	}{
		{"eq numbers", OpEq, 5.0, 5.0, true},
		{"eq mixed numeric kinds", OpEq, 5.0, 5, true},
		{"eq strings", OpEq, "a", "a", true},
		{"eq bools", OpEq, true, false, false},
		{"eq string vs number", OpEq, "5", 5.0, false},
		{"neq", OpNeq, "a", "b", true},
		{"lt", OpLt, 1.0, 2.0, true},
		{"lte equal", OpLte, 2.0, 2.0, true},
		{"gt", OpGt, 3.0, 2.0, true},
		{"gte less", OpGte, 1.0, 2.0, false},
		{"lt strings", OpLt, "2024-01-01", "2024-02-01", true},
		{"gt string vs number", OpGt, "b", 1.0, false},
		{"gt bools", OpGt, true, false, false},
		{"prefix", OpPrefix, "US-123", "US-", true},
		{"prefix non string", OpPrefix, 12.0, "1", false},
		{"suffix", OpSuffix, "file.txt", ".txt", true},
		{"in member", OpIn, "b", []any{"a", "b"}, true},
		{"in numeric member", OpIn, 2.0, []any{1.0, 2.0}, true},
		{"in non member", OpIn, "c", []any{"a", "b"}, false},
		{"in non list", OpIn, "a", "a", false},
		{"exists", OpExists, "x", nil, true},
		{"exists nil", OpExists, nil, nil, false},
		{"is null", OpIsNull, nil, nil, true},
		{"unspecified", OpUnspecified, 1.0, 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.op, tt.value, tt.target); got != tt.want {
				t.Errorf("Compare(%v, %#v, %#v) = %v, want %v", tt.op, tt.value, tt.target, got, tt.want)
			}
		})
	}
}

func TestOperator_String(t *testing.T) {
	tests := map[Operator]string{
		OpEq: "==", OpNeq: "!=", OpLt: "<", OpLte: "<=", OpGt: ">", OpGte: ">=",
		OpPrefix: "startswith", OpSuffix: "endswith", OpIn: "in",
		OpExists: "exists", OpIsNull: "is null", OpUnspecified: "?",
	}
	for op, want := range tests {
		if got := op.String(); got != want {
			t.Errorf("Operator(%d).String() = %q, want %q", int(op), got, want)
		}
	}
}

// Property-based test: ordering operators are consistent with each other
func TestCompare_PropertyOrderingConsistent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("lt, eq and gt partition numeric pairs", prop.ForAll(
		func(a, b int) bool {
			x, y := float64(a), float64(b)
			n := 0
			for _, op := range []Operator{OpLt, OpEq, OpGt} {
				if Compare(op, x, y) {
					n++
				}
			}
			return n == 1 &&
				Compare(OpLte, x, y) == (Compare(OpLt, x, y) || Compare(OpEq, x, y)) &&
				Compare(OpGte, x, y) == !Compare(OpLt, x, y) &&
				Compare(OpNeq, x, y) == !Compare(OpEq, x, y)
		},
		gen.IntRange(-1000, 1000),
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}
