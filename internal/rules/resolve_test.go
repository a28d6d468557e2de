package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

func writeRuleFile(t *testing.T, dir, category, name, content string) string {
	t.Helper()
	catDir := filepath.Join(dir, category)
	if err := os.MkdirAll(catDir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	path := filepath.Join(catDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

const demographyRules = `
rule "Lower" { form == "demography" }
rule "Upper" { form == "DEMOGRAPHY" }
rule "Padded" { form == "Demography " }
rule "Other Form" { form == "Demographics" }
rule "No Form" { conditions { age > 0 } }
`

func TestResolve_Precision(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleFile(t, dir, "generated_rules_editchecks", "Demography.txt", demographyRules)

	matches := Resolve("Demography", []string{path})

	if diff := cmp.Diff([]string{"Lower", "Upper", "Padded"}, RuleNames(matches)); diff != "" {
		t.Errorf("RuleNames() mismatch (-want +got):\n%s", diff)
	}
	for _, m := range matches {
		if m.Category != "generated_rules_editchecks" || m.Block.Category != "generated_rules_editchecks" {
			t.Errorf("match %q category = %q/%q", m.Block.Name, m.Category, m.Block.Category)
		}
		if m.Path != path {
			t.Errorf("match %q path = %q, want %q", m.Block.Name, m.Path, path)
		}
	}
}

func TestResolve_IgnoresDottedFormField(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleFile(t, dir, "generated_rules_editchecks", "Visit.txt",
		`rule "Cross" { form == "Vitals" conditions { visit.form == "Demography" } }`)

	if got := Resolve("Demography", []string{path}); len(got) != 0 {
		t.Errorf("Resolve(Demography) = %v, want no matches", RuleNames(got))
	}
	if diff := cmp.Diff([]string{"Cross"}, RuleNames(Resolve("Vitals", []string{path}))); diff != "" {
		t.Errorf("Resolve(Vitals) mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_SkipsDeletedFile(t *testing.T) {
	dir := t.TempDir()
	kept := writeRuleFile(t, dir, "cat", "Demography.txt", `rule "Kept" { form == "Demography" }`)
	gone := writeRuleFile(t, dir, "cat", "Demography_old.txt", `rule "Gone" { form == "Demography" }`)
	if err := os.Remove(gone); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	matches := NewResolver(nil).Resolve("Demography", []string{gone, kept})

	if diff := cmp.Diff([]string{"Kept"}, RuleNames(matches)); diff != "" {
		t.Errorf("RuleNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_KeepsDuplicatesAcrossCategories(t *testing.T) {
	dir := t.TempDir()
	rule := `rule "Same" { form == "Vitals" }`
	a := writeRuleFile(t, dir, "a", "Vitals.txt", rule)
	b := writeRuleFile(t, dir, "b", "Vitals.txt", rule)

	matches := Resolve("vitals", []string{a, b})
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Category != "a" || matches[1].Category != "b" {
		t.Errorf("categories = %q, %q, want a, b", matches[0].Category, matches[1].Category)
	}
}

func TestResolve_EmptyForm(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleFile(t, dir, "cat", "Demography.txt", demographyRules)

	for _, form := range []string{"", "   ", "!!"} {
		if got := Resolve(form, []string{path}); got != nil {
			t.Errorf("Resolve(%q) = %v, want nil", form, got)
		}
	}
}

func TestResolve_SynonymForms(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleFile(t, dir, "cat", "Inclusion.txt",
		`rule "IE" { form == "Inclusion/Exclusion Criteria" }`)

	matches := Resolve("Exclusion Criteria", []string{path})
	if diff := cmp.Diff([]string{"IE"}, RuleNames(matches)); diff != "" {
		t.Errorf("RuleNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleNames(t *testing.T) {
	if got := RuleNames(nil); got == nil || len(got) != 0 {
		t.Errorf("RuleNames(nil) = %#v, want empty non-nil slice", got)
	}

	matches := []types.MatchedRule{
		{Block: types.RuleBlock{Name: "Named"}},
		{Block: types.RuleBlock{Name: ""}},
		{Block: types.RuleBlock{Name: "  "}},
	}
	want := []string{"Named", types.UnnamedRule, types.UnnamedRule}
	if diff := cmp.Diff(want, RuleNames(matches)); diff != "" {
		t.Errorf("RuleNames() mismatch (-want +got):\n%s", diff)
	}
}
