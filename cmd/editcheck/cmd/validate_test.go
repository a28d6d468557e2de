package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/assistant"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/corpus"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/engine"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "generated_rules_editchecks")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Demography.txt"),
		[]byte(`rule "Age Range" { form == "Demography" conditions { age >= 18 } }`), 0644))

	e, err := engine.New(corpus.NewFreshIndexer(root, nil), assistant.NewLocal(nil), engine.Config{})
	require.NoError(t, err)
	return e
}

func TestValidateSessionPrompts(t *testing.T) {
	e := testEngine(t)
	in := strings.NewReader("demography\nPatient age: 45\n")
	var out bytes.Buffer

	require.NoError(t, validateSession(context.Background(), e, in, &out, "", ""))

	got := out.String()
	assert.Contains(t, got, "Enter form name (e.g., Demography):\n> ")
	assert.Contains(t, got, "Normalized form name: demography\n")
	assert.Contains(t, got, "Enter clinical form input (natural language):\n> ")
	assert.Contains(t, got, "Reconstructed structured JSON data:")
	assert.Contains(t, got, `"age": 45`)
	assert.Contains(t, got, "Validation report:")
	assert.Contains(t, got, "✅ Rule: Age Range")
	assert.Contains(t, got, "Summary: 1 passed, 0 failed, 0 not applicable.")
}

func TestValidateSessionUsesFlags(t *testing.T) {
	e := testEngine(t)
	var out bytes.Buffer

	require.NoError(t, validateSession(context.Background(), e, strings.NewReader(""), &out, "Demography", "age: 12"))

	got := out.String()
	assert.NotContains(t, got, "Enter form name")
	assert.NotContains(t, got, "Enter clinical form input")
	assert.Contains(t, got, "❌ Rule: Age Range")
}

func TestValidateSessionReferenceNotFound(t *testing.T) {
	e := testEngine(t)
	var out bytes.Buffer

	err := validateSession(context.Background(), e, strings.NewReader(""), &out, "Vitals", "hr 60")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out.String(), `❌ Reference rules not found for form "Vitals"`)
	assert.NotContains(t, out.String(), "Validation report")
}

func TestValidateSessionNoMatches(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "generated_rules_editchecks")
	require.NoError(t, os.MkdirAll(dir, 0755))
	// Reference text exists but no block declares the form.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Demography.txt"),
		[]byte(`rule "Orphan" { conditions { age >= 18 } }`), 0644))
	e, err := engine.New(corpus.NewFreshIndexer(root, nil), assistant.NewLocal(nil), engine.Config{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, validateSession(context.Background(), e, strings.NewReader(""), &out, "Demography", "age: 30"))
	assert.Contains(t, out.String(), engine.NoMatchChunk)
}
