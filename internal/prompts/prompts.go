// Package prompts holds the language-model prompt templates.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed *.tmpl
var PromptsFolder embed.FS

const (
	PromptStructuredDataSystem   = "structured_data_system"
	PromptStructuredDataUser     = "structured_data_user"
	PromptValidationReportSystem = "validation_report_system"
	PromptValidationReportUser   = "validation_report_user"
)

// Prompts renders named templates.
type Prompts struct {
	templates *template.Template
}

// New parses every template in PromptsFolder.
func New() (*Prompts, error) {
	templates, err := template.New("").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
	}).ParseFS(PromptsFolder, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	return &Prompts{templates: templates}, nil
}

// Format renders the template called name with data.
func (p *Prompts) Format(name string, data any) (string, error) {
	tmpl := p.templates.Lookup(name + ".tmpl")
	if tmpl == nil {
		return "", fmt.Errorf("prompt %q not found", name)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// StructuredData is the input of the structured data prompts.
type StructuredData struct {
	FormName      string
	Input         string
	ReferenceText string
}

// ValidationReport is the input of the validation report prompts.
type ValidationReport struct {
	FormData string
	Rules    []ReportRule
}

// ReportRule is one matched rule shown to the model.
type ReportRule struct {
	Name     string
	Category string
	Text     string
}
