package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/forms"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <submission.json|->",
	Short: "List the rules that apply to a submission",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringP("output", "o", "json", "output format (json, yaml)")
}

type resolvedRule struct {
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Path     string `json:"path" yaml:"path"`
	Text     string `json:"text" yaml:"text"`
}

type resolveOutput struct {
	Form           string         `json:"form" yaml:"form"`
	NormalizedForm string         `json:"normalized_form" yaml:"normalized_form"`
	RuleNames      []string       `json:"rule_names" yaml:"rule_names"`
	Rules          []resolvedRule `json:"rules" yaml:"rules"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	sub, err := readSubmission(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	e, cleanup, err := newEngine(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer cleanup()

	names, matches, err := e.ResolveRuleSummary(sub)
	if err != nil {
		return err
	}

	result := resolveOutput{
		Form:           sub.Form,
		NormalizedForm: forms.Normalize(sub.Form),
		RuleNames:      names,
		Rules:          make([]resolvedRule, 0, len(matches)),
	}
	for _, m := range matches {
		result.Rules = append(result.Rules, resolvedRule{
			Name:     m.Block.DisplayName(),
			Category: m.Category,
			Path:     m.Path,
			Text:     m.Block.RawText,
		})
	}
	return writeOutput(cmd.OutOrStdout(), output, result)
}
