package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/assistant"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

var checkCmd = &cobra.Command{
	Use:   "check <submission.json|->",
	Short: "Check a submission against its rules without a language model",
	Long: `Evaluates the conditions of every matching rule against the submission fields
and prints one verdict per rule. With --strict, exits with status 1 when any
rule fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	checkCmd.Flags().Bool("strict", false, "exit with status 1 when any rule fails")
}

func runCheck(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	strict, _ := cmd.Flags().GetBool("strict")

	sub, err := readSubmission(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	e, cleanup, err := newEngine(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := e.Validate(sub)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if output == "text" {
		for _, v := range report.Verdicts {
			fmt.Fprint(out, assistant.FormatVerdict(v))
		}
		counts := report.Counts()
		fmt.Fprintf(out, "Summary: %d passed, %d failed, %d not applicable.\n",
			counts[types.StatusPass], counts[types.StatusFail], counts[types.StatusNotApplicable])
	} else if err := writeOutput(out, output, report); err != nil {
		return err
	}

	if strict && report.Counts()[types.StatusFail] > 0 {
		return errReported
	}
	return nil
}
