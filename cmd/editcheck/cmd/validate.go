package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/engine"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/forms"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Convert free text into a submission and stream its validation report",
	Long: `Prompts for a form name and a free-text description of the form, prints the
reconstructed submission JSON and streams the validation report.

Exits with status 1 when the corpus has no reference rules for the form.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("form", "", "form name (prompted when empty)")
	validateCmd.Flags().String("text", "", "free-text form input (prompted when empty)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, cleanup, err := newEngine(ctx, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	form, _ := cmd.Flags().GetString("form")
	text, _ := cmd.Flags().GetString("text")
	return validateSession(ctx, e, cmd.InOrStdin(), cmd.OutOrStdout(), form, text)
}

// validateSession runs one interactive validation. Missing form or text is
// read from in, one line each.
func validateSession(ctx context.Context, e *engine.Engine, in io.Reader, out io.Writer, form, text string) error {
	reader := bufio.NewReader(in)

	if form == "" {
		fmt.Fprint(out, "Enter form name (e.g., Demography):\n> ")
		form = readLine(reader)
	}
	fmt.Fprintf(out, "Normalized form name: %s\n", forms.Normalize(form))

	if _, err := e.Reference(form); err != nil {
		if errors.Is(err, types.ErrReferenceNotFound) {
			fmt.Fprintf(out, "❌ Reference rules not found for form %q in any rule folder.\n", form)
			return errReported
		}
		return err
	}

	if text == "" {
		fmt.Fprint(out, "\nEnter clinical form input (natural language):\n> ")
		text = readLine(reader)
	}

	sub, err := e.ConvertToSubmission(ctx, text, form)
	if err != nil {
		return err
	}
	if sub.Form == "" {
		sub.Form = form
	}
	data, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nReconstructed structured JSON data:\n%s\n", data)

	fmt.Fprint(out, "\nValidation report:\n\n")
	for chunk := range e.StreamValidation(ctx, sub) {
		fmt.Fprint(out, chunk)
	}
	fmt.Fprintln(out)
	return ctx.Err()
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
