package assistant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/extract"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/llm"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/rules"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

var statusMarks = map[types.VerdictStatus]string{
	types.StatusPass:          "✅",
	types.StatusFail:          "❌",
	types.StatusNotApplicable: "⚠️",
}

// Local is a deterministic collaborator. Structured data comes from
// pattern extraction over the fields the reference rules mention; reports
// come from the rule checker.
type Local struct {
	logger *zap.Logger
}

func NewLocal(logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{logger: logger}
}

// GenerateStructuredData extracts `name: value` pairs for every field the
// conditions in referenceText refer to.
func (l *Local) GenerateStructuredData(ctx context.Context, nlInput, referenceText, formName string) (*types.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrExternalCollaborator, err)
	}
	fields := extract.FromRules(nlInput, referenceText)
	l.logger.Debug("extracted fields", zap.String("form", formName), zap.Int("count", len(fields)))
	return &types.Submission{Form: formName, Fields: fields}, nil
}

// StreamValidationReport streams one section per rule verdict followed by
// a summary line.
func (l *Local) StreamValidationReport(ctx context.Context, sub *types.Submission, matches []types.MatchedRule) (*llm.TextStreamResult, error) {
	report := &types.Report{Form: sub.Form, Verdicts: rules.CheckAll(matches, sub.Fields)}

	chunks := make([]string, 0, len(report.Verdicts)+2)
	chunks = append(chunks, fmt.Sprintf("Validation of form %q against %d rule(s).\n\n", sub.Form, len(report.Verdicts)))
	for _, v := range report.Verdicts {
		chunks = append(chunks, FormatVerdict(v))
	}
	counts := report.Counts()
	chunks = append(chunks, fmt.Sprintf("Summary: %d passed, %d failed, %d not applicable.\n",
		counts[types.StatusPass], counts[types.StatusFail], counts[types.StatusNotApplicable]))

	stream := make(chan llm.TextStreamEvent)
	go func() {
		defer close(stream)
		for _, chunk := range chunks {
			if !llm.Send(ctx, stream, llm.TextStreamEvent{Type: llm.EventTypeText, Value: chunk}) {
				return
			}
		}
		llm.Send(ctx, stream, llm.TextStreamEvent{Type: llm.EventTypeEnd})
	}()
	return &llm.TextStreamResult{Stream: stream}, nil
}

// FormatVerdict renders one verdict as a report section.
func FormatVerdict(v types.RuleVerdict) string {
	return fmt.Sprintf("%s Rule: %s\n   Folder: %s\n   Status: %s\n   Reason: %s\n\n",
		statusMarks[v.Status], v.RuleName, v.Category, v.Status, v.Reason)
}
