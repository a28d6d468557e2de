// Package engine ties the rule corpus, the exact resolver and the
// collaborators together into the validation entry points.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/corpus"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/forms"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/llm"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/metrics"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/rules"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// NoMatchChunk is the whole report streamed when no rule applies.
const NoMatchChunk = "⚠️ No matching rules found for this form.\n"

// Collaborator converts free text into submissions and writes the
// narrative validation report.
type Collaborator interface {
	GenerateStructuredData(ctx context.Context, nlInput, referenceText, formName string) (*types.Submission, error)
	StreamValidationReport(ctx context.Context, sub *types.Submission, rules []types.MatchedRule) (*llm.TextStreamResult, error)
}

// Config carries the engine's process-wide settings. It is built once
// and never mutated after New.
type Config struct {
	// ReferenceCategories are searched for reference text in order.
	// Empty means every category of the corpus.
	ReferenceCategories []string
	Logger              *zap.Logger
	Metrics             metrics.Metrics
}

// Engine resolves and validates submissions. Safe for concurrent use: no
// state is kept between calls beyond what the indexer caches.
type Engine struct {
	indexer      corpus.Indexer
	resolver     *rules.Resolver
	collaborator Collaborator
	categories   []string
	logger       *zap.Logger
	metrics      metrics.Metrics
}

// New creates an engine over indexer. collaborator may be nil when only
// resolution and deterministic checking are needed.
func New(indexer corpus.Indexer, collaborator Collaborator, cfg Config) (*Engine, error) {
	if indexer == nil {
		return nil, fmt.Errorf("indexer cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		indexer:      indexer,
		resolver:     rules.NewResolver(logger),
		collaborator: collaborator,
		categories:   append([]string(nil), cfg.ReferenceCategories...),
		logger:       logger,
		metrics:      cfg.Metrics,
	}, nil
}

// ResolveRuleSummary returns the display names and matches of every rule
// block whose form condition equals the submission's form. An empty or
// unknown form yields empty slices. Only ErrCorpusUnavailable is returned.
func (e *Engine) ResolveRuleSummary(sub *types.Submission) ([]string, []types.MatchedRule, error) {
	index, err := e.indexer.Index()
	if err != nil {
		e.observe(metrics.OutcomeError, 0)
		return nil, nil, err
	}

	form := ""
	if sub != nil {
		form = sub.Form
	}
	if forms.Normalize(form) == "" {
		e.observe(metrics.OutcomeEmptyForm, 0)
		return []string{}, []types.MatchedRule{}, nil
	}

	candidates := corpus.FindCandidates(form, index)
	matches := e.resolver.Resolve(form, candidates)
	if matches == nil {
		matches = []types.MatchedRule{}
	}

	outcome := metrics.OutcomeMatched
	if len(matches) == 0 {
		outcome = metrics.OutcomeNoMatch
	}
	e.observe(outcome, len(candidates))
	e.logger.Debug("resolved rules",
		zap.String("form", form),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)))

	return rules.RuleNames(matches), matches, nil
}

// StreamValidation streams the validation report for sub. The channel
// carries the no-match chunk alone when nothing applies, or the
// collaborator's chunks in arrival order. Any failure ends the stream with
// one diagnostic chunk. The channel is closed when the report ends or ctx
// is cancelled.
func (e *Engine) StreamValidation(ctx context.Context, sub *types.Submission) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)

		_, matches, err := e.ResolveRuleSummary(sub)
		if err != nil {
			e.logger.Error("rule resolution failed", zap.Error(err))
			send(ctx, out, fmt.Sprintf("\n❌ Error resolving rules: %v\n", err))
			return
		}
		if len(matches) == 0 {
			send(ctx, out, NoMatchChunk)
			return
		}
		if e.collaborator == nil {
			send(ctx, out, "\n❌ Error from collaborator: no collaborator configured\n")
			return
		}

		stream, err := e.collaborator.StreamValidationReport(ctx, sub, matches)
		if err != nil {
			e.collaboratorFailed("report", err)
			send(ctx, out, diagnostic(err))
			return
		}
		for event := range stream.Stream {
			switch event.Type {
			case llm.EventTypeText:
				text, _ := event.Value.(string)
				if text == "" {
					continue
				}
				if !send(ctx, out, text) {
					return
				}
			case llm.EventTypeError:
				err, _ := event.Value.(error)
				e.collaboratorFailed("report", err)
				send(ctx, out, diagnostic(err))
				return
			case llm.EventTypeEnd:
				return
			}
		}
	}()
	return out
}

// ConvertToSubmission builds a submission for formName from free text,
// guided by the form's reference rule text. Returns ErrReferenceNotFound
// when the corpus has none. A collaborator failure is logged and yields an
// empty submission.
func (e *Engine) ConvertToSubmission(ctx context.Context, nlInput, formName string) (*types.Submission, error) {
	reference, err := e.Reference(formName)
	if err != nil {
		return nil, err
	}

	empty := &types.Submission{Fields: map[string]any{}}
	if e.collaborator == nil {
		return empty, nil
	}

	sub, err := e.collaborator.GenerateStructuredData(ctx, nlInput, reference, formName)
	if err != nil || sub == nil {
		e.collaboratorFailed("structured_data", err)
		return empty, nil
	}
	if sub.Fields == nil {
		sub.Fields = map[string]any{}
	}
	return sub, nil
}

// Reference returns the aggregated reference rule text for formName.
func (e *Engine) Reference(formName string) (string, error) {
	index, err := e.indexer.Index()
	if err != nil {
		return "", err
	}
	return corpus.LoadReference(index, e.categories, formName)
}

// Validate checks every matched rule deterministically against the
// submission's fields.
func (e *Engine) Validate(sub *types.Submission) (*types.Report, error) {
	_, matches, err := e.ResolveRuleSummary(sub)
	if err != nil {
		return nil, err
	}

	report := &types.Report{
		ReportID:    types.NewReportID(),
		GeneratedAt: time.Now().UTC(),
	}
	var fields map[string]any
	if sub != nil {
		report.Form = sub.Form
		report.NormalizedForm = forms.Normalize(sub.Form)
		fields = sub.Fields
	}
	report.Verdicts = rules.CheckAll(matches, fields)

	e.logger.Info("validated submission",
		zap.String("report_id", string(report.ReportID)),
		zap.String("form", report.Form),
		zap.Int("rules", len(report.Verdicts)))
	return report, nil
}

func (e *Engine) observe(outcome string, candidates int) {
	if e.metrics != nil {
		e.metrics.ObserveResolution(outcome, candidates)
	}
}

func (e *Engine) collaboratorFailed(kind string, err error) {
	if err == nil {
		err = errors.New("collaborator returned no result")
	}
	e.logger.Warn("collaborator failed", zap.String("kind", kind), zap.Error(err))
	if e.metrics != nil {
		e.metrics.IncrementCollaboratorFailures(kind)
	}
}

func diagnostic(err error) string {
	if err == nil {
		return "\n❌ Error from collaborator: stream failed\n"
	}
	return fmt.Sprintf("\n❌ Error from collaborator: %v\n", err)
}

func send(ctx context.Context, out chan<- string, chunk string) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
