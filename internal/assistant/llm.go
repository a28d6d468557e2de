// Package assistant implements the collaborators that turn free text into
// submissions and matched rules into narrative validation reports.
//
// LLM delegates both tasks to a language model. Local performs them
// deterministically from the rule text itself and needs no network.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/llm"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/prompts"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// LLM is a collaborator backed by a language model.
type LLM struct {
	model   llm.LanguageModel
	prompts *prompts.Prompts
	logger  *zap.Logger
	opts    []llm.LanguageModelOption
}

// NewLLM creates a model-backed collaborator. opts apply to every request.
func NewLLM(model llm.LanguageModel, logger *zap.Logger, opts ...llm.LanguageModelOption) (*LLM, error) {
	p, err := prompts.New()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLM{model: model, prompts: p, logger: logger, opts: opts}, nil
}

// GenerateStructuredData asks the model for a submission JSON document for
// formName. Model or decoding failures wrap types.ErrExternalCollaborator.
func (a *LLM) GenerateStructuredData(ctx context.Context, nlInput, referenceText, formName string) (*types.Submission, error) {
	data := prompts.StructuredData{FormName: formName, Input: nlInput, ReferenceText: referenceText}
	request, err := a.request(prompts.PromptStructuredDataSystem, prompts.PromptStructuredDataUser, data)
	if err != nil {
		return nil, err
	}
	request.JSONOutput = true

	content, err := a.model.ChatCompletionNoStream(ctx, request, a.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: structured data: %v", types.ErrExternalCollaborator, err)
	}

	sub, err := types.DecodeSubmission([]byte(StripCodeFence(content)))
	if err != nil {
		a.logger.Debug("model returned unusable structured data", zap.String("content", content))
		return nil, fmt.Errorf("%w: %v", types.ErrExternalCollaborator, err)
	}
	if sub.Form == "" {
		sub.Form = formName
	}
	return sub, nil
}

// StreamValidationReport streams the model's narrative verdicts for rules.
func (a *LLM) StreamValidationReport(ctx context.Context, sub *types.Submission, rules []types.MatchedRule) (*llm.TextStreamResult, error) {
	formData, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	data := prompts.ValidationReport{FormData: string(formData)}
	for _, r := range rules {
		data.Rules = append(data.Rules, prompts.ReportRule{
			Name:     r.Block.DisplayName(),
			Category: r.Category,
			Text:     r.Block.RawText,
		})
	}

	request, err := a.request(prompts.PromptValidationReportSystem, prompts.PromptValidationReportUser, data)
	if err != nil {
		return nil, err
	}

	stream, err := a.model.ChatCompletion(ctx, request, a.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: validation report: %v", types.ErrExternalCollaborator, err)
	}
	return stream, nil
}

func (a *LLM) request(systemPrompt, userPrompt string, data any) (llm.CompletionRequest, error) {
	system, err := a.prompts.Format(systemPrompt, data)
	if err != nil {
		return llm.CompletionRequest{}, err
	}
	user, err := a.prompts.Format(userPrompt, data)
	if err != nil {
		return llm.CompletionRequest{}, err
	}
	return llm.CompletionRequest{Messages: []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}}, nil
}

// StripCodeFence removes a surrounding ``` fence, with or without a
// language tag, from model output.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 && !strings.ContainsAny(content[:nl], "{[") {
		content = content[nl+1:]
	} else {
		content = strings.TrimPrefix(content, "json")
	}
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
