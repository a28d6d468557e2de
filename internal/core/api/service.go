// Package api implements the gRPC Validation service over the engine.
package api

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/config"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/engine"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/forms"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// ValidationService implements ValidationServer.
// Thin layer translating well-known protobuf types to engine calls.
type ValidationService struct {
	engine *engine.Engine
	cfg    *config.ServerConfig
	logger *zap.Logger
}

// NewValidationService creates service instance with dependencies.
func NewValidationService(e *engine.Engine, cfg *config.ServerConfig, logger *zap.Logger) (*ValidationService, error) {
	if e == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{engine: e, cfg: cfg, logger: logger}, nil
}

// ResolveRules returns the names and texts of the rules matching the submission.
func (s *ValidationService) ResolveRules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sub, err := s.submission(req)
	if err != nil {
		return nil, err
	}

	names, matches, err := s.engine.ResolveRuleSummary(sub)
	if err != nil {
		return nil, statusFromError(err)
	}

	rules := make([]ruleJSON, 0, len(matches))
	for _, m := range matches {
		rules = append(rules, ruleJSON{
			Name:     m.Block.DisplayName(),
			Category: m.Category,
			Path:     m.Path,
			Text:     m.Block.RawText,
		})
	}
	return toStruct(resolveResponse{
		Form:           sub.Form,
		NormalizedForm: forms.Normalize(sub.Form),
		RuleNames:      names,
		Rules:          rules,
	})
}

// CheckSubmission returns the deterministic verdict report.
func (s *ValidationService) CheckSubmission(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sub, err := s.submission(req)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.Validate(sub)
	if err != nil {
		return nil, statusFromError(err)
	}
	return toStruct(reportResponse{Report: report, Counts: report.Counts()})
}

// StreamReport streams the collaborator's narrative report chunk by chunk.
func (s *ValidationService) StreamReport(req *structpb.Struct, stream grpc.ServerStreamingServer[wrapperspb.StringValue]) error {
	sub, err := s.submission(req)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(stream.Context(), s.cfg.RequestTimeout)
	defer cancel()

	for chunk := range s.engine.StreamValidation(ctx, sub) {
		if err := stream.Send(wrapperspb.String(chunk)); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return statusFromError(err)
	}
	return nil
}

// ConvertText turns {"form": ..., "text": ...} into a submission.
func (s *ValidationService) ConvertText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be empty")
	}
	formName := strings.TrimSpace(req.GetFields()["form"].GetStringValue())
	text := req.GetFields()["text"].GetStringValue()
	if formName == "" {
		return nil, status.Error(codes.InvalidArgument, "form is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	sub, err := s.engine.ConvertToSubmission(ctx, text, formName)
	if err != nil {
		return nil, statusFromError(err)
	}
	return toStruct(sub)
}

// submission decodes req and enforces the field limit.
func (s *ValidationService) submission(req *structpb.Struct) (*types.Submission, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "submission cannot be empty")
	}
	sub, err := fromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(sub.Fields) > s.cfg.MaxSubmissionFields {
		return nil, status.Errorf(codes.InvalidArgument, "submission has %d fields, limit is %d", len(sub.Fields), s.cfg.MaxSubmissionFields)
	}
	return sub, nil
}
