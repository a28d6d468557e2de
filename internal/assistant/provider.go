package assistant

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/llm"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/llm/anthropic"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/llm/openai"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// Provider types accepted in llm.ServiceConfig.Type.
const (
	ProviderLocal     = "local"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Collaborator is satisfied by LLM and Local.
type Collaborator interface {
	GenerateStructuredData(ctx context.Context, nlInput, referenceText, formName string) (*types.Submission, error)
	StreamValidationReport(ctx context.Context, sub *types.Submission, matches []types.MatchedRule) (*llm.TextStreamResult, error)
}

// New builds the collaborator for service.Type.
func New(service llm.ServiceConfig, httpClient *http.Client, logger *zap.Logger) (Collaborator, error) {
	switch service.Type {
	case "", ProviderLocal:
		return NewLocal(logger), nil
	case ProviderOpenAI:
		cfg := openai.Config{
			APIKey:           service.APIKey,
			APIURL:           service.APIURL,
			DefaultModel:     service.DefaultModel,
			OutputTokenLimit: service.OutputTokenLimit,
			StreamingTimeout: service.StreamingTimeout,
		}
		temperature := service.Temperature
		cfg.Temperature = &temperature
		return NewLLM(openai.New(cfg, httpClient), logger)
	case ProviderAnthropic:
		return NewLLM(anthropic.New(service, httpClient), logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", service.Type)
	}
}
