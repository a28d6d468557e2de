// Package llm defines the streaming language-model abstraction shared by
// the provider packages and the collaborators built on top of them.
package llm

import (
	"context"
	"time"
)

// Role of a message in a completion request.
type Role int

const (
	RoleSystem Role = iota
	RoleUser
)

// Message is one turn of a completion request.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is the provider-neutral input to a completion.
type CompletionRequest struct {
	Messages []Message

	// JSONOutput asks the provider to constrain output to a JSON object
	// where it supports doing so.
	JSONOutput bool
}

// System returns the concatenated system messages of the request.
func (r CompletionRequest) System() string {
	var system string
	for _, m := range r.Messages {
		if m.Role != RoleSystem {
			continue
		}
		if system != "" {
			system += "\n\n"
		}
		system += m.Content
	}
	return system
}

// LanguageModelConfig holds per-request generation settings.
type LanguageModelConfig struct {
	Model              string
	MaxGeneratedTokens int
	Temperature        *float64
}

// LanguageModelOption adjusts a LanguageModelConfig.
type LanguageModelOption func(*LanguageModelConfig)

func WithModel(model string) LanguageModelOption {
	return func(cfg *LanguageModelConfig) {
		cfg.Model = model
	}
}

func WithMaxGeneratedTokens(maxTokens int) LanguageModelOption {
	return func(cfg *LanguageModelConfig) {
		cfg.MaxGeneratedTokens = maxTokens
	}
}

func WithTemperature(temperature float64) LanguageModelOption {
	return func(cfg *LanguageModelConfig) {
		cfg.Temperature = &temperature
	}
}

// LanguageModel is a streaming chat completion backend.
type LanguageModel interface {
	ChatCompletion(ctx context.Context, request CompletionRequest, opts ...LanguageModelOption) (*TextStreamResult, error)
	ChatCompletionNoStream(ctx context.Context, request CompletionRequest, opts ...LanguageModelOption) (string, error)
}

// ServiceConfig describes how to reach one provider.
type ServiceConfig struct {
	Type             string
	APIKey           string
	APIURL           string
	DefaultModel     string
	OutputTokenLimit int
	Temperature      float64
	StreamingTimeout time.Duration
}
