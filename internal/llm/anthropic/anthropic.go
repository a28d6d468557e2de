package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	anthropicSDK "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/llm"
)

const (
	DefaultMaxTokens = 4096
	DefaultModel     = "claude-3-5-haiku-latest"
)

type Anthropic struct {
	client           anthropicSDK.Client
	defaultModel     string
	outputTokenLimit int
	temperature      *float64
}

// New creates a client for the Anthropic messages API. Extra options are
// appended last.
func New(service llm.ServiceConfig, httpClient *http.Client, extra ...option.RequestOption) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(service.APIKey),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if service.APIURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(service.APIURL, "/")+"/"))
	}
	opts = append(opts, extra...)

	a := &Anthropic{
		client:           anthropicSDK.NewClient(opts...),
		defaultModel:     service.DefaultModel,
		outputTokenLimit: service.OutputTokenLimit,
	}
	if a.defaultModel == "" {
		a.defaultModel = DefaultModel
	}
	if service.Temperature > 0 {
		t := service.Temperature
		a.temperature = &t
	}
	return a
}

func (a *Anthropic) GetDefaultConfig() llm.LanguageModelConfig {
	config := llm.LanguageModelConfig{
		Model:       a.defaultModel,
		Temperature: a.temperature,
	}
	if a.outputTokenLimit == 0 {
		config.MaxGeneratedTokens = DefaultMaxTokens
	} else {
		config.MaxGeneratedTokens = a.outputTokenLimit
	}
	return config
}

func (a *Anthropic) createConfig(opts []llm.LanguageModelOption) llm.LanguageModelConfig {
	cfg := a.GetDefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// messageParams builds the request. Anthropic takes the system prompt
// separately, so only user messages become turns.
func messageParams(request llm.CompletionRequest, cfg llm.LanguageModelConfig) anthropicSDK.MessageNewParams {
	var messages []anthropicSDK.MessageParam
	for _, m := range request.Messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		messages = append(messages, anthropicSDK.NewUserMessage(anthropicSDK.NewTextBlock(m.Content)))
	}

	params := anthropicSDK.MessageNewParams{
		Model:     anthropicSDK.Model(cfg.Model),
		MaxTokens: int64(cfg.MaxGeneratedTokens),
		Messages:  messages,
	}
	if system := request.System(); system != "" {
		params.System = []anthropicSDK.TextBlockParam{{Text: system}}
	}
	if cfg.Temperature != nil {
		params.Temperature = anthropicSDK.Float(*cfg.Temperature)
	}
	return params
}

func (a *Anthropic) ChatCompletion(ctx context.Context, request llm.CompletionRequest, opts ...llm.LanguageModelOption) (*llm.TextStreamResult, error) {
	params := messageParams(request, a.createConfig(opts))
	if len(params.Messages) == 0 {
		return nil, fmt.Errorf("anthropic request has no user messages")
	}

	eventStream := make(chan llm.TextStreamEvent)
	go func() {
		defer close(eventStream)
		a.streamToChannel(ctx, params, eventStream)
	}()

	return &llm.TextStreamResult{Stream: eventStream}, nil
}

func (a *Anthropic) ChatCompletionNoStream(ctx context.Context, request llm.CompletionRequest, opts ...llm.LanguageModelOption) (string, error) {
	result, err := a.ChatCompletion(ctx, request, opts...)
	if err != nil {
		return "", err
	}
	return result.ReadAll()
}

func (a *Anthropic) streamToChannel(ctx context.Context, params anthropicSDK.MessageNewParams, output chan<- llm.TextStreamEvent) {
	stream := a.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()

		switch eventVariant := event.AsAny().(type) { //nolint:gocritic
		case anthropicSDK.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) { //nolint:gocritic
			case anthropicSDK.TextDelta:
				if !llm.Send(ctx, output, llm.TextStreamEvent{Type: llm.EventTypeText, Value: deltaVariant.Text}) {
					return
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		llm.Send(ctx, output, llm.TextStreamEvent{
			Type:  llm.EventTypeError,
			Value: fmt.Errorf("error from anthropic stream: %w", err),
		})
		return
	}

	llm.Send(ctx, output, llm.TextStreamEvent{Type: llm.EventTypeEnd, Value: nil})
}
