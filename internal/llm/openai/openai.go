package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/llm"
)

type Config struct {
	APIKey           string
	APIURL           string
	DefaultModel     string
	OutputTokenLimit int
	Temperature      *float64
	StreamingTimeout time.Duration
}

type OpenAI struct {
	client openai.Client
	config Config
}

const DefaultModel = shared.ChatModelGPT4o

var ErrStreamingTimeout = errors.New("timeout streaming")

// New creates a client for the OpenAI API or, when APIURL is set, any
// OpenAI-compatible endpoint. Extra options are appended last.
func New(config Config, httpClient *http.Client, extra ...option.RequestOption) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if config.APIURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(config.APIURL, "/")+"/"))
	}
	opts = append(opts, extra...)

	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		config: config,
	}
}

func (s *OpenAI) GetDefaultConfig() llm.LanguageModelConfig {
	return llm.LanguageModelConfig{
		Model:              s.config.DefaultModel,
		MaxGeneratedTokens: s.config.OutputTokenLimit,
		Temperature:        s.config.Temperature,
	}
}

func (s *OpenAI) createConfig(opts []llm.LanguageModelOption) llm.LanguageModelConfig {
	cfg := s.GetDefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (s *OpenAI) completionParams(request llm.CompletionRequest, cfg llm.LanguageModelConfig) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    cfg.Model,
		Messages: toChatCompletionMessages(request.Messages),
	}

	if cfg.MaxGeneratedTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(cfg.MaxGeneratedTokens))
	}
	if cfg.Temperature != nil {
		params.Temperature = openai.Float(*cfg.Temperature)
	}
	if request.JSONOutput {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	return params
}

func toChatCompletionMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			result = append(result, openai.SystemMessage(m.Content))
		default:
			result = append(result, openai.UserMessage(m.Content))
		}
	}
	return result
}

func (s *OpenAI) ChatCompletion(ctx context.Context, request llm.CompletionRequest, opts ...llm.LanguageModelOption) (*llm.TextStreamResult, error) {
	params := s.completionParams(request, s.createConfig(opts))

	eventStream := make(chan llm.TextStreamEvent)
	go func() {
		defer close(eventStream)
		s.streamCompletionsToChannel(ctx, params, eventStream)
	}()

	return &llm.TextStreamResult{Stream: eventStream}, nil
}

func (s *OpenAI) ChatCompletionNoStream(ctx context.Context, request llm.CompletionRequest, opts ...llm.LanguageModelOption) (string, error) {
	result, err := s.ChatCompletion(ctx, request, opts...)
	if err != nil {
		return "", err
	}
	return result.ReadAll()
}

func (s *OpenAI) streamCompletionsToChannel(parent context.Context, params openai.ChatCompletionNewParams, output chan<- llm.TextStreamEvent) {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	// watchdog to cancel if the streaming stalls
	watchdog := make(chan struct{}, 1)
	if s.config.StreamingTimeout > 0 {
		go func() {
			timer := time.NewTimer(s.config.StreamingTimeout)
			defer timer.Stop()
			for {
				select {
				case <-timer.C:
					cancel(ErrStreamingTimeout)
					return
				case <-ctx.Done():
					return
				case <-watchdog:
					if !timer.Stop() {
						<-timer.C
					}
					timer.Reset(s.config.StreamingTimeout)
				}
			}
		}()
	}

	stream := s.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()

		// Ping the watchdog when we receive a response
		select {
		case watchdog <- struct{}{}:
		default:
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		if content := chunk.Choices[0].Delta.Content; content != "" {
			if !llm.Send(ctx, output, llm.TextStreamEvent{Type: llm.EventTypeText, Value: content}) {
				break
			}
		}
	}

	if err := stream.Err(); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			err = cause
		}
		llm.Send(parent, output, llm.TextStreamEvent{Type: llm.EventTypeError, Value: err})
		return
	}
	if cause := context.Cause(ctx); cause != nil {
		llm.Send(parent, output, llm.TextStreamEvent{Type: llm.EventTypeError, Value: cause})
		return
	}

	llm.Send(parent, output, llm.TextStreamEvent{Type: llm.EventTypeEnd, Value: nil})
}
