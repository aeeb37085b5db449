package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/chorushq/chorus/internal/utils"
	"github.com/chorushq/chorus/providers/ai"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	responsesEndpoint = "/responses"
)

// OpenAIProvider implements the provider contract on the Responses API.
type OpenAIProvider struct {
	*ai.Base
	config ai.OpenAIConfig
	client *http.Client
}

var _ ai.Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates an uninitialized provider.
func NewOpenAIProvider() *OpenAIProvider {
	return &OpenAIProvider{
		Base:   ai.NewBase(ai.TypeOpenAI, "OpenAI"),
		client: &http.Client{},
	}
}

// Capabilities reports the static feature surface.
func (provider *OpenAIProvider) Capabilities() ai.Capabilities {
	return ai.Capabilities{
		Streaming:        true,
		Reasoning:        true,
		Multimodal:       true,
		Search:           true,
		MaxContextTokens: 1_047_576,
		Models:           modelTable,
	}
}

// Initialize validates and freezes the configuration.
func (provider *OpenAIProvider) Initialize(config ai.ProviderConfig) error {
	result := provider.ValidateConfig(config)
	if !result.IsValid {
		return &ai.ProviderError{
			Type:     ai.ErrorTypeValidation,
			Message:  fmt.Sprintf("invalid configuration: %s", strings.Join(result.Errors, "; ")),
			Code:     "configuration_error",
			Provider: provider.Name(),
		}
	}
	provider.config = config.(ai.OpenAIConfig)
	provider.MarkInitialized()
	return nil
}

// ValidateConfig checks a configuration without side effects.
func (provider *OpenAIProvider) ValidateConfig(config ai.ProviderConfig) *ai.ValidationResult {
	result := ai.NewValidationResult()
	openaiConfig, ok := config.(ai.OpenAIConfig)
	if !ok {
		result.Fail("config must be an %s config, got %T", ai.TypeOpenAI, config)
		return result
	}
	if openaiConfig.APIKey == "" {
		result.Fail("api_key is required")
	}
	if openaiConfig.Model == "" {
		result.Fail("model is required")
	} else if !provider.Capabilities().SupportsModel(openaiConfig.Model) {
		result.Warn("model %q is not in the published model table", openaiConfig.Model)
	}
	switch openaiConfig.ReasoningEffort {
	case "", "minimal", "low", "medium", "high":
	default:
		result.Fail("reasoning_effort must be minimal, low, medium, or high, got %q", openaiConfig.ReasoningEffort)
	}
	switch openaiConfig.ReasoningSummary {
	case "", "auto", "concise", "detailed":
	default:
		result.Fail("reasoning_summary must be auto, concise, or detailed, got %q", openaiConfig.ReasoningSummary)
	}
	return result
}

// HasRequiredConfig reports whether the provider can serve requests.
func (provider *OpenAIProvider) HasRequiredConfig() bool {
	return provider.Initialized() && provider.config.APIKey != "" && provider.config.Model != ""
}

// StreamChat sends the conversation with stream enabled and returns the
// normalized chunk stream. Reasoning surfaces as thinking chunks only when
// the config requests reasoning summaries.
func (provider *OpenAIProvider) StreamChat(ctx context.Context, messages []ai.Message, options *ai.StreamOptions) (*ai.ChunkStream, error) {
	if err := provider.BeginRequest(messages); err != nil {
		return nil, err
	}

	request := buildRequest(messages, provider.config, options)
	request.Stream = true

	response, err := utils.DoPostStream(ctx, provider.client, provider.baseURL()+responsesEndpoint, provider.config.APIKey, request)
	if err != nil {
		return nil, provider.FormatError(err)
	}

	processor := NewProcessor(ProcessorOptions{
		Model:    provider.config.Model,
		Thinking: provider.config.ReasoningSummary != "",
	})
	scanner := utils.NewSSEScanner(response.Body)

	return ai.NewChunkStream(func(yield func(ai.Chunk, error) bool) {
		defer utils.CloseWithLog(response.Body)

		for {
			if ctx.Err() != nil {
				yield(ai.Chunk{}, provider.FormatError(ctx.Err()))
				return
			}

			event, scanErr := scanner.Next()
			if scanErr == io.EOF {
				return
			}
			if scanErr != nil {
				yield(ai.Chunk{}, provider.FormatError(fmt.Errorf("reading stream: %w", scanErr)))
				return
			}

			chunk := processor.ProcessEvent(event.Name, event.Data)
			if chunk == nil {
				continue
			}
			if !yield(*chunk, nil) {
				return
			}
		}
	}), nil
}

// Complete performs a synchronous (non-streaming) call and collects the
// final response output.
func (provider *OpenAIProvider) Complete(ctx context.Context, messages []ai.Message, options *ai.StreamOptions) (*ai.Collected, error) {
	if err := provider.BeginRequest(messages); err != nil {
		return nil, err
	}

	request := buildRequest(messages, provider.config, options)
	_, response, err := utils.DoPostSync[responseObject](ctx, provider.client, provider.baseURL()+responsesEndpoint, provider.config.APIKey, request)
	if err != nil {
		return nil, provider.FormatError(err)
	}
	if response == nil {
		return nil, provider.FormatError(fmt.Errorf("empty response body"))
	}

	collected := &ai.Collected{
		ID:    response.ID,
		Model: response.Model,
		Usage: normalizeUsage(response.Usage),
	}
	for _, item := range response.Output {
		switch item.Type {
		case "message":
			for _, content := range item.Content {
				if content.Type == "output_text" {
					collected.Content += content.Text
				}
			}
		case "reasoning":
			if provider.config.ReasoningSummary != "" {
				collected.Thinking += item.summaryText()
			}
		}
	}
	reason := normalizeFinish(response)
	collected.FinishReason = &reason
	if response.ID != "" {
		collected.Metadata = &ai.ChunkMetadata{ResponseID: response.ID}
	}
	return collected, nil
}

func (provider *OpenAIProvider) baseURL() string {
	if provider.config.BaseURL != "" {
		return strings.TrimSuffix(provider.config.BaseURL, "/")
	}
	return defaultBaseURL
}
