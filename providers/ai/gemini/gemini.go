package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/chorushq/chorus/internal/utils"
	"github.com/chorushq/chorus/providers/ai"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// modelTable lists the models surfaced through capabilities.
var modelTable = []ai.ModelInfo{
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", ContextTokens: 1_048_576, Reasoning: true},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", ContextTokens: 1_048_576, Reasoning: true},
	{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash-Lite", ContextTokens: 1_048_576, Reasoning: true},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", ContextTokens: 1_048_576},
	{ID: "gemini-2.0-flash-lite", Name: "Gemini 2.0 Flash-Lite", ContextTokens: 1_048_576},
}

// GeminiProvider implements the provider contract on the content-generation
// API.
type GeminiProvider struct {
	*ai.Base
	config ai.GeminiConfig
	client *http.Client
}

var _ ai.Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates an uninitialized provider.
func NewGeminiProvider() *GeminiProvider {
	return &GeminiProvider{
		Base:   ai.NewBase(ai.TypeGemini, "Google Gemini"),
		client: &http.Client{},
	}
}

// Capabilities reports the static feature surface.
func (provider *GeminiProvider) Capabilities() ai.Capabilities {
	return ai.Capabilities{
		Streaming:        true,
		Reasoning:        true,
		Multimodal:       true,
		Search:           true,
		MaxContextTokens: 1_048_576,
		Models:           modelTable,
	}
}

// Initialize validates and freezes the configuration.
func (provider *GeminiProvider) Initialize(config ai.ProviderConfig) error {
	result := provider.ValidateConfig(config)
	if !result.IsValid {
		return &ai.ProviderError{
			Type:     ai.ErrorTypeValidation,
			Message:  fmt.Sprintf("invalid configuration: %s", strings.Join(result.Errors, "; ")),
			Code:     "configuration_error",
			Provider: provider.Name(),
		}
	}
	provider.config = config.(ai.GeminiConfig)
	provider.MarkInitialized()
	return nil
}

// ValidateConfig checks a configuration without side effects.
func (provider *GeminiProvider) ValidateConfig(config ai.ProviderConfig) *ai.ValidationResult {
	result := ai.NewValidationResult()
	geminiConfig, ok := config.(ai.GeminiConfig)
	if !ok {
		result.Fail("config must be a %s config, got %T", ai.TypeGemini, config)
		return result
	}
	if geminiConfig.APIKey == "" {
		result.Fail("api_key is required")
	}
	if geminiConfig.Model == "" {
		result.Fail("model is required")
	} else if !provider.Capabilities().SupportsModel(geminiConfig.Model) {
		result.Warn("model %q is not in the published model table", geminiConfig.Model)
	}
	if geminiConfig.ThinkingBudget != nil && *geminiConfig.ThinkingBudget < -1 {
		result.Fail("thinking_budget must be -1 (model decides), 0 (off), or a positive token count, got %d", *geminiConfig.ThinkingBudget)
	}
	return result
}

// HasRequiredConfig reports whether the provider can serve requests.
func (provider *GeminiProvider) HasRequiredConfig() bool {
	return provider.Initialized() && provider.config.APIKey != "" && provider.config.Model != ""
}

// StreamChat sends the conversation to the streaming endpoint and returns
// the normalized chunk stream. Thought parts surface as thinking chunks
// only when the config asks for them.
func (provider *GeminiProvider) StreamChat(ctx context.Context, messages []ai.Message, options *ai.StreamOptions) (*ai.ChunkStream, error) {
	if err := provider.BeginRequest(messages); err != nil {
		return nil, err
	}

	request := buildRequest(messages, provider.config, options)
	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent", provider.baseURL(), provider.config.Model)

	// Gemini authenticates with its own header, not a bearer token.
	response, err := utils.DoPostStream(ctx, provider.client, endpoint, "", request,
		utils.HeaderOption{Key: "x-goog-api-key", Value: provider.config.APIKey})
	if err != nil {
		return nil, provider.FormatError(err)
	}

	processor := NewProcessor(ProcessorOptions{
		Model:    provider.config.Model,
		Thinking: provider.config.IncludeThoughts,
	})
	scanner := utils.NewJSONFrameScanner(response.Body)

	return ai.NewChunkStream(func(yield func(ai.Chunk, error) bool) {
		defer utils.CloseWithLog(response.Body)

		for {
			if ctx.Err() != nil {
				yield(ai.Chunk{}, provider.FormatError(ctx.Err()))
				return
			}

			frame, scanErr := scanner.Next()
			if scanErr == io.EOF {
				if terminal := processor.Finish(); terminal != nil {
					yield(*terminal, nil)
				}
				return
			}
			if scanErr != nil {
				yield(ai.Chunk{}, provider.FormatError(fmt.Errorf("reading stream: %w", scanErr)))
				return
			}

			chunk := processor.ProcessEvent(frame)
			if chunk == nil {
				continue
			}
			if !yield(*chunk, nil) {
				return
			}
		}
	}), nil
}

// Complete performs a synchronous (non-streaming) call against the
// generateContent endpoint.
func (provider *GeminiProvider) Complete(ctx context.Context, messages []ai.Message, options *ai.StreamOptions) (*ai.Collected, error) {
	if err := provider.BeginRequest(messages); err != nil {
		return nil, err
	}

	request := buildRequest(messages, provider.config, options)
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", provider.baseURL(), provider.config.Model)
	_, response, err := utils.DoPostSync[generateContentResponse](ctx, provider.client, endpoint, "", request,
		utils.HeaderOption{Key: "x-goog-api-key", Value: provider.config.APIKey})
	if err != nil {
		return nil, provider.FormatError(err)
	}
	if response == nil {
		return nil, provider.FormatError(fmt.Errorf("empty generation response"))
	}

	collected := &ai.Collected{
		ID:    response.ResponseID,
		Model: provider.config.Model,
		Usage: normalizeUsage(response.UsageMetadata),
	}
	if response.ModelVersion != "" {
		collected.Model = response.ModelVersion
	}

	if len(response.Candidates) == 0 {
		if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			reason := ai.FinishContentFilter
			collected.FinishReason = &reason
			return collected, nil
		}
		return nil, provider.FormatError(fmt.Errorf("empty generation response"))
	}

	candidate := response.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				if provider.config.IncludeThoughts {
					collected.Thinking += part.Text
				}
				continue
			}
			collected.Content += part.Text
		}
	}

	reason := ai.FinishStop
	if candidate.FinishReason != "" {
		reason = mapFinishReason(candidate.FinishReason)
	}
	collected.FinishReason = &reason

	if candidate.GroundingMetadata != nil || response.ResponseID != "" {
		merger := NewProcessor(ProcessorOptions{})
		merger.mergeGrounding(candidate.GroundingMetadata)
		metadata := merger.ensureMetadata()
		metadata.ResponseID = response.ResponseID
		collected.Metadata = metadata
	}
	return collected, nil
}

func (provider *GeminiProvider) baseURL() string {
	if provider.config.BaseURL != "" {
		return strings.TrimSuffix(provider.config.BaseURL, "/")
	}
	return defaultBaseURL
}
