package grok

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/chorushq/chorus/internal/utils"
	"github.com/chorushq/chorus/providers/ai"
	"github.com/chorushq/chorus/providers/ai/compat"
)

const (
	defaultBaseURL          = "https://api.x.ai/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// GrokProvider implements the provider contract for xAI.
type GrokProvider struct {
	*ai.Base
	config ai.GrokConfig
	client *http.Client
}

var _ ai.Provider = (*GrokProvider)(nil)

// NewGrokProvider creates an uninitialized provider.
func NewGrokProvider() *GrokProvider {
	return &GrokProvider{
		Base:   ai.NewBase(ai.TypeGrok, "Grok"),
		client: &http.Client{},
	}
}

// Capabilities reports the static feature surface.
func (provider *GrokProvider) Capabilities() ai.Capabilities {
	return ai.Capabilities{
		Streaming:        true,
		Reasoning:        true,
		Multimodal:       true,
		Search:           true,
		MaxContextTokens: 2_000_000,
		Models:           modelTable,
	}
}

// Initialize validates and freezes the configuration.
func (provider *GrokProvider) Initialize(config ai.ProviderConfig) error {
	result := provider.ValidateConfig(config)
	if !result.IsValid {
		return &ai.ProviderError{
			Type:     ai.ErrorTypeValidation,
			Message:  fmt.Sprintf("invalid configuration: %s", strings.Join(result.Errors, "; ")),
			Code:     "configuration_error",
			Provider: provider.Name(),
		}
	}
	provider.config = config.(ai.GrokConfig)
	provider.MarkInitialized()
	return nil
}

// ValidateConfig checks a configuration without side effects.
func (provider *GrokProvider) ValidateConfig(config ai.ProviderConfig) *ai.ValidationResult {
	result := ai.NewValidationResult()
	grokConfig, ok := config.(ai.GrokConfig)
	if !ok {
		result.Fail("config must be a %s config, got %T", ai.TypeGrok, config)
		return result
	}
	if grokConfig.APIKey == "" {
		result.Fail("api_key is required")
	}
	if grokConfig.Model == "" {
		result.Fail("model is required")
	} else if !provider.Capabilities().SupportsModel(grokConfig.Model) {
		result.Warn("model %q is not in the published model table", grokConfig.Model)
	}
	return result
}

// HasRequiredConfig reports whether the provider can serve requests.
func (provider *GrokProvider) HasRequiredConfig() bool {
	return provider.Initialized() && provider.config.APIKey != "" && provider.config.Model != ""
}

// StreamChat sends the conversation to xAI and returns the normalized
// chunk stream. Reasoning models stream their reasoning side-channel
// unconditionally, so thinking chunks are always surfaced.
func (provider *GrokProvider) StreamChat(ctx context.Context, messages []ai.Message, options *ai.StreamOptions) (*ai.ChunkStream, error) {
	if err := provider.BeginRequest(messages); err != nil {
		return nil, err
	}

	request := chatRequest{
		ChatRequest: compat.BuildChatRequest(messages, provider.config.Model, options),
	}
	request.Stream = true
	request.StreamOptions = &compat.ChatStreamOptions{IncludeUsage: true}
	if provider.config.LiveSearch {
		request.SearchParameters = &searchParameters{Mode: "auto", ReturnCitations: true}
	}

	response, err := utils.DoPostStream(ctx, provider.client, provider.baseURL()+chatCompletionsEndpoint, provider.config.APIKey, request)
	if err != nil {
		return nil, provider.FormatError(err)
	}

	processor := compat.NewProcessor(compat.ProcessorOptions{
		Model:    provider.config.Model,
		Thinking: true,
	})
	return compat.Stream(ctx, provider, response, processor), nil
}

func (provider *GrokProvider) baseURL() string {
	if provider.config.BaseURL != "" {
		return strings.TrimSuffix(provider.config.BaseURL, "/")
	}
	return defaultBaseURL
}
