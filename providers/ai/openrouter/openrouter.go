package openrouter

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
	defaultBaseURL          = "https://openrouter.ai/api/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// OpenRouterProvider implements the provider contract for OpenRouter.
type OpenRouterProvider struct {
	*ai.Base
	config ai.OpenRouterConfig
	client *http.Client
}

var _ ai.Provider = (*OpenRouterProvider)(nil)

// NewOpenRouterProvider creates an uninitialized provider.
func NewOpenRouterProvider() *OpenRouterProvider {
	return &OpenRouterProvider{
		Base:   ai.NewBase(ai.TypeOpenRouter, "OpenRouter"),
		client: &http.Client{},
	}
}

// Capabilities reports the static feature surface.
func (provider *OpenRouterProvider) Capabilities() ai.Capabilities {
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
func (provider *OpenRouterProvider) Initialize(config ai.ProviderConfig) error {
	result := provider.ValidateConfig(config)
	if !result.IsValid {
		return &ai.ProviderError{
			Type:     ai.ErrorTypeValidation,
			Message:  fmt.Sprintf("invalid configuration: %s", strings.Join(result.Errors, "; ")),
			Code:     "configuration_error",
			Provider: provider.Name(),
		}
	}
	provider.config = config.(ai.OpenRouterConfig)
	provider.MarkInitialized()
	return nil
}

// ValidateConfig checks a configuration without side effects. An unknown
// model id is a warning, not a failure, since OpenRouter routes to models
// beyond the published table.
func (provider *OpenRouterProvider) ValidateConfig(config ai.ProviderConfig) *ai.ValidationResult {
	result := ai.NewValidationResult()
	routerConfig, ok := config.(ai.OpenRouterConfig)
	if !ok {
		result.Fail("config must be an %s config, got %T", ai.TypeOpenRouter, config)
		return result
	}
	if routerConfig.APIKey == "" {
		result.Fail("api_key is required")
	}
	if routerConfig.Model == "" {
		result.Fail("model is required")
	} else if !provider.Capabilities().SupportsModel(routerConfig.Model) {
		result.Warn("model %q is not in the published model table", routerConfig.Model)
	}
	switch routerConfig.ReasoningEffort {
	case "", "low", "medium", "high":
	default:
		result.Fail("reasoning_effort must be low, medium, or high, got %q", routerConfig.ReasoningEffort)
	}
	return result
}

// HasRequiredConfig reports whether the provider can serve requests.
func (provider *OpenRouterProvider) HasRequiredConfig() bool {
	return provider.Initialized() && provider.config.APIKey != "" && provider.config.Model != ""
}

// StreamChat sends the conversation through OpenRouter and returns the
// normalized chunk stream. Reasoning tokens surface as thinking chunks only
// when the config requests reasoning effort.
func (provider *OpenRouterProvider) StreamChat(ctx context.Context, messages []ai.Message, options *ai.StreamOptions) (*ai.ChunkStream, error) {
	if err := provider.BeginRequest(messages); err != nil {
		return nil, err
	}

	request := chatRequest{
		ChatRequest: compat.BuildChatRequest(messages, provider.config.Model, options),
		Usage:       &usageOptions{Include: true},
	}
	request.Stream = true
	if provider.config.ReasoningEffort != "" {
		request.Reasoning = &reasoningOptions{Effort: provider.config.ReasoningEffort}
	}

	response, err := utils.DoPostStream(ctx, provider.client, provider.baseURL()+chatCompletionsEndpoint, provider.config.APIKey, request, provider.headerOptions()...)
	if err != nil {
		return nil, provider.FormatError(err)
	}

	processor := compat.NewProcessor(compat.ProcessorOptions{
		Model:    provider.config.Model,
		Thinking: provider.config.ReasoningEffort != "",
	})
	return compat.Stream(ctx, provider, response, processor), nil
}

func (provider *OpenRouterProvider) baseURL() string {
	if provider.config.BaseURL != "" {
		return strings.TrimSuffix(provider.config.BaseURL, "/")
	}
	return defaultBaseURL
}

// headerOptions builds OpenRouter's app attribution headers.
func (provider *OpenRouterProvider) headerOptions() []utils.HeaderOption {
	var headers []utils.HeaderOption
	if provider.config.Referer != "" {
		headers = append(headers, utils.HeaderOption{Key: "HTTP-Referer", Value: provider.config.Referer})
	}
	if provider.config.Title != "" {
		headers = append(headers, utils.HeaderOption{Key: "X-Title", Value: provider.config.Title})
	}
	return headers
}
