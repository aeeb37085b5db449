package compat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/chorushq/chorus/internal/utils"
	"github.com/chorushq/chorus/providers/ai"
)

const chatCompletionsPath = "/chat/completions"

// CompatProvider serves any OpenAI-compatible chat-completions endpoint.
type CompatProvider struct {
	*ai.Base
	config ai.CompatConfig
	client *http.Client
}

var _ ai.Provider = (*CompatProvider)(nil)

// NewCompatProvider creates an uninitialized provider. Initialize must be
// called before the first chat call.
func NewCompatProvider() *CompatProvider {
	return &CompatProvider{
		Base:   ai.NewBase(ai.TypeCompat, "OpenAI Compatible"),
		client: &http.Client{},
	}
}

// Name returns the white-label display name when the config carries one.
func (provider *CompatProvider) Name() string {
	if provider.config.Name != "" {
		return provider.config.Name
	}
	return provider.Base.Name()
}

// Capabilities reports the generic feature surface. The model table is
// empty on purpose: a compatible endpoint may serve anything, so every
// model id is accepted.
func (provider *CompatProvider) Capabilities() ai.Capabilities {
	return ai.Capabilities{
		Streaming: true,
		Reasoning: true,
	}
}

// Initialize validates and freezes the configuration.
func (provider *CompatProvider) Initialize(config ai.ProviderConfig) error {
	result := provider.ValidateConfig(config)
	if !result.IsValid {
		return &ai.ProviderError{
			Type:     ai.ErrorTypeValidation,
			Message:  fmt.Sprintf("invalid configuration: %s", strings.Join(result.Errors, "; ")),
			Code:     "configuration_error",
			Provider: provider.Name(),
		}
	}
	provider.config = config.(ai.CompatConfig)
	provider.MarkInitialized()
	return nil
}

// ValidateConfig checks a configuration without side effects.
func (provider *CompatProvider) ValidateConfig(config ai.ProviderConfig) *ai.ValidationResult {
	result := ai.NewValidationResult()
	compatConfig, ok := config.(ai.CompatConfig)
	if !ok {
		result.Fail("config must be a %s config, got %T", ai.TypeCompat, config)
		return result
	}
	if compatConfig.BaseURL == "" {
		result.Fail("base_url is required")
	} else if parsed, err := url.Parse(compatConfig.BaseURL); err != nil ||
		(parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		result.Fail("base_url %q is not a valid HTTP URL", compatConfig.BaseURL)
	}
	if compatConfig.Model == "" {
		result.Fail("model is required")
	}
	if compatConfig.APIKey == "" {
		result.Warn("api_key is empty, only unauthenticated endpoints will accept requests")
	}
	return result
}

// HasRequiredConfig reports whether the provider can serve requests.
func (provider *CompatProvider) HasRequiredConfig() bool {
	return provider.Initialized() && provider.config.BaseURL != "" && provider.config.Model != ""
}

// StreamChat sends the conversation with stream enabled and returns the
// normalized chunk stream.
func (provider *CompatProvider) StreamChat(ctx context.Context, messages []ai.Message, options *ai.StreamOptions) (*ai.ChunkStream, error) {
	if err := provider.BeginRequest(messages); err != nil {
		return nil, err
	}

	request := BuildChatRequest(messages, provider.config.Model, options)
	request.Stream = true
	request.StreamOptions = &ChatStreamOptions{IncludeUsage: true}

	endpoint := strings.TrimSuffix(provider.config.BaseURL, "/") + chatCompletionsPath
	response, err := utils.DoPostStream(ctx, provider.client, endpoint, provider.config.APIKey, request, provider.headerOptions()...)
	if err != nil {
		return nil, provider.FormatError(err)
	}

	processor := NewProcessor(ProcessorOptions{Model: provider.config.Model, Thinking: true})
	return Stream(ctx, provider, response, processor), nil
}

// Stream runs the pull loop shared by every chat-completions provider:
// scan SSE frames, feed the processor, flush the held-back terminal chunk
// at end of stream. The response body is closed when the iterator finishes
// or is abandoned.
func Stream(ctx context.Context, provider ai.Provider, response *http.Response, processor *Processor) *ai.ChunkStream {
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
				if terminal := processor.Finish(); terminal != nil {
					yield(*terminal, nil)
				}
				return
			}
			if scanErr != nil {
				yield(ai.Chunk{}, provider.FormatError(fmt.Errorf("reading stream: %w", scanErr)))
				return
			}

			chunk := processor.ProcessEvent(event.Data)
			if chunk == nil {
				continue
			}
			if !yield(*chunk, nil) {
				return
			}
		}
	})
}

// Complete performs a synchronous (non-streaming) chat call.
func (provider *CompatProvider) Complete(ctx context.Context, messages []ai.Message, options *ai.StreamOptions) (*ai.Collected, error) {
	if err := provider.BeginRequest(messages); err != nil {
		return nil, err
	}

	request := BuildChatRequest(messages, provider.config.Model, options)
	endpoint := strings.TrimSuffix(provider.config.BaseURL, "/") + chatCompletionsPath
	_, completion, err := utils.DoPostSync[ChatCompletion](ctx, provider.client, endpoint, provider.config.APIKey, request, provider.headerOptions()...)
	if err != nil {
		return nil, provider.FormatError(err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return nil, provider.FormatError(fmt.Errorf("empty completion response"))
	}

	choice := completion.Choices[0]
	collected := &ai.Collected{
		ID:           completion.ID,
		Model:        completion.Model,
		Content:      choice.Message.Content,
		FinishReason: normalizeFinishReason(choice.FinishReason),
	}
	if completion.Usage != nil {
		collected.Usage = normalizeUsage(completion.Usage)
	}
	return collected, nil
}

func (provider *CompatProvider) headerOptions() []utils.HeaderOption {
	headers := make([]utils.HeaderOption, 0, len(provider.config.Headers))
	for key, value := range provider.config.Headers {
		headers = append(headers, utils.HeaderOption{Key: key, Value: value})
	}
	return headers
}
