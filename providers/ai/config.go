package ai

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ProviderType identifies which vendor implementation a config targets.
type ProviderType string

const (
	TypeOpenAI     ProviderType = "openai"
	TypeGemini     ProviderType = "gemini"
	TypeOpenRouter ProviderType = "openrouter"
	TypeGrok       ProviderType = "grok"
	// TypeCompat is any OpenAI-compatible chat-completions endpoint reached
	// through a custom base URL.
	TypeCompat ProviderType = "openai_compat"
)

// Valid reports whether the type names a supported provider.
func (providerType ProviderType) Valid() bool {
	switch providerType {
	case TypeOpenAI, TypeGemini, TypeOpenRouter, TypeGrok, TypeCompat:
		return true
	}
	return false
}

// ProviderConfig is the tagged union of per-vendor configuration. The
// concrete variants below serialize with a "type" discriminator so
// declarative config files round-trip through [UnmarshalConfig].
type ProviderConfig interface {
	Type() ProviderType
}

// OpenAIConfig configures the Responses API provider.
type OpenAIConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
	// BaseURL overrides the default API endpoint, for proxies.
	BaseURL string `json:"base_url,omitempty"`
	// ReasoningEffort is one of low, medium, high. Empty leaves the
	// vendor default.
	ReasoningEffort string `json:"reasoning_effort,omitempty"`
	// ReasoningSummary is one of auto, concise, detailed. Empty disables
	// reasoning summaries and with them the thinking side-channel.
	ReasoningSummary string `json:"reasoning_summary,omitempty"`
	// WebSearch enables the hosted web search tool.
	WebSearch bool `json:"web_search,omitempty"`
}

func (OpenAIConfig) Type() ProviderType { return TypeOpenAI }

func (c OpenAIConfig) MarshalJSON() ([]byte, error) {
	type alias OpenAIConfig
	buf, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(buf, "type", string(TypeOpenAI))
}

// GeminiConfig configures the content-generation provider.
type GeminiConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	// ThinkingBudget caps reasoning tokens. -1 lets the model decide,
	// 0 disables thinking, nil leaves the vendor default.
	ThinkingBudget *int `json:"thinking_budget,omitempty"`
	// IncludeThoughts asks the vendor to stream thought parts.
	IncludeThoughts bool `json:"include_thoughts,omitempty"`
	// Search enables grounding with web search.
	Search bool `json:"search,omitempty"`
}

func (GeminiConfig) Type() ProviderType { return TypeGemini }

func (c GeminiConfig) MarshalJSON() ([]byte, error) {
	type alias GeminiConfig
	buf, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(buf, "type", string(TypeGemini))
}

// OpenRouterConfig configures the OpenRouter chat-completions provider.
type OpenRouterConfig struct {
	APIKey          string `json:"api_key"`
	Model           string `json:"model"`
	BaseURL         string `json:"base_url,omitempty"`
	ReasoningEffort string `json:"reasoning_effort,omitempty"`
	// Referer and Title populate OpenRouter's app attribution headers.
	Referer string `json:"referer,omitempty"`
	Title   string `json:"title,omitempty"`
}

func (OpenRouterConfig) Type() ProviderType { return TypeOpenRouter }

func (c OpenRouterConfig) MarshalJSON() ([]byte, error) {
	type alias OpenRouterConfig
	buf, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(buf, "type", string(TypeOpenRouter))
}

// GrokConfig configures the Grok chat-completions provider.
type GrokConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	// LiveSearch enables server-side web search with citations.
	LiveSearch bool `json:"live_search,omitempty"`
}

func (GrokConfig) Type() ProviderType { return TypeGrok }

func (c GrokConfig) MarshalJSON() ([]byte, error) {
	type alias GrokConfig
	buf, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(buf, "type", string(TypeGrok))
}

// CompatConfig configures a generic OpenAI-compatible endpoint. BaseURL is
// required since there is no well-known default to fall back to.
type CompatConfig struct {
	// Name is the display name of the white-labeled endpoint.
	Name    string `json:"name"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
	// Headers are sent verbatim on every request.
	Headers map[string]string `json:"headers,omitempty"`
}

func (CompatConfig) Type() ProviderType { return TypeCompat }

func (c CompatConfig) MarshalJSON() ([]byte, error) {
	type alias CompatConfig
	buf, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(buf, "type", string(TypeCompat))
}

// UnmarshalConfig decodes one provider config from its tagged JSON form,
// dispatching on the "type" discriminator.
func UnmarshalConfig(data []byte) (ProviderConfig, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("provider config is not valid JSON")
	}
	tag := gjson.GetBytes(data, "type").Str
	switch ProviderType(tag) {
	case TypeOpenAI:
		var config OpenAIConfig
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("decoding %s config: %w", tag, err)
		}
		return config, nil
	case TypeGemini:
		var config GeminiConfig
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("decoding %s config: %w", tag, err)
		}
		return config, nil
	case TypeOpenRouter:
		var config OpenRouterConfig
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("decoding %s config: %w", tag, err)
		}
		return config, nil
	case TypeGrok:
		var config GrokConfig
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("decoding %s config: %w", tag, err)
		}
		return config, nil
	case TypeCompat:
		var config CompatConfig
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("decoding %s config: %w", tag, err)
		}
		return config, nil
	default:
		return nil, fmt.Errorf("unsupported provider type %q", tag)
	}
}

// ValidationResult reports the outcome of a config check. Warnings flag
// suspicious but workable settings, for example a model id the provider
// does not list.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewValidationResult returns a passing result to accumulate into.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{IsValid: true}
}

// Fail records a fatal problem and marks the result invalid.
func (r *ValidationResult) Fail(format string, args ...any) {
	r.IsValid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Warn records a non-fatal observation.
func (r *ValidationResult) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
