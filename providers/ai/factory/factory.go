// Package factory constructs provider instances from declarative
// configuration: one at a time, or in bulk with partial-failure reporting.
package factory

import (
	"errors"
	"fmt"

	"github.com/chorushq/chorus/providers/ai"
	"github.com/chorushq/chorus/providers/ai/compat"
	"github.com/chorushq/chorus/providers/ai/gemini"
	"github.com/chorushq/chorus/providers/ai/grok"
	"github.com/chorushq/chorus/providers/ai/openai"
	"github.com/chorushq/chorus/providers/ai/openrouter"
)

// SupportedTypes lists the provider types the factory can construct, ordered
// by type tag.
func SupportedTypes() []ai.ProviderType {
	return []ai.ProviderType{
		ai.TypeGemini,
		ai.TypeGrok,
		ai.TypeOpenAI,
		ai.TypeCompat,
		ai.TypeOpenRouter,
	}
}

// newProvider builds an uninitialized provider for a supported type.
func newProvider(providerType ai.ProviderType) (ai.Provider, bool) {
	switch providerType {
	case ai.TypeOpenAI:
		return openai.NewOpenAIProvider(), true
	case ai.TypeGemini:
		return gemini.NewGeminiProvider(), true
	case ai.TypeOpenRouter:
		return openrouter.NewOpenRouterProvider(), true
	case ai.TypeGrok:
		return grok.NewGrokProvider(), true
	case ai.TypeCompat:
		return compat.NewCompatProvider(), true
	}
	return nil, false
}

// CreateProvider constructs and initializes the provider the config targets.
// Unsupported types and invalid config bodies are rejected before
// construction; initialization failures come back wrapped with the provider
// type so bulk callers can attribute them.
func CreateProvider(config ai.ProviderConfig) (ai.Provider, error) {
	if config == nil {
		return nil, &ai.ProviderError{
			Type:    ai.ErrorTypeValidation,
			Message: "provider config is nil",
			Code:    "invalid_config",
		}
	}
	provider, supported := newProvider(config.Type())
	if !supported {
		return nil, &ai.ProviderError{
			Type:    ai.ErrorTypeValidation,
			Message: fmt.Sprintf("unsupported provider type %q", config.Type()),
			Code:    "unsupported_provider_type",
		}
	}
	if err := provider.Initialize(config); err != nil {
		return nil, fmt.Errorf("Failed to initialize %s provider: %w", config.Type(), err)
	}
	return provider, nil
}

// ValidateConfiguration performs the same checks as [CreateProvider] without
// constructing anything the caller keeps, for pre-flight validation.
func ValidateConfiguration(config ai.ProviderConfig) *ai.ValidationResult {
	if config == nil {
		result := ai.NewValidationResult()
		result.Fail("provider config is nil")
		return result
	}
	provider, supported := newProvider(config.Type())
	if !supported {
		result := ai.NewValidationResult()
		result.Fail("unsupported provider type %q", config.Type())
		return result
	}
	return provider.ValidateConfig(config)
}

// CreateProviders constructs every config in the list. A failure at index i
// is recorded as "Provider i (type): reason" and does not stop the remaining
// entries; the successes are returned either way, joined with one aggregate
// error when anything failed.
func CreateProviders(configs []ai.ProviderConfig) ([]ai.Provider, error) {
	providers := make([]ai.Provider, 0, len(configs))
	var failures []error
	for i, config := range configs {
		provider, err := CreateProvider(config)
		if err != nil {
			failures = append(failures, fmt.Errorf("Provider %d (%s): %w", i, configType(config), err))
			continue
		}
		providers = append(providers, provider)
	}
	return providers, errors.Join(failures...)
}

// CreateAndRegisterProviders constructs every config and registers each
// success with the registry, with the same partial-failure contract as
// [CreateProviders]. A nil registry means the process-wide default.
func CreateAndRegisterProviders(registry *ai.Registry, configs []ai.ProviderConfig) ([]ai.Provider, error) {
	if registry == nil {
		registry = ai.Default()
	}
	registered := make([]ai.Provider, 0, len(configs))
	var failures []error
	for i, config := range configs {
		provider, err := CreateProvider(config)
		if err == nil {
			err = registry.Register(provider)
		}
		if err != nil {
			failures = append(failures, fmt.Errorf("Provider %d (%s): %w", i, configType(config), err))
			continue
		}
		registered = append(registered, provider)
	}
	return registered, errors.Join(failures...)
}

func configType(config ai.ProviderConfig) ai.ProviderType {
	if config == nil {
		return "unknown"
	}
	return config.Type()
}
