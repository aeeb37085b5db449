package ai

import (
	"context"
)

// StreamOptions carries per-call tuning. All fields are optional; zero
// values leave the vendor default in place.
type StreamOptions struct {
	// MaxTokens caps the completion length when > 0.
	MaxTokens int `json:"max_tokens,omitempty"`
	// Temperature and TopP are pointers so 0 can be sent explicitly.
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	// PreviousResponseID continues a server-side conversation on vendors
	// that keep one. When set, only the newest user message is sent.
	// Vendors without server-side state ignore it and send full history.
	PreviousResponseID string `json:"previous_response_id,omitempty"`
}

// Provider is the contract every vendor implementation satisfies. It covers
// the full lifecycle: configuration, validation, streaming dispatch, and
// error normalization. Implementations embed [Base] for the shared parts.
type Provider interface {
	// Type returns the provider's wire type tag.
	Type() ProviderType

	// Name returns the human-readable provider name, usable in logs and
	// error messages.
	Name() string

	// Capabilities returns the static feature surface. Read-only after
	// construction.
	Capabilities() Capabilities

	// Initialize validates and freezes the configuration. It must be
	// called exactly once before the first StreamChat. A config whose
	// Type does not match the provider fails validation.
	Initialize(config ProviderConfig) error

	// ValidateConfig checks a configuration without side effects. It
	// never returns an error; problems are reported in the result.
	ValidateConfig(config ProviderConfig) *ValidationResult

	// HasRequiredConfig reports whether the provider holds everything it
	// needs to serve requests. Cheap and side-effect free.
	HasRequiredConfig() bool

	// StreamChat sends the conversation and returns a lazy stream of
	// normalized chunks. Pre-stream failures (validation, auth, network)
	// are returned as a normal error; mid-stream failures are yielded
	// through the iterator. The stream is single-pass and must be
	// consumed (see [ChunkStream]).
	StreamChat(ctx context.Context, messages []Message, options *StreamOptions) (*ChunkStream, error)

	// FormatError maps any raised value onto the normalized error
	// surface. Pure.
	FormatError(raw any) *ProviderError
}

// Chat is the synchronous convenience built on stream collection: it drains
// the stream and returns the accumulated result. Callers who want
// time-to-first-token use StreamChat directly.
func Chat(ctx context.Context, provider Provider, messages []Message, options *StreamOptions) (*Collected, error) {
	stream, err := provider.StreamChat(ctx, messages, options)
	if err != nil {
		return nil, err
	}
	return stream.Collect()
}
