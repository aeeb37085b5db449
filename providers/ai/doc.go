// Package ai defines the shared, provider-agnostic types and interfaces used
// across all LLM provider implementations (OpenAI, Gemini, OpenRouter, Grok,
// and generic OpenAI-compatible endpoints). Each provider's request builder
// and stream processor map these types to its own wire format, keeping the
// rest of the codebase decoupled from provider-specific details.
//
// The central interface is [Provider]. Requests flow in as []Message plus
// [StreamOptions]; incremental output flows back as a [ChunkStream] of
// [Chunk] values that look the same regardless of which vendor produced
// them. [Registry] tracks configured providers and the active selection,
// and [FormatError] maps any failure into the shared [ProviderError]
// taxonomy.
package ai
