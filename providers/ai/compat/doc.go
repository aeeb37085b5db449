// Package compat implements the provider contract for any OpenAI-compatible
// chat-completions endpoint reached through a custom base URL, such as
// Ollama, vLLM, or a white-labeled gateway. The endpoint is described
// entirely by [ai.CompatConfig]: base URL, model, optional API key, and
// optional extra headers sent verbatim on every request.
//
// The package also owns the wire types and the [Processor] for the
// chat-completions SSE protocol. The openrouter and grok packages reuse
// both, since those vendors speak the same protocol with vendor-specific
// extras on top.
package compat
