// Package grok implements the provider contract for the xAI API. Grok
// speaks the chat-completions SSE protocol, so the wire types and stream
// processor come from the compat package; this package adds live search
// (server-side web search with top-level citation URLs) and the
// reasoning_content side-channel of the reasoning models.
package grok
