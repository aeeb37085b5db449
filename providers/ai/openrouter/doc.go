// Package openrouter implements the provider contract for the OpenRouter
// aggregation gateway. OpenRouter speaks the chat-completions SSE protocol,
// so the wire types and stream processor come from the compat package; this
// package adds the gateway's extras: app attribution headers, the reasoning
// request block, usage accounting, and inline url_citation annotations from
// web-search-enabled models.
package openrouter
