// Package openai implements the OpenAI provider on top of the Responses
// API. Streaming uses the typed event vocabulary of /v1/responses
// (response.output_text.delta, response.reasoning_summary_text.delta,
// response.completed and friends) rather than chat-completions frames, so
// the package carries its own stream processor.
//
// The Responses API keeps conversation state server-side: when a previous
// response id is supplied, only the newest user message travels with it.
package openai
