package openrouter

import (
	"github.com/chorushq/chorus/providers/ai"
	"github.com/chorushq/chorus/providers/ai/compat"
)

// chatRequest extends the chat-completions body with OpenRouter's request
// extensions.
type chatRequest struct {
	compat.ChatRequest
	Reasoning *reasoningOptions `json:"reasoning,omitempty"`
	Usage     *usageOptions     `json:"usage,omitempty"`
}

// reasoningOptions asks OpenRouter to allocate reasoning effort and stream
// the reasoning tokens back.
type reasoningOptions struct {
	Effort string `json:"effort"`
}

// usageOptions turns on OpenRouter's usage accounting for the stream.
type usageOptions struct {
	Include bool `json:"include"`
}

// modelTable lists the models surfaced through capabilities. OpenRouter
// routes to many more; ids outside the table only raise a validation
// warning.
var modelTable = []ai.ModelInfo{
	{ID: "openai/gpt-5", Name: "GPT-5", ContextTokens: 400_000, Reasoning: true},
	{ID: "openai/gpt-5-mini", Name: "GPT-5 Mini", ContextTokens: 400_000, Reasoning: true},
	{ID: "openai/gpt-4o", Name: "GPT-4o", ContextTokens: 128_000},
	{ID: "anthropic/claude-sonnet-4", Name: "Claude Sonnet 4", ContextTokens: 200_000, Reasoning: true},
	{ID: "google/gemini-2.5-pro", Name: "Gemini 2.5 Pro", ContextTokens: 1_048_576, Reasoning: true},
	{ID: "deepseek/deepseek-r1", Name: "DeepSeek R1", ContextTokens: 128_000, Reasoning: true},
	{ID: "meta-llama/llama-3.3-70b-instruct", Name: "Llama 3.3 70B Instruct", ContextTokens: 131_072},
}
