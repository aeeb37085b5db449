package grok

import (
	"github.com/chorushq/chorus/providers/ai"
	"github.com/chorushq/chorus/providers/ai/compat"
)

// chatRequest extends the chat-completions body with xAI's live search
// block.
type chatRequest struct {
	compat.ChatRequest
	SearchParameters *searchParameters `json:"search_parameters,omitempty"`
}

// searchParameters controls server-side web search. Mode auto lets the
// model decide per request whether to search.
type searchParameters struct {
	Mode            string `json:"mode"`
	ReturnCitations bool   `json:"return_citations"`
}

var modelTable = []ai.ModelInfo{
	{ID: "grok-4", Name: "Grok 4", ContextTokens: 256_000, Reasoning: true},
	{ID: "grok-4-fast", Name: "Grok 4 Fast", ContextTokens: 2_000_000, Reasoning: true},
	{ID: "grok-3", Name: "Grok 3", ContextTokens: 131_072},
	{ID: "grok-3-mini", Name: "Grok 3 Mini", ContextTokens: 131_072, Reasoning: true},
}
