package openai

import "github.com/chorushq/chorus/providers/ai"

// modelTable lists the models surfaced through capabilities. Ids outside
// the table only raise a validation warning, new models usually work
// before the table catches up.
var modelTable = []ai.ModelInfo{
	{ID: "gpt-5", Name: "GPT-5", ContextTokens: 400_000, Reasoning: true},
	{ID: "gpt-5-mini", Name: "GPT-5 Mini", ContextTokens: 400_000, Reasoning: true},
	{ID: "gpt-5-nano", Name: "GPT-5 Nano", ContextTokens: 400_000, Reasoning: true},
	{ID: "gpt-4.1", Name: "GPT-4.1", ContextTokens: 1_047_576},
	{ID: "gpt-4o", Name: "GPT-4o", ContextTokens: 128_000},
	{ID: "o3", Name: "o3", ContextTokens: 200_000, Reasoning: true},
	{ID: "o4-mini", Name: "o4-mini", ContextTokens: 200_000, Reasoning: true},
}
