package gemini

import (
	"strings"

	"github.com/chorushq/chorus/providers/ai"
)

/*
	GEMINI API - REQUEST
*/

// generateContentRequest is the body for both the generateContent and
// streamGenerateContent endpoints.
type generateContentRequest struct {
	Contents          []content          `json:"contents"`
	SystemInstruction *systemInstruction `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig  `json:"generationConfig,omitempty"`
	Tools             []tool             `json:"tools,omitempty"`
}

// systemInstruction carries system-level guidance outside the turn list.
type systemInstruction struct {
	Parts []part `json:"parts"`
}

// content is one conversation turn. Gemini knows the roles user and model.
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// part is a typed fragment of a turn. Thought marks reasoning parts in
// streamed candidates.
type part struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

// generationConfig carries sampling and thinking parameters.
type generationConfig struct {
	Temperature     *float64        `json:"temperature,omitempty"`
	TopP            *float64        `json:"topP,omitempty"`
	MaxOutputTokens *int            `json:"maxOutputTokens,omitempty"`
	ThinkingConfig  *thinkingConfig `json:"thinkingConfig,omitempty"`
}

// thinkingConfig controls the reasoning token budget and whether thought
// parts are streamed back.
type thinkingConfig struct {
	ThinkingBudget  *int `json:"thinkingBudget,omitempty"`
	IncludeThoughts bool `json:"includeThoughts,omitempty"`
}

// tool enables a hosted tool. An empty googleSearch object turns on search
// grounding.
type tool struct {
	GoogleSearch *googleSearchTool `json:"googleSearch,omitempty"`
}

type googleSearchTool struct{}

// buildRequest maps the normalized conversation into a content-generation
// body. Gemini keeps no server-side conversation state, so the full history
// is always sent; system turns travel as systemInstruction parts.
func buildRequest(messages []ai.Message, config ai.GeminiConfig, options *ai.StreamOptions) generateContentRequest {
	request := generateContentRequest{}

	for _, message := range messages {
		if message.Role == ai.RoleSystem {
			if request.SystemInstruction == nil {
				request.SystemInstruction = &systemInstruction{}
			}
			request.SystemInstruction.Parts = append(request.SystemInstruction.Parts, part{Text: message.Content})
			continue
		}
		role := "user"
		if message.Role == ai.RoleAssistant {
			role = "model"
		}
		request.Contents = append(request.Contents, content{
			Role:  role,
			Parts: []part{{Text: message.Content}},
		})
	}

	generation := &generationConfig{}
	configured := false
	if options != nil {
		if options.MaxTokens > 0 {
			maxTokens := options.MaxTokens
			generation.MaxOutputTokens = &maxTokens
			configured = true
		}
		if options.Temperature != nil {
			generation.Temperature = options.Temperature
			configured = true
		}
		if options.TopP != nil {
			generation.TopP = options.TopP
			configured = true
		}
	}
	if config.ThinkingBudget != nil || config.IncludeThoughts {
		generation.ThinkingConfig = &thinkingConfig{
			ThinkingBudget:  config.ThinkingBudget,
			IncludeThoughts: config.IncludeThoughts,
		}
		configured = true
	}
	if configured {
		request.GenerationConfig = generation
	}

	if config.Search {
		request.Tools = append(request.Tools, tool{GoogleSearch: &googleSearchTool{}})
	}

	return request
}

/*
	GEMINI API - RESPONSE
*/

// generateContentResponse is one response frame. Streaming frames carry the
// same shape as the synchronous response, each with the cumulative
// candidate content so far.
type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates,omitempty"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *usageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
	ResponseID     string          `json:"responseId,omitempty"`
}

// candidate is one generated answer. This layer only reads the first.
type candidate struct {
	Content           *content           `json:"content,omitempty"`
	FinishReason      string             `json:"finishReason,omitempty"`
	Index             int                `json:"index,omitempty"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata,omitempty"`
}

// promptFeedback reports prompt-level blocking, delivered without any
// candidates when the prompt itself is rejected.
type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// groundingMetadata carries search grounding data: the executed queries,
// the cited web chunks, and a rendered suggestions block.
type groundingMetadata struct {
	SearchEntryPoint  *searchEntryPoint  `json:"searchEntryPoint,omitempty"`
	GroundingChunks   []groundingChunk   `json:"groundingChunks,omitempty"`
	GroundingSupports []groundingSupport `json:"groundingSupports,omitempty"`
	WebSearchQueries  []string           `json:"webSearchQueries,omitempty"`
}

// searchEntryPoint is Google's rendered search-suggestions widget, shipped
// as an HTML fragment.
type searchEntryPoint struct {
	RenderedContent string `json:"renderedContent,omitempty"`
}

// groundingChunk is one cited source.
type groundingChunk struct {
	Web *webChunk `json:"web,omitempty"`
}

// webChunk is a web citation.
type webChunk struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// groundingSupport ties a text segment to the chunks that ground it.
type groundingSupport struct {
	Segment               *segment `json:"segment,omitempty"`
	GroundingChunkIndices []int    `json:"groundingChunkIndices,omitempty"`
}

// segment is a span of candidate text.
type segment struct {
	StartIndex int    `json:"startIndex,omitempty"`
	EndIndex   int    `json:"endIndex,omitempty"`
	Text       string `json:"text,omitempty"`
}

// usageMetadata is Gemini's token accounting.
type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
	ThoughtsTokenCount   int `json:"thoughtsTokenCount,omitempty"`
}

// normalizeUsage copies the vendor's accounting verbatim onto the
// normalized shape.
func normalizeUsage(usage *usageMetadata) *ai.Usage {
	if usage == nil {
		return nil
	}
	return &ai.Usage{
		PromptTokens:     usage.PromptTokenCount,
		CompletionTokens: usage.CandidatesTokenCount,
		TotalTokens:      usage.TotalTokenCount,
		ThinkingTokens:   usage.ThoughtsTokenCount,
	}
}

// mapFinishReason normalizes Gemini's finish reason vocabulary. Safety and
// recitation blocks both count as filtered content; unknown reasons pass
// through lowercased rather than being invented.
func mapFinishReason(reason string) ai.FinishReason {
	switch reason {
	case "STOP", "OTHER":
		return ai.FinishStop
	case "MAX_TOKENS":
		return ai.FinishLength
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII":
		return ai.FinishContentFilter
	default:
		return ai.FinishReason(strings.ToLower(reason))
	}
}
