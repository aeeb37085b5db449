package compat

import (
	json "github.com/goccy/go-json"

	"github.com/chorushq/chorus/providers/ai"
)

// ChatMessage is one conversation turn in the chat-completions wire format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatStreamOptions asks the vendor to attach usage accounting to the
// stream's final frames.
type ChatStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ChatRequest is the chat-completions request body. Vendor packages embed
// it and add their own extension fields.
type ChatRequest struct {
	Model         string             `json:"model"`
	Messages      []ChatMessage      `json:"messages"`
	Stream        bool               `json:"stream,omitempty"`
	StreamOptions *ChatStreamOptions `json:"stream_options,omitempty"`
	MaxTokens     int                `json:"max_tokens,omitempty"`
	Temperature   *float64           `json:"temperature,omitempty"`
	TopP          *float64           `json:"top_p,omitempty"`
}

// BuildChatRequest maps a normalized conversation onto the chat-completions
// wire shape. The result is the non-streaming form; callers flip Stream on
// for SSE dispatch. Chat-completions vendors keep no server-side
// conversation state, so the full history is always sent and any
// previous-response id in the options is ignored.
func BuildChatRequest(messages []ai.Message, model string, options *ai.StreamOptions) ChatRequest {
	request := ChatRequest{
		Model:    model,
		Messages: make([]ChatMessage, 0, len(messages)),
	}
	for _, message := range messages {
		request.Messages = append(request.Messages, ChatMessage{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}
	if options != nil {
		request.MaxTokens = options.MaxTokens
		request.Temperature = options.Temperature
		request.TopP = options.TopP
	}
	return request
}

// Delta is the incremental payload of one streaming choice. Reasoning and
// ReasoningContent are the two spellings compatible vendors use for the
// reasoning side-channel; they stay raw because some vendors ship objects
// there instead of strings.
type Delta struct {
	Role             string          `json:"role,omitempty"`
	Content          *string         `json:"content,omitempty"`
	Reasoning        json.RawMessage `json:"reasoning,omitempty"`
	ReasoningContent json.RawMessage `json:"reasoning_content,omitempty"`
	Annotations      []Annotation    `json:"annotations,omitempty"`
}

func (delta Delta) contentText() string {
	if delta.Content == nil {
		return ""
	}
	return *delta.Content
}

func (delta Delta) reasoningText() string {
	if text := rawText(delta.Reasoning); text != "" {
		return text
	}
	return rawText(delta.ReasoningContent)
}

// rawText reads a payload that is usually a JSON string but not always.
// Strings decode to their value, null and absence to empty, and any other
// shape passes through as its raw encoding rather than being dropped.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

// Annotation is an inline citation attached to a delta.
type Annotation struct {
	Type        string       `json:"type"`
	URLCitation *URLCitation `json:"url_citation,omitempty"`
}

// URLCitation is the url_citation annotation body.
type URLCitation struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Content    string `json:"content,omitempty"`
	StartIndex int    `json:"start_index,omitempty"`
	EndIndex   int    `json:"end_index,omitempty"`
}

// StreamChoice is one choice record of a streaming frame.
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// ChatCompletionChunk is one streaming SSE frame. Citations carries the
// top-level citation URLs some vendors attach instead of inline
// annotations.
type ChatCompletionChunk struct {
	ID        string         `json:"id"`
	Object    string         `json:"object"`
	Created   int64          `json:"created"`
	Model     string         `json:"model"`
	Choices   []StreamChoice `json:"choices"`
	Usage     *ChatUsage     `json:"usage,omitempty"`
	Citations []string       `json:"citations,omitempty"`
}

// ChatUsage is the vendor's token accounting.
type ChatUsage struct {
	PromptTokens            int                      `json:"prompt_tokens"`
	CompletionTokens        int                      `json:"completion_tokens"`
	TotalTokens             int                      `json:"total_tokens"`
	CompletionTokensDetails *CompletionTokensDetails `json:"completion_tokens_details,omitempty"`
}

// CompletionTokensDetails breaks completion tokens down further.
type CompletionTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

// ChatCompletion is the synchronous (non-streaming) response body.
type ChatCompletion struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   *ChatUsage         `json:"usage,omitempty"`
}

// CompletionChoice is one choice of a synchronous response.
type CompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason *string     `json:"finish_reason"`
}

// normalizeFinishReason maps a vendor finish reason onto the normalized
// enum. Unknown reasons pass through verbatim.
func normalizeFinishReason(reason *string) *ai.FinishReason {
	if reason == nil || *reason == "" {
		return nil
	}
	var normalized ai.FinishReason
	switch *reason {
	case "stop", "end_turn":
		normalized = ai.FinishStop
	case "length", "max_tokens":
		normalized = ai.FinishLength
	case "content_filter":
		normalized = ai.FinishContentFilter
	default:
		normalized = ai.FinishReason(*reason)
	}
	return &normalized
}

// normalizeUsage converts vendor token accounting verbatim; totals are
// never recomputed here.
func normalizeUsage(usage *ChatUsage) *ai.Usage {
	normalized := &ai.Usage{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}
	if usage.CompletionTokensDetails != nil {
		normalized.ThinkingTokens = usage.CompletionTokensDetails.ReasoningTokens
	}
	return normalized
}
