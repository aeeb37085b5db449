package ai

import (
	"time"

	"github.com/chorushq/chorus/pkg/uuidx"
)

// ObjectChunk is the object kind stamped on every streaming chunk.
const ObjectChunk = "chat.completion.chunk"

// FinishReason is the normalized terminal reason of a stream. It is nil on
// every chunk until the terminal one.
type FinishReason string

const (
	// FinishStop indicates the model completed its turn normally.
	FinishStop FinishReason = "stop"
	// FinishLength indicates the output was cut off by a token limit.
	FinishLength FinishReason = "length"
	// FinishContentFilter indicates the output was blocked or truncated by
	// a safety filter.
	FinishContentFilter FinishReason = "content_filter"
)

// Early reports whether the stream ended before the model completed its turn
// normally: a token-limit cut, a safety filter, or a vendor-specific reason
// passed through verbatim.
func (reason FinishReason) Early() bool {
	return reason != FinishStop
}

// Chunk is the vendor-agnostic incremental streaming unit produced by every
// provider. A chunk carries exactly one choice: this layer only supports
// single-response streaming.
type Chunk struct {
	ID       string         `json:"id"`
	Object   string         `json:"object"`
	Created  int64          `json:"created"`
	Model    string         `json:"model"`
	Choices  []ChunkChoice  `json:"choices"`
	Usage    *Usage         `json:"usage,omitempty"`
	Metadata *ChunkMetadata `json:"metadata,omitempty"`
}

// ChunkChoice is the single choice record of a chunk. FinishReason stays nil
// while the stream is live and carries the normalized reason on the terminal
// chunk.
type ChunkChoice struct {
	Index        int           `json:"index"`
	Delta        ChunkDelta    `json:"delta"`
	FinishReason *FinishReason `json:"finish_reason"`
}

// ChunkDelta is the incremental payload of a chunk. Content carries answer
// text; Thinking carries the model's reasoning side-channel when the
// provider is configured to surface it.
type ChunkDelta struct {
	Content  string `json:"content,omitempty"`
	Thinking string `json:"thinking,omitempty"`
}

// Usage is the token accounting reported on the terminal chunk. Values are
// taken verbatim from the vendor's terminal event, never accumulated by this
// layer.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	ThinkingTokens   int `json:"thinking_tokens,omitempty"`
}

// SearchResult is one normalized web citation attached to a stream's
// metadata.
type SearchResult struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// ChunkMetadata carries out-of-band stream information: the provider-side
// response identifier (usable to continue a conversation server-side) and
// accumulated search/citation data.
type ChunkMetadata struct {
	ResponseID    string         `json:"response_id,omitempty"`
	SearchResults []SearchResult `json:"search_results,omitempty"`
	SearchQueries []string       `json:"search_queries,omitempty"`
	// Suggestions holds the provider's rendered search-suggestion block
	// converted to markdown.
	Suggestions string `json:"suggestions,omitempty"`
}

// NewChunk builds a chunk shell with a single empty choice, the current
// timestamp, and a generated identifier when the vendor event did not carry
// one. The model is the processor's configured fallback when the event has
// no model of its own.
func NewChunk(id, model string) *Chunk {
	if id == "" {
		id = "chunk_" + uuidx.NewString()
	}
	return &Chunk{
		ID:      id,
		Object:  ObjectChunk,
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []ChunkChoice{{Index: 0}},
	}
}

// WithContent sets the content delta and returns the chunk.
func (chunk *Chunk) WithContent(text string) *Chunk {
	chunk.Choices[0].Delta.Content = text
	return chunk
}

// WithThinking sets the thinking delta and returns the chunk.
func (chunk *Chunk) WithThinking(text string) *Chunk {
	chunk.Choices[0].Delta.Thinking = text
	return chunk
}

// WithFinish marks the chunk terminal with the given reason and returns it.
func (chunk *Chunk) WithFinish(reason FinishReason) *Chunk {
	chunk.Choices[0].FinishReason = &reason
	return chunk
}

// FinishReason returns the chunk's finish reason, or nil while streaming.
func (chunk *Chunk) FinishReason() *FinishReason {
	if len(chunk.Choices) == 0 {
		return nil
	}
	return chunk.Choices[0].FinishReason
}
