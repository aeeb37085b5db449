package ai

import (
	"iter"
	"strings"
)

// ChunkStream wraps a streaming iterator and provides accumulation of
// chunks into a final [Collected] result. It supports range-based iteration
// for real-time delta processing and a convenience Collect() method for
// callers who want the complete response.
//
// Important: callers must consume the stream, either by iterating with
// Iter() (including breaking out of the loop early) or by calling Collect().
// The provider holds open resources (an HTTP response body) that are only
// released when the iterator completes or is abandoned via a loop break.
// Constructing a ChunkStream and never iterating it will leak those
// resources.
type ChunkStream struct {
	iterator iter.Seq2[Chunk, error]
}

// NewChunkStream creates a ChunkStream from a raw streaming iterator. The
// iterator is expected to yield Chunk values (with nil error) for normal
// deltas, and may yield a non-nil error to signal a mid-stream failure.
func NewChunkStream(iterator iter.Seq2[Chunk, error]) *ChunkStream {
	return &ChunkStream{iterator: iterator}
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
// Example:
//
//	for chunk, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    fmt.Print(chunk.Choices[0].Delta.Content)
//	}
func (stream *ChunkStream) Iter() iter.Seq2[Chunk, error] {
	return stream.iterator
}

// Collected is the accumulated form of a fully drained stream. Usage and
// Metadata come from the terminal chunk; Content and Thinking are the
// concatenation of every delta.
type Collected struct {
	ID           string         `json:"id"`
	Model        string         `json:"model"`
	Content      string         `json:"content"`
	Thinking     string         `json:"thinking,omitempty"`
	FinishReason *FinishReason  `json:"finish_reason"`
	Usage        *Usage         `json:"usage,omitempty"`
	Metadata     *ChunkMetadata `json:"metadata,omitempty"`
}

// Collect consumes the entire stream and returns the accumulated result.
// Any mid-stream error terminates collection and returns the partial result
// together with the error.
func (stream *ChunkStream) Collect() (*Collected, error) {
	collected := &Collected{}
	var content, thinking strings.Builder

	for chunk, err := range stream.iterator {
		if err != nil {
			collected.Content = content.String()
			collected.Thinking = thinking.String()
			return collected, err
		}

		if collected.ID == "" {
			collected.ID = chunk.ID
		}
		if collected.Model == "" {
			collected.Model = chunk.Model
		}
		if len(chunk.Choices) > 0 {
			content.WriteString(chunk.Choices[0].Delta.Content)
			thinking.WriteString(chunk.Choices[0].Delta.Thinking)
			if chunk.Choices[0].FinishReason != nil {
				collected.FinishReason = chunk.Choices[0].FinishReason
			}
		}
		if chunk.Usage != nil {
			collected.Usage = chunk.Usage
		}
		if chunk.Metadata != nil {
			collected.Metadata = chunk.Metadata
		}
	}

	collected.Content = content.String()
	collected.Thinking = thinking.String()
	return collected, nil
}

// Text drains the stream and returns the concatenated content, discarding
// thinking, usage, and metadata.
func (stream *ChunkStream) Text() (string, error) {
	collected, err := stream.Collect()
	if err != nil {
		return "", err
	}
	return collected.Content, nil
}
