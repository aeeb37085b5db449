package compat

import (
	"log/slog"

	"github.com/chorushq/chorus/internal/utils"
	"github.com/chorushq/chorus/providers/ai"
)

// ProcessorOptions configures a stream processor for one call.
type ProcessorOptions struct {
	// Model is the fallback stamped on chunks whose frame names none.
	Model string
	// Thinking surfaces reasoning deltas as thinking chunks. When false
	// they are consumed silently.
	Thinking bool
}

// Processor normalizes chat-completions SSE frames into chunks. One
// instance serves exactly one stream; a fresh one is created per call so no
// state leaks between streams.
//
// Usage frames are recorded as they arrive and attached verbatim to the
// terminal chunk. A stop reason carried by a content frame is held back
// and only becomes the terminal chunk when [Processor.Finish] runs at end
// of stream; an explicit finish frame (empty delta) terminates immediately.
type Processor struct {
	options       ProcessorOptions
	usage         *ai.Usage
	metadata      *ai.ChunkMetadata
	seenURLs      map[string]bool
	pendingFinish *ai.FinishReason
	done          bool
}

// NewProcessor creates a processor for a single stream.
func NewProcessor(options ProcessorOptions) *Processor {
	return &Processor{
		options:  options,
		seenURLs: make(map[string]bool),
	}
}

// Reset clears all per-stream state. In practice a fresh processor is
// created per call instead.
func (processor *Processor) Reset() {
	processor.usage = nil
	processor.metadata = nil
	processor.seenURLs = make(map[string]bool)
	processor.pendingFinish = nil
	processor.done = false
}

// ProcessEvent consumes one SSE data payload and returns the normalized
// chunk it produces, or nil when the event only updates internal state.
// A payload that fails to decode gets one repair attempt and is then
// skipped as protocol noise.
func (processor *Processor) ProcessEvent(data string) *ai.Chunk {
	if processor.done {
		return nil
	}
	frame, err := utils.DecodeJSON[ChatCompletionChunk]([]byte(data))
	if err != nil {
		slog.Debug("skipping malformed chat-completions frame", "error", err)
		return nil
	}
	return processor.processFrame(frame)
}

// Finish emits the terminal chunk held back from a content frame, if any.
// The stream loop calls it once when the vendor stream ends.
func (processor *Processor) Finish() *ai.Chunk {
	if processor.done || processor.pendingFinish == nil {
		return nil
	}
	return processor.terminal(&ChatCompletionChunk{}, *processor.pendingFinish)
}

func (processor *Processor) processFrame(frame *ChatCompletionChunk) *ai.Chunk {
	if frame.Usage != nil {
		processor.usage = normalizeUsage(frame.Usage)
	}
	processor.collectCitations(frame.Citations)

	if len(frame.Choices) == 0 {
		return nil
	}
	choice := frame.Choices[0]
	processor.collectAnnotations(choice.Delta.Annotations)

	// Reasoning outranks content when a frame carries both.
	if reasoning := choice.Delta.reasoningText(); reasoning != "" {
		if finish := normalizeFinishReason(choice.FinishReason); finish != nil {
			processor.pendingFinish = finish
		}
		if !processor.options.Thinking {
			return nil
		}
		return processor.newChunk(frame).WithThinking(reasoning)
	}

	if content := choice.Delta.contentText(); content != "" {
		chunk := processor.newChunk(frame).WithContent(content)
		finish := normalizeFinishReason(choice.FinishReason)
		switch {
		case finish == nil:
		case *finish == ai.FinishStop:
			// A stop on a content frame is not the real end yet; the
			// terminal chunk is emitted when the stream closes.
			processor.pendingFinish = finish
		default:
			processor.done = true
			chunk.WithFinish(*finish)
			chunk.Usage = processor.usage
			chunk.Metadata = processor.metadata
		}
		return chunk
	}

	if finish := normalizeFinishReason(choice.FinishReason); finish != nil {
		return processor.terminal(frame, *finish)
	}

	// Role-only or empty delta frame.
	return nil
}

func (processor *Processor) terminal(frame *ChatCompletionChunk, reason ai.FinishReason) *ai.Chunk {
	processor.done = true
	chunk := processor.newChunk(frame).WithFinish(reason)
	chunk.Usage = processor.usage
	chunk.Metadata = processor.metadata
	return chunk
}

func (processor *Processor) newChunk(frame *ChatCompletionChunk) *ai.Chunk {
	model := frame.Model
	if model == "" {
		model = processor.options.Model
	}
	chunk := ai.NewChunk(frame.ID, model)
	if frame.Created > 0 {
		chunk.Created = frame.Created
	}
	return chunk
}

func (processor *Processor) collectCitations(urls []string) {
	for _, url := range urls {
		processor.addSearchResult(ai.SearchResult{URL: url})
	}
}

func (processor *Processor) collectAnnotations(annotations []Annotation) {
	for _, annotation := range annotations {
		if annotation.Type != "url_citation" || annotation.URLCitation == nil {
			continue
		}
		processor.addSearchResult(ai.SearchResult{
			Title:   annotation.URLCitation.Title,
			URL:     annotation.URLCitation.URL,
			Snippet: annotation.URLCitation.Content,
		})
	}
}

// addSearchResult merges one citation into the accumulated metadata,
// deduplicated by URL. Metadata is never reset mid-stream.
func (processor *Processor) addSearchResult(result ai.SearchResult) {
	if result.URL == "" || processor.seenURLs[result.URL] {
		return
	}
	processor.seenURLs[result.URL] = true
	if processor.metadata == nil {
		processor.metadata = &ai.ChunkMetadata{}
	}
	processor.metadata.SearchResults = append(processor.metadata.SearchResults, result)
}
