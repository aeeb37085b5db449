package openai

import (
	"log/slog"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/chorushq/chorus/internal/utils"
	"github.com/chorushq/chorus/providers/ai"
)

// ProcessorOptions configures a stream processor for one call.
type ProcessorOptions struct {
	// Model is the fallback stamped on chunks whose event names none.
	Model string
	// Thinking surfaces reasoning summaries as thinking chunks. When false
	// they are consumed silently.
	Thinking bool
}

// Processor normalizes Responses API typed events into chunks. One instance
// serves exactly one stream; a fresh one is created per call so no state
// leaks between streams.
//
// Reasoning can arrive twice: as incremental summary deltas and again as a
// whole reasoning output item. The processor tracks whether any reasoning
// was already emitted and drops the duplicate block.
type Processor struct {
	options          ProcessorOptions
	metadata         *ai.ChunkMetadata
	seenURLs         map[string]bool
	emittedReasoning bool
	done             bool
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
	processor.metadata = nil
	processor.seenURLs = make(map[string]bool)
	processor.emittedReasoning = false
	processor.done = false
}

// ProcessEvent consumes one typed event and returns the normalized chunk it
// produces, or nil when the event only updates internal state. name is the
// SSE event name, used when the payload carries no type field of its own.
// A payload that fails to decode gets one repair attempt and is then
// skipped as protocol noise.
func (processor *Processor) ProcessEvent(name, data string) *ai.Chunk {
	if processor.done {
		return nil
	}
	event, err := utils.DecodeJSON[streamEvent]([]byte(data))
	if err != nil {
		slog.Debug("skipping malformed response event", "error", err)
		return nil
	}
	eventType := event.Type
	if eventType == "" {
		eventType = name
	}

	switch eventType {
	case "response.created", "response.in_progress":
		if event.Response != nil && event.Response.ID != "" {
			processor.ensureMetadata().ResponseID = event.Response.ID
		}
		return nil

	case "response.web_search_call.in_progress",
		"response.web_search_call.searching",
		"response.web_search_call.completed":
		// Search lifecycle markers carry no payload themselves; the query
		// arrives with the finished output item.
		return nil

	case "response.output_text.annotation.added":
		if event.Annotation != nil {
			processor.addAnnotation(*event.Annotation)
		}
		return nil

	case "response.reasoning_summary_text.delta", "response.reasoning_text.delta":
		if !processor.options.Thinking {
			return nil
		}
		text := deltaText(event.Delta)
		if text == "" {
			return nil
		}
		processor.emittedReasoning = true
		return processor.newChunk().WithThinking(text)

	case "response.reasoning_summary_text.done",
		"response.reasoning_summary_part.added",
		"response.reasoning_summary_part.done",
		"response.reasoning_text.done":
		return nil

	case "response.output_item.done":
		return processor.processItem(event.Item)

	case "response.output_text.delta":
		text := deltaText(event.Delta)
		if text == "" {
			return nil
		}
		return processor.newChunk().WithContent(text)

	case "response.completed", "response.incomplete":
		return processor.terminal(event.Response)
	}

	// Unhandled lifecycle events (output_item.added, content_part.*, ...)
	// carry nothing this layer surfaces.
	return nil
}

// processItem handles a finished output item. Message items only contribute
// their citation annotations; the text already streamed as deltas. A whole
// reasoning item is surfaced once, and only when no incremental reasoning
// preceded it.
func (processor *Processor) processItem(item *outputItem) *ai.Chunk {
	if item == nil {
		return nil
	}
	switch item.Type {
	case "web_search_call":
		if item.Action != nil && item.Action.Query != "" {
			metadata := processor.ensureMetadata()
			metadata.SearchQueries = append(metadata.SearchQueries, item.Action.Query)
		}
	case "message":
		for _, content := range item.Content {
			for _, annotation := range content.Annotations {
				processor.addAnnotation(annotation)
			}
		}
	case "reasoning":
		if !processor.options.Thinking || processor.emittedReasoning {
			return nil
		}
		summary := item.summaryText()
		if strings.TrimSpace(summary) == "" {
			return nil
		}
		processor.emittedReasoning = true
		return processor.newChunk().WithThinking(summary)
	}
	return nil
}

// terminal emits the stream's terminal chunk from the final response
// snapshot, with usage taken verbatim and all accumulated metadata attached.
func (processor *Processor) terminal(response *responseObject) *ai.Chunk {
	processor.done = true

	id := ""
	model := processor.options.Model
	if response != nil {
		id = response.ID
		if response.Model != "" {
			model = response.Model
		}
		if id != "" {
			processor.ensureMetadata().ResponseID = id
		}
	}

	chunk := ai.NewChunk(id, model).WithFinish(normalizeFinish(response))
	if response != nil {
		chunk.Usage = normalizeUsage(response.Usage)
	}
	chunk.Metadata = processor.metadata
	return chunk
}

// newChunk builds a mid-stream chunk. Delta events carry no identifier of
// their own, so chunks reuse the response id once it is known.
func (processor *Processor) newChunk() *ai.Chunk {
	id := ""
	if processor.metadata != nil {
		id = processor.metadata.ResponseID
	}
	return ai.NewChunk(id, processor.options.Model)
}

// addAnnotation merges one url_citation into the accumulated metadata,
// deduplicated by URL. Metadata is never reset mid-stream.
func (processor *Processor) addAnnotation(item annotation) {
	if item.URL == "" || processor.seenURLs[item.URL] {
		return
	}
	processor.seenURLs[item.URL] = true
	metadata := processor.ensureMetadata()
	metadata.SearchResults = append(metadata.SearchResults, ai.SearchResult{
		Title: item.Title,
		URL:   item.URL,
	})
}

func (processor *Processor) ensureMetadata() *ai.ChunkMetadata {
	if processor.metadata == nil {
		processor.metadata = &ai.ChunkMetadata{}
	}
	return processor.metadata
}

// deltaText extracts the text of a delta payload. String payloads decode to
// their value; any other JSON shape is kept verbatim as its raw encoding
// rather than dropped.
func deltaText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}
