package gemini

import (
	"log/slog"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/chorushq/chorus/internal/utils"
	"github.com/chorushq/chorus/pkg/uuidx"
	"github.com/chorushq/chorus/providers/ai"
)

// ProcessorOptions configures a stream processor for one call.
type ProcessorOptions struct {
	// Model is the fallback stamped on chunks whose frame names none.
	Model string
	// Thinking surfaces thought parts as thinking chunks. When false they
	// are consumed silently.
	Thinking bool
}

// Processor normalizes content-generation frames into chunks. One instance
// serves exactly one stream; a fresh one is created per call so no state
// leaks between streams.
//
// Gemini frames carry the candidate's full cumulative text rather than
// deltas, so the processor tracks how much thought and answer text previous
// frames already covered and emits only the growth. Frames that repeat or
// shrink the cumulative text yield nothing and never shrink the stored
// lengths.
type Processor struct {
	options        ProcessorOptions
	streamID       string
	contentLength  int
	thinkingLength int
	usage          *ai.Usage
	metadata       *ai.ChunkMetadata
	seenURLs       map[string]bool
	seenQueries    map[string]bool
	pendingFinish  *ai.FinishReason
	done           bool
}

// NewProcessor creates a processor for a single stream.
func NewProcessor(options ProcessorOptions) *Processor {
	return &Processor{
		options:     options,
		seenURLs:    make(map[string]bool),
		seenQueries: make(map[string]bool),
	}
}

// Reset clears all per-stream state. In practice a fresh processor is
// created per call instead.
func (processor *Processor) Reset() {
	processor.streamID = ""
	processor.contentLength = 0
	processor.thinkingLength = 0
	processor.usage = nil
	processor.metadata = nil
	processor.seenURLs = make(map[string]bool)
	processor.seenQueries = make(map[string]bool)
	processor.pendingFinish = nil
	processor.done = false
}

// ProcessEvent consumes one framed response object and returns the
// normalized chunk it produces, or nil when the frame only updates internal
// state. A frame that fails to decode gets one repair attempt and is then
// skipped as protocol noise.
func (processor *Processor) ProcessEvent(frame []byte) *ai.Chunk {
	if processor.done {
		return nil
	}
	response, err := utils.DecodeJSON[generateContentResponse](frame)
	if err != nil {
		slog.Debug("skipping malformed content-generation frame", "error", err)
		return nil
	}
	return processor.processFrame(response)
}

// Finish emits the terminal chunk held back from a delta-bearing frame, if
// any. The stream loop calls it once when the vendor stream ends.
func (processor *Processor) Finish() *ai.Chunk {
	if processor.done || processor.pendingFinish == nil {
		return nil
	}
	return processor.terminal(&generateContentResponse{}, *processor.pendingFinish)
}

func (processor *Processor) processFrame(frame *generateContentResponse) *ai.Chunk {
	if frame.UsageMetadata != nil {
		processor.usage = normalizeUsage(frame.UsageMetadata)
	}
	if frame.ResponseID != "" {
		processor.ensureMetadata().ResponseID = frame.ResponseID
	}

	// A rejected prompt arrives as feedback without candidates and ends the
	// stream as filtered content.
	if frame.PromptFeedback != nil && frame.PromptFeedback.BlockReason != "" {
		return processor.terminal(frame, ai.FinishContentFilter)
	}

	if len(frame.Candidates) == 0 {
		return nil
	}
	candidate := frame.Candidates[0]
	processor.mergeGrounding(candidate.GroundingMetadata)

	thinking, content := processor.diffParts(&candidate)

	// Thought growth outranks answer growth when one frame carries both;
	// the withheld answer text is still part of the next frame's cumulative
	// view and is emitted then.
	if thinking != "" {
		processor.thinkingLength += len(thinking)
		if processor.options.Thinking {
			chunk := processor.newChunk(frame).WithThinking(thinking)
			processor.applyFinish(chunk, candidate.FinishReason)
			return chunk
		}
	}

	if content != "" {
		processor.contentLength += len(content)
		chunk := processor.newChunk(frame).WithContent(content)
		processor.applyFinish(chunk, candidate.FinishReason)
		return chunk
	}

	if candidate.FinishReason != "" {
		return processor.terminal(frame, mapFinishReason(candidate.FinishReason))
	}
	return nil
}

// applyFinish handles a finish reason attached to a delta-bearing frame. A
// stop is held back until the stream closes; early-termination reasons
// attach to the chunk immediately and end the stream.
func (processor *Processor) applyFinish(chunk *ai.Chunk, vendorReason string) {
	if vendorReason == "" {
		return
	}
	reason := mapFinishReason(vendorReason)
	if reason == ai.FinishStop {
		processor.pendingFinish = &reason
		return
	}
	processor.done = true
	chunk.WithFinish(reason)
	chunk.Usage = processor.usage
	chunk.Metadata = processor.metadata
}

func (processor *Processor) terminal(frame *generateContentResponse, reason ai.FinishReason) *ai.Chunk {
	processor.done = true
	chunk := processor.newChunk(frame).WithFinish(reason)
	chunk.Usage = processor.usage
	chunk.Metadata = processor.metadata
	return chunk
}

// diffParts joins the frame's thought and answer parts into their
// cumulative texts and returns only the growth past what previous frames
// covered. Not-longer cumulative text yields empty growth and leaves the
// stored lengths untouched.
func (processor *Processor) diffParts(cand *candidate) (thinking, content string) {
	if cand.Content == nil {
		return "", ""
	}
	var thinkingFull, contentFull strings.Builder
	for _, part := range cand.Content.Parts {
		if part.Text == "" {
			continue
		}
		if part.Thought {
			thinkingFull.WriteString(part.Text)
		} else {
			contentFull.WriteString(part.Text)
		}
	}
	if full := thinkingFull.String(); len(full) > processor.thinkingLength {
		thinking = full[processor.thinkingLength:]
	}
	if full := contentFull.String(); len(full) > processor.contentLength {
		content = full[processor.contentLength:]
	}
	return thinking, content
}

// newChunk builds a chunk carrying the frame's response id when present,
// otherwise one generated id shared by the whole stream.
func (processor *Processor) newChunk(frame *generateContentResponse) *ai.Chunk {
	id := frame.ResponseID
	if id == "" {
		if processor.streamID == "" {
			processor.streamID = "chunk_" + uuidx.NewString()
		}
		id = processor.streamID
	}
	model := frame.ModelVersion
	if model == "" {
		model = processor.options.Model
	}
	return ai.NewChunk(id, model)
}

// mergeGrounding folds search grounding into the accumulated metadata:
// queries and cited chunks deduplicated, support segments attached as
// snippets, and the rendered suggestions widget converted to markdown.
// Metadata is never reset mid-stream.
func (processor *Processor) mergeGrounding(grounding *groundingMetadata) {
	if grounding == nil {
		return
	}
	metadata := processor.ensureMetadata()

	for _, query := range grounding.WebSearchQueries {
		if query == "" || processor.seenQueries[query] {
			continue
		}
		processor.seenQueries[query] = true
		metadata.SearchQueries = append(metadata.SearchQueries, query)
	}

	snippets := make(map[int]string)
	for _, support := range grounding.GroundingSupports {
		if support.Segment == nil || support.Segment.Text == "" {
			continue
		}
		for _, index := range support.GroundingChunkIndices {
			if _, ok := snippets[index]; !ok {
				snippets[index] = support.Segment.Text
			}
		}
	}

	for i, chunk := range grounding.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" || processor.seenURLs[chunk.Web.URI] {
			continue
		}
		processor.seenURLs[chunk.Web.URI] = true
		metadata.SearchResults = append(metadata.SearchResults, ai.SearchResult{
			Title:   chunk.Web.Title,
			URL:     chunk.Web.URI,
			Snippet: snippets[i],
		})
	}

	if grounding.SearchEntryPoint != nil && grounding.SearchEntryPoint.RenderedContent != "" {
		markdown, err := htmltomarkdown.ConvertString(grounding.SearchEntryPoint.RenderedContent)
		if err != nil {
			slog.Debug("failed to convert search suggestions", "error", err)
		} else if trimmed := strings.TrimSpace(markdown); trimmed != "" {
			metadata.Suggestions = trimmed
		}
	}
}

func (processor *Processor) ensureMetadata() *ai.ChunkMetadata {
	if processor.metadata == nil {
		processor.metadata = &ai.ChunkMetadata{}
	}
	return processor.metadata
}
