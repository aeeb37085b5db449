package gemini

import (
	"strings"
	"testing"

	"github.com/chorushq/chorus/providers/ai"
)

func newTestProcessor() *Processor {
	return NewProcessor(ProcessorOptions{Model: "gemini-2.5-flash", Thinking: true})
}

func processString(processor *Processor, frame string) *ai.Chunk {
	return processor.ProcessEvent([]byte(frame))
}

// TestProcessor_CumulativeContentDiff verifies that frames carrying the full
// cumulative text yield only the new suffix, and repeated text yields
// nothing.
func TestProcessor_CumulativeContentDiff(t *testing.T) {
	processor := newTestProcessor()

	first := processString(processor, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello"}]},"index":0}]}`)
	if first == nil || first.Choices[0].Delta.Content != "Hello" {
		t.Fatalf("expected initial text, got %+v", first)
	}

	second := processString(processor, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello, world!"}]},"index":0}]}`)
	if second == nil {
		t.Fatal("expected a chunk for the grown text")
	}
	if second.Choices[0].Delta.Content != ", world!" {
		t.Errorf("expected the new suffix, got %q", second.Choices[0].Delta.Content)
	}

	if repeat := processString(processor, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello, world!"}]},"index":0}]}`); repeat != nil {
		t.Errorf("repeated cumulative text must yield nothing, got %+v", repeat)
	}
}

// TestProcessor_OutOfOrderFrame verifies that a frame shorter than the
// stored cumulative text yields nothing and does not shrink the stored
// state.
func TestProcessor_OutOfOrderFrame(t *testing.T) {
	processor := newTestProcessor()
	processString(processor, `{"candidates":[{"content":{"parts":[{"text":"Hello, world!"}]},"index":0}]}`)

	if shrunk := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"Hello"}]},"index":0}]}`); shrunk != nil {
		t.Fatalf("shorter cumulative text must yield nothing, got %+v", shrunk)
	}

	grown := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"Hello, world!!"}]},"index":0}]}`)
	if grown == nil || grown.Choices[0].Delta.Content != "!" {
		t.Errorf("expected the diff against the longest seen text, got %+v", grown)
	}
}

// TestProcessor_ThoughtParts verifies that thought parts diff independently
// from answer parts and surface as thinking chunks.
func TestProcessor_ThoughtParts(t *testing.T) {
	processor := newTestProcessor()

	first := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"Let me think","thought":true}]},"index":0}]}`)
	if first == nil || first.Choices[0].Delta.Thinking != "Let me think" {
		t.Fatalf("expected a thinking chunk, got %+v", first)
	}
	if first.Choices[0].Delta.Content != "" {
		t.Error("thinking chunk must not carry content")
	}

	second := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"Let me think harder","thought":true}]},"index":0}]}`)
	if second == nil || second.Choices[0].Delta.Thinking != " harder" {
		t.Fatalf("expected the thought suffix, got %+v", second)
	}
}

// TestProcessor_ThoughtOutranksContent verifies that when one frame grows
// both thought and answer text, the thinking chunk wins and the answer
// growth is emitted from the next cumulative frame.
func TestProcessor_ThoughtOutranksContent(t *testing.T) {
	processor := newTestProcessor()

	first := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"planning","thought":true},{"text":"Answer"}]},"index":0}]}`)
	if first == nil || first.Choices[0].Delta.Thinking != "planning" {
		t.Fatalf("expected the thinking chunk to win, got %+v", first)
	}

	second := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"planning","thought":true},{"text":"Answer"}]},"index":0}]}`)
	if second == nil || second.Choices[0].Delta.Content != "Answer" {
		t.Fatalf("expected the withheld answer growth, got %+v", second)
	}
}

// TestProcessor_ThinkingDisabled verifies that thought parts are consumed
// silently and answer growth on the same frame still surfaces.
func TestProcessor_ThinkingDisabled(t *testing.T) {
	processor := NewProcessor(ProcessorOptions{Model: "gemini-2.5-flash"})

	chunk := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"hidden thought","thought":true},{"text":"visible"}]},"index":0}]}`)
	if chunk == nil {
		t.Fatal("expected the answer growth to surface")
	}
	if chunk.Choices[0].Delta.Content != "visible" || chunk.Choices[0].Delta.Thinking != "" {
		t.Errorf("expected content only, got %+v", chunk.Choices[0].Delta)
	}
}

// TestProcessor_StopSuppression verifies that STOP on a content frame is
// suppressed to nil and only becomes the terminal chunk when the stream
// ends.
func TestProcessor_StopSuppression(t *testing.T) {
	processor := newTestProcessor()

	chunk := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"done now"}]},"finishReason":"STOP","index":0}],"usageMetadata":{"promptTokenCount":2,"candidatesTokenCount":3,"totalTokenCount":5}}`)
	if chunk == nil || chunk.Choices[0].Delta.Content != "done now" {
		t.Fatalf("expected the content chunk, got %+v", chunk)
	}
	if chunk.Choices[0].FinishReason != nil {
		t.Errorf("mid-stream stop must be suppressed, got %v", *chunk.Choices[0].FinishReason)
	}

	terminal := processor.Finish()
	if terminal == nil {
		t.Fatal("expected the held-back terminal chunk")
	}
	if reason := terminal.FinishReason(); reason == nil || *reason != ai.FinishStop {
		t.Errorf("expected terminal stop, got %v", reason)
	}
	if terminal.Choices[0].Delta.Content != "" {
		t.Error("terminal chunk must carry an empty delta")
	}
	if terminal.Usage == nil || terminal.Usage.TotalTokens != 5 {
		t.Errorf("expected accumulated usage, got %+v", terminal.Usage)
	}

	if again := processor.Finish(); again != nil {
		t.Errorf("expected Finish to emit at most once, got %+v", again)
	}
}

// TestProcessor_FinishOnlyFrame verifies that a frame carrying a finish
// reason without new text terminates immediately.
func TestProcessor_FinishOnlyFrame(t *testing.T) {
	processor := newTestProcessor()
	processString(processor, `{"candidates":[{"content":{"parts":[{"text":"all"}]},"index":0}]}`)

	terminal := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"all"}]},"finishReason":"STOP","index":0}],"usageMetadata":{"promptTokenCount":1,"candidatesTokenCount":1,"totalTokenCount":2}}`)
	if terminal == nil {
		t.Fatal("expected an immediate terminal chunk")
	}
	if reason := terminal.FinishReason(); reason == nil || *reason != ai.FinishStop {
		t.Errorf("expected stop, got %v", reason)
	}
	if terminal.Usage == nil || terminal.Usage.TotalTokens != 2 {
		t.Errorf("expected usage, got %+v", terminal.Usage)
	}

	if after := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"all and more"}]},"index":0}]}`); after != nil {
		t.Errorf("no chunks may follow the terminal, got %+v", after)
	}
}

// TestProcessor_MaxTokensCut verifies that MAX_TOKENS attaches to the
// content chunk immediately.
func TestProcessor_MaxTokensCut(t *testing.T) {
	processor := newTestProcessor()

	chunk := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"truncat"}]},"finishReason":"MAX_TOKENS","index":0}]}`)
	if chunk == nil || chunk.Choices[0].Delta.Content != "truncat" {
		t.Fatalf("expected the partial content, got %+v", chunk)
	}
	if reason := chunk.FinishReason(); reason == nil || *reason != ai.FinishLength {
		t.Errorf("expected immediate length cut, got %v", reason)
	}

	if after := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"truncated after all"}]},"index":0}]}`); after != nil {
		t.Errorf("no chunks may follow the terminal, got %+v", after)
	}
}

// TestProcessor_PromptBlocked verifies that prompt feedback with a block
// reason terminates the stream as filtered content.
func TestProcessor_PromptBlocked(t *testing.T) {
	processor := newTestProcessor()

	terminal := processString(processor, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	if terminal == nil {
		t.Fatal("expected a terminal chunk")
	}
	if reason := terminal.FinishReason(); reason == nil || *reason != ai.FinishContentFilter {
		t.Errorf("expected content_filter, got %v", reason)
	}
}

// TestMapFinishReason verifies the vendor vocabulary mapping.
func TestMapFinishReason(t *testing.T) {
	tests := []struct {
		vendor string
		want   ai.FinishReason
	}{
		{vendor: "STOP", want: ai.FinishStop},
		{vendor: "OTHER", want: ai.FinishStop},
		{vendor: "MAX_TOKENS", want: ai.FinishLength},
		{vendor: "SAFETY", want: ai.FinishContentFilter},
		{vendor: "RECITATION", want: ai.FinishContentFilter},
		{vendor: "PROHIBITED_CONTENT", want: ai.FinishContentFilter},
		{vendor: "MALFORMED_FUNCTION_CALL", want: ai.FinishReason("malformed_function_call")},
	}
	for _, tt := range tests {
		if got := mapFinishReason(tt.vendor); got != tt.want {
			t.Errorf("mapFinishReason(%q) = %q, want %q", tt.vendor, got, tt.want)
		}
	}
}

// TestProcessor_Grounding verifies that grounding metadata merges across
// frames: queries and chunks deduplicated, support segments attached as
// snippets, and the suggestions widget converted out of HTML.
func TestProcessor_Grounding(t *testing.T) {
	processor := newTestProcessor()

	processString(processor, `{"candidates":[{"content":{"parts":[{"text":"Grounded"}]},"index":0,"groundingMetadata":{"webSearchQueries":["go 1.25 release"],"groundingChunks":[{"web":{"uri":"https://go.dev/doc/go1.25","title":"Go 1.25 Notes"}}],"groundingSupports":[{"segment":{"startIndex":0,"endIndex":8,"text":"Grounded"},"groundingChunkIndices":[0]}]}}]}`)
	processString(processor, `{"candidates":[{"content":{"parts":[{"text":"Grounded answer"}]},"index":0,"groundingMetadata":{"webSearchQueries":["go 1.25 release"],"groundingChunks":[{"web":{"uri":"https://go.dev/doc/go1.25","title":"dup"}},{"web":{"uri":"https://go.dev/blog/go1.25","title":"Go 1.25 Blog"}}],"searchEntryPoint":{"renderedContent":"<div><a href=\"https://www.google.com/search?q=go+1.25\">go 1.25</a></div>"}}}]}`)

	terminal := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"Grounded answer"}]},"finishReason":"STOP","index":0}]}`)
	if terminal == nil || terminal.Metadata == nil {
		t.Fatalf("expected terminal with metadata, got %+v", terminal)
	}
	metadata := terminal.Metadata

	if len(metadata.SearchQueries) != 1 || metadata.SearchQueries[0] != "go 1.25 release" {
		t.Errorf("expected one deduplicated query, got %+v", metadata.SearchQueries)
	}
	if len(metadata.SearchResults) != 2 {
		t.Fatalf("expected 2 deduplicated results, got %+v", metadata.SearchResults)
	}
	if metadata.SearchResults[0].URL != "https://go.dev/doc/go1.25" || metadata.SearchResults[0].Title != "Go 1.25 Notes" {
		t.Errorf("first result wrong: %+v", metadata.SearchResults[0])
	}
	if metadata.SearchResults[0].Snippet != "Grounded" {
		t.Errorf("expected the support segment as snippet, got %q", metadata.SearchResults[0].Snippet)
	}
	if metadata.Suggestions == "" || !strings.Contains(metadata.Suggestions, "https://www.google.com/search?q=go+1.25") {
		t.Errorf("expected markdown suggestions with the search link, got %q", metadata.Suggestions)
	}
	if strings.Contains(metadata.Suggestions, "<a href") {
		t.Errorf("suggestions must not stay HTML, got %q", metadata.Suggestions)
	}
}

// TestProcessor_UsageVerbatim verifies that the latest usage frame wins and
// is attached verbatim, including the thinking token count.
func TestProcessor_UsageVerbatim(t *testing.T) {
	processor := newTestProcessor()

	processString(processor, `{"candidates":[{"content":{"parts":[{"text":"a"}]},"index":0}],"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":1,"totalTokenCount":5}}`)
	terminal := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"a"}]},"finishReason":"STOP","index":0}],"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":2,"totalTokenCount":6,"thoughtsTokenCount":1}}`)

	if terminal == nil || terminal.Usage == nil {
		t.Fatalf("expected terminal with usage, got %+v", terminal)
	}
	if terminal.Usage.TotalTokens != 6 || terminal.Usage.ThinkingTokens != 1 {
		t.Errorf("expected the final usage verbatim, got %+v", terminal.Usage)
	}
}

// TestProcessor_FrameIdentity verifies the response id and model version
// are carried onto chunks, with a stable generated id as fallback.
func TestProcessor_FrameIdentity(t *testing.T) {
	t.Run("vendor identity", func(t *testing.T) {
		chunk := processString(newTestProcessor(), `{"responseId":"gen-7","modelVersion":"gemini-2.5-flash-002","candidates":[{"content":{"parts":[{"text":"x"}]},"index":0}]}`)
		if chunk == nil || chunk.ID != "gen-7" || chunk.Model != "gemini-2.5-flash-002" {
			t.Errorf("expected vendor identity, got %+v", chunk)
		}
	})

	t.Run("generated fallback", func(t *testing.T) {
		processor := newTestProcessor()
		first := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"x"}]},"index":0}]}`)
		second := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"xy"}]},"index":0}]}`)
		if first == nil || second == nil {
			t.Fatal("expected two chunks")
		}
		if !strings.HasPrefix(first.ID, "chunk_") {
			t.Errorf("expected generated id, got %q", first.ID)
		}
		if first.ID != second.ID {
			t.Errorf("expected a stable stream id, got %q then %q", first.ID, second.ID)
		}
		if first.Model != "gemini-2.5-flash" {
			t.Errorf("expected configured model fallback, got %q", first.Model)
		}
	})
}

// TestProcessor_MalformedFrames verifies the repair-then-skip policy.
func TestProcessor_MalformedFrames(t *testing.T) {
	processor := newTestProcessor()

	if chunk := processor.ProcessEvent([]byte("{broken")); chunk != nil {
		t.Fatalf("unrepairable noise must be skipped, got %+v", chunk)
	}

	chunk := processor.ProcessEvent([]byte(`{'candidates':[{'content':{'parts':[{'text':'repaired'}]},'index':0}]}`))
	if chunk == nil || chunk.Choices[0].Delta.Content != "repaired" {
		t.Fatalf("expected the repaired frame to decode, got %+v", chunk)
	}
}

// TestProcessor_Reset verifies that Reset clears every piece of per-stream
// state.
func TestProcessor_Reset(t *testing.T) {
	processor := newTestProcessor()
	processString(processor, `{"candidates":[{"content":{"parts":[{"text":"old text","thought":false}]},"finishReason":"STOP","index":0}],"usageMetadata":{"promptTokenCount":1,"candidatesTokenCount":1,"totalTokenCount":2}}`)

	processor.Reset()

	if terminal := processor.Finish(); terminal != nil {
		t.Errorf("expected no pending finish after reset, got %+v", terminal)
	}
	fresh := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"old"}]},"index":0}]}`)
	if fresh == nil || fresh.Choices[0].Delta.Content != "old" {
		t.Fatalf("expected cumulative tracking to restart, got %+v", fresh)
	}
	terminal := processString(processor, `{"candidates":[{"content":{"parts":[{"text":"old"}]},"finishReason":"STOP","index":0}]}`)
	if terminal == nil {
		t.Fatal("expected a terminal chunk")
	}
	if terminal.Usage != nil {
		t.Errorf("usage must not leak across resets, got %+v", terminal.Usage)
	}
	if terminal.Metadata != nil {
		t.Errorf("metadata must not leak across resets, got %+v", terminal.Metadata)
	}
}
