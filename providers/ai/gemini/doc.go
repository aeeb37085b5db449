// Package gemini implements the Google Gemini provider on the
// content-generation API.
//
// The streaming endpoint returns a JSON array of response objects over a
// chunked body rather than SSE lines, so frames are recovered with a
// brace-depth scanner. Each frame carries the candidate's full cumulative
// text, not a delta; the processor diffs against the last-seen text and
// emits only the new suffix.
package gemini
