package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// ---- SSEScanner tests -------------------------------------------------------

// TestSSEScanner_SingleEvent verifies that a simple "data: <payload>\n\n"
// produces exactly one event and then io.EOF.
func TestSSEScanner_SingleEvent_ReturnsSinglePayload(t *testing.T) {
	input := "data: hello\n\n"
	scanner := NewSSEScanner(strings.NewReader(input))

	event, err := scanner.Next()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if event.Data != "hello" {
		t.Errorf("expected payload %q, got %q", "hello", event.Data)
	}
	if event.Name != "" {
		t.Errorf("expected empty event name, got %q", event.Name)
	}

	_, err = scanner.Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF after last event, got %v", err)
	}
}

// TestSSEScanner_NamedEvents verifies that "event:" lines attach the event
// name to the payload that follows, and that the name resets between events.
func TestSSEScanner_NamedEvents_AttachesName(t *testing.T) {
	input := "event: response.output_text.delta\ndata: {\"delta\":\"Hi\"}\n\ndata: unnamed\n\n"
	scanner := NewSSEScanner(strings.NewReader(input))

	event, err := scanner.Next()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if event.Name != "response.output_text.delta" {
		t.Errorf("expected event name %q, got %q", "response.output_text.delta", event.Name)
	}
	if event.Data != `{"delta":"Hi"}` {
		t.Errorf("unexpected payload %q", event.Data)
	}

	event, err = scanner.Next()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if event.Name != "" {
		t.Errorf("expected event name to reset, got %q", event.Name)
	}
	if event.Data != "unnamed" {
		t.Errorf("expected payload %q, got %q", "unnamed", event.Data)
	}
}

// TestSSEScanner_MultiLineDataEvent verifies that consecutive "data:" lines
// within a single event are joined with newlines into a single payload.
func TestSSEScanner_MultiLineDataEvent_JoinsWithNewline(t *testing.T) {
	input := "data: line1\ndata: line2\ndata: line3\n\n"
	scanner := NewSSEScanner(strings.NewReader(input))

	event, err := scanner.Next()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	expected := "line1\nline2\nline3"
	if event.Data != expected {
		t.Errorf("expected %q, got %q", expected, event.Data)
	}
}

// TestSSEScanner_SkipsComments verifies that lines starting with ":" are
// treated as SSE comments and ignored.
func TestSSEScanner_SkipsComments_ReturnsOnlyDataEvents(t *testing.T) {
	input := ": this is a comment\ndata: real payload\n\n"
	scanner := NewSSEScanner(strings.NewReader(input))

	event, err := scanner.Next()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if event.Data != "real payload" {
		t.Errorf("expected %q, got %q", "real payload", event.Data)
	}
}

// TestSSEScanner_DoneSentinel verifies that a "data: [DONE]" line causes
// Next() to return io.EOF immediately (OpenAI convention).
func TestSSEScanner_DoneSentinel_ReturnsEOF(t *testing.T) {
	input := "data: before\n\ndata: [DONE]\n\n"
	scanner := NewSSEScanner(strings.NewReader(input))

	_, err := scanner.Next()
	if err != nil {
		t.Fatalf("expected nil error on first event, got %v", err)
	}

	_, err = scanner.Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF on [DONE], got %v", err)
	}
}

// TestSSEScanner_EmptyStream verifies that an empty input returns io.EOF
// immediately without panicking.
func TestSSEScanner_EmptyStream_ReturnsEOF(t *testing.T) {
	scanner := NewSSEScanner(strings.NewReader(""))

	_, err := scanner.Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF for empty stream, got %v", err)
	}
}

// TestSSEScanner_TrailingDataWithoutFinalBlankLine verifies that data lines
// at the end of the stream are still returned even when the final blank line
// is missing.
func TestSSEScanner_TrailingDataWithoutFinalBlankLine_ReturnsPayload(t *testing.T) {
	input := "data: trailing"
	scanner := NewSSEScanner(strings.NewReader(input))

	event, err := scanner.Next()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if event.Data != "trailing" {
		t.Errorf("expected %q, got %q", "trailing", event.Data)
	}

	_, err = scanner.Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

// ---- DoPostStream tests -------------------------------------------------------

// TestDoPostStream_Success verifies that a 2xx response is returned with the
// body left open for reading.
func TestDoPostStream_Success_BodyLeftOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("expected Accept header text/event-stream, got %q", request.Header.Get("Accept"))
		}
		if request.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", request.Header.Get("Authorization"))
		}
		writer.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(writer, "data: hello\n\n")
	}))
	defer server.Close()

	response, err := DoPostStream(context.Background(), server.Client(), server.URL, "test-key", map[string]string{"input": "hi"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	defer CloseWithLog(response.Body)

	event, err := NewSSEScanner(response.Body).Next()
	if err != nil {
		t.Fatalf("expected nil error reading body, got %v", err)
	}
	if event.Data != "hello" {
		t.Errorf("expected %q, got %q", "hello", event.Data)
	}
}

// TestDoPostStream_Non2xx verifies that error responses produce a *StatusError
// carrying the status code, body, and Retry-After header.
func TestDoPostStream_Non2xx_ReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Retry-After", "30")
		writer.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(writer, `{"error":{"message":"rate limited"}}`)
	}))
	defer server.Close()

	_, err := DoPostStream(context.Background(), server.Client(), server.URL, "test-key", map[string]string{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", statusErr.StatusCode)
	}
	if !strings.Contains(statusErr.Body, "rate limited") {
		t.Errorf("expected body to contain vendor message, got %q", statusErr.Body)
	}
	if statusErr.RetryAfter != 30*time.Second {
		t.Errorf("expected RetryAfter 30s, got %v", statusErr.RetryAfter)
	}
}

// TestDoPostStream_CustomHeader verifies that a HeaderOption can override the
// default Authorization header for providers with their own auth scheme.
func TestDoPostStream_CustomHeader_OverridesDefault(t *testing.T) {
	const customHeaderKey = "x-goog-api-key"
	const customHeaderValue = "gemini-key"

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get(customHeaderKey) != customHeaderValue {
			t.Errorf("expected custom header %q=%q, got %q", customHeaderKey, customHeaderValue, request.Header.Get(customHeaderKey))
		}
		if request.Header.Get("Authorization") != "" {
			t.Errorf("expected no Authorization header, got %q", request.Header.Get("Authorization"))
		}
		fmt.Fprint(writer, "data: ok\n\n")
	}))
	defer server.Close()

	response, err := DoPostStream(context.Background(), server.Client(), server.URL, "", map[string]string{},
		HeaderOption{Key: customHeaderKey, Value: customHeaderValue},
	)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	CloseWithLog(response.Body)
}
