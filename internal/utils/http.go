package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// HeaderOption is a custom header applied to an outgoing request. Options are
// applied after the defaults, so they can override Content-Type or the
// Authorization header when a provider uses its own auth scheme.
type HeaderOption struct {
	Key   string
	Value string
}

// StatusError is returned for non-2xx HTTP responses. It carries the status
// code, the (capped) response body, and the parsed Retry-After header when
// the server supplied one, so callers can map it to their own error taxonomy.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, TruncateString(e.Body, DefaultMaxStringLength))
}

// newStatusError drains the response body (capped at maxResponseBodySize) and
// builds a StatusError from the response.
func newStatusError(response *http.Response) *StatusError {
	statusErr := &StatusError{StatusCode: response.StatusCode}

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
	if readErr == nil {
		statusErr.Body = string(body)
	} else {
		statusErr.Body = fmt.Sprintf("(failed to read body: %v)", readErr)
	}

	// Retry-After is delta-seconds in every provider API this package talks to.
	if retryAfter := response.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
			statusErr.RetryAfter = time.Duration(seconds) * time.Second
		}
	}

	return statusErr
}

// DoPostSync performs a synchronous HTTP POST request with a JSON body and
// parses the response into OutputStruct.
//
// Error handling strategy:
//   - Context errors (timeout, cancellation) are propagated immediately
//   - Non-2xx responses return a *StatusError carrying status, body, and Retry-After
//   - Response body close errors are logged but don't override primary errors
//   - JSON parsing errors include a response preview for debugging
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	response, err := httpClient.Do(req)
	if err != nil {
		return response, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(response.Body)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return response, nil, newStatusError(response)
	}

	respBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
	if err != nil {
		return response, nil, fmt.Errorf("error reading response body: %w", err)
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return response, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", response.StatusCode, err, TruncateString(string(respBody), 500))
	}

	return response, &resStruct, nil
}
