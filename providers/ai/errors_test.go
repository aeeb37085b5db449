package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/chorushq/chorus/internal/utils"
)

// fakeNetError satisfies net.Error for transport failure mapping tests.
type fakeNetError struct{ timeout bool }

func (e *fakeNetError) Error() string   { return "connection reset by peer" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

// TestFormatError verifies that every failure shape funnels into a fully
// populated ProviderError with the right category.
func TestFormatError(t *testing.T) {
	tests := []struct {
		name           string
		raw            any
		wantType       ErrorType
		wantMessage    string // substring
		wantCode       string
		wantRetryAfter time.Duration
	}{
		{
			name:        "nil value",
			raw:         nil,
			wantType:    ErrorTypeUnknown,
			wantMessage: "unknown error",
		},
		{
			name:        "plain error",
			raw:         errors.New("something odd"),
			wantType:    ErrorTypeUnknown,
			wantMessage: "something odd",
		},
		{
			name:        "non-error value",
			raw:         42,
			wantType:    ErrorTypeUnknown,
			wantMessage: "unexpected failure",
		},
		{
			name:        "context canceled",
			raw:         context.Canceled,
			wantType:    ErrorTypeAborted,
			wantMessage: "aborted",
		},
		{
			name:        "wrapped cancellation",
			raw:         fmt.Errorf("reading stream: %w", context.Canceled),
			wantType:    ErrorTypeAborted,
			wantMessage: "aborted",
		},
		{
			name:        "deadline exceeded",
			raw:         context.DeadlineExceeded,
			wantType:    ErrorTypeTimeout,
			wantMessage: "deadline",
		},
		{
			name:        "network error",
			raw:         &fakeNetError{},
			wantType:    ErrorTypeNetwork,
			wantMessage: "connection reset",
		},
		{
			name:        "network timeout",
			raw:         &fakeNetError{timeout: true},
			wantType:    ErrorTypeTimeout,
			wantMessage: "connection reset",
		},
		{
			name: "401 maps to auth with vendor message",
			raw: &utils.StatusError{
				StatusCode: 401,
				Body:       `{"error":{"message":"Incorrect API key provided"}}`,
			},
			wantType:    ErrorTypeAuth,
			wantMessage: "Incorrect API key provided",
			wantCode:    "401",
		},
		{
			name: "429 maps to rate limit and keeps retry-after",
			raw: &utils.StatusError{
				StatusCode: 429,
				Body:       `{"error":{"message":"Rate limit reached"}}`,
				RetryAfter: 30 * time.Second,
			},
			wantType:       ErrorTypeRateLimit,
			wantMessage:    "Rate limit reached",
			wantCode:       "429",
			wantRetryAfter: 30 * time.Second,
		},
		{
			name:        "503 maps to network",
			raw:         &utils.StatusError{StatusCode: 503, Body: "upstream unavailable"},
			wantType:    ErrorTypeNetwork,
			wantMessage: "upstream unavailable",
			wantCode:    "503",
		},
		{
			name:        "504 maps to timeout",
			raw:         &utils.StatusError{StatusCode: 504},
			wantType:    ErrorTypeTimeout,
			wantMessage: "request failed",
			wantCode:    "504",
		},
		{
			name: "400 maps to validation with flat message field",
			raw: &utils.StatusError{
				StatusCode: 400,
				Body:       `{"message":"model is required"}`,
			},
			wantType:    ErrorTypeValidation,
			wantMessage: "model is required",
			wantCode:    "400",
		},
		{
			name: "wrapped status error still unwraps",
			raw: fmt.Errorf("sending request: %w", &utils.StatusError{
				StatusCode: 403,
				Body:       `{"error":"forbidden"}`,
			}),
			wantType:    ErrorTypeAuth,
			wantMessage: "forbidden",
			wantCode:    "403",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providerErr := FormatError("TestVendor", tt.raw)
			if providerErr == nil {
				t.Fatal("expected a ProviderError, got nil")
			}
			if providerErr.Type != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, providerErr.Type)
			}
			if !strings.Contains(providerErr.Message, tt.wantMessage) {
				t.Errorf("expected message containing %q, got %q", tt.wantMessage, providerErr.Message)
			}
			if providerErr.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, providerErr.Code)
			}
			if providerErr.RetryAfter != tt.wantRetryAfter {
				t.Errorf("expected retry-after %v, got %v", tt.wantRetryAfter, providerErr.RetryAfter)
			}
			if providerErr.Provider != "TestVendor" {
				t.Errorf("expected provider stamp TestVendor, got %q", providerErr.Provider)
			}
		})
	}
}

// TestFormatError_AlreadyNormalized verifies that an existing ProviderError
// passes through as a copy, gaining the provider stamp only when missing.
func TestFormatError_AlreadyNormalized(t *testing.T) {
	original := &ProviderError{Type: ErrorTypeValidation, Message: "bad config"}

	formatted := FormatError("TestVendor", original)
	if formatted == original {
		t.Error("expected a copy, got the same pointer")
	}
	if formatted.Provider != "TestVendor" {
		t.Errorf("expected provider stamp, got %q", formatted.Provider)
	}
	if original.Provider != "" {
		t.Errorf("original must not be mutated, got provider %q", original.Provider)
	}

	stamped := &ProviderError{Type: ErrorTypeAuth, Message: "no key", Provider: "Other"}
	if got := FormatError("TestVendor", stamped); got.Provider != "Other" {
		t.Errorf("existing provider stamp must be kept, got %q", got.Provider)
	}
}

// TestProviderError_ErrorsAs verifies extraction through wrapped chains.
func TestProviderError_ErrorsAs(t *testing.T) {
	var target *ProviderError
	wrapped := fmt.Errorf("stream failed: %w", &ProviderError{Type: ErrorTypeAborted, Message: "request aborted"})

	if !errors.As(wrapped, &target) {
		t.Fatal("expected errors.As to extract ProviderError")
	}
	if target.Type != ErrorTypeAborted {
		t.Errorf("expected aborted, got %s", target.Type)
	}
}

// TestProviderError_Retryable verifies the retry classification.
func TestProviderError_Retryable(t *testing.T) {
	tests := []struct {
		errType   ErrorType
		retryable bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeTimeout, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeValidation, false},
		{ErrorTypeAuth, false},
		{ErrorTypeAborted, false},
		{ErrorTypeNotInitialized, false},
	}

	for _, tt := range tests {
		err := &ProviderError{Type: tt.errType}
		if got := err.Retryable(); got != tt.retryable {
			t.Errorf("%s: Retryable() = %v, want %v", tt.errType, got, tt.retryable)
		}
	}
}
