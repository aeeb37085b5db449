package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/chorushq/chorus/internal/utils"
)

// ErrorType classifies a provider failure into a vendor-agnostic category so
// callers can branch on the kind of failure without parsing vendor payloads.
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeNotInitialized ErrorType = "not_initialized"
	ErrorTypeNotSupported   ErrorType = "not_supported"
	ErrorTypeNetwork        ErrorType = "network"
	ErrorTypeTimeout        ErrorType = "timeout"
	ErrorTypeAborted        ErrorType = "aborted"
	ErrorTypeAuth           ErrorType = "auth"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// ProviderError is the normalized error surface of every provider. Code
// carries the vendor's own error code or HTTP status when one exists,
// RetryAfter the server-requested backoff for rate limits.
type ProviderError struct {
	Type       ErrorType     `json:"type"`
	Message    string        `json:"message"`
	Code       string        `json:"code,omitempty"`
	Provider   string        `json:"provider,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	Details    string        `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Retryable reports whether the failure is worth retrying with backoff.
func (e *ProviderError) Retryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit:
		return true
	}
	return false
}

// FormatError normalizes any raised value into a ProviderError stamped with
// the provider's name. It accepts already-normalized errors, transport
// errors, context cancellation, and arbitrary non-error values so stream
// loops can funnel every failure path through one place.
func FormatError(provider string, raw any) *ProviderError {
	switch value := raw.(type) {
	case nil:
		return &ProviderError{
			Type:     ErrorTypeUnknown,
			Message:  "unknown error",
			Provider: provider,
		}
	case *ProviderError:
		clone := *value
		if clone.Provider == "" {
			clone.Provider = provider
		}
		return &clone
	case error:
		return formatErr(provider, value)
	default:
		return &ProviderError{
			Type:     ErrorTypeUnknown,
			Message:  "unexpected failure",
			Provider: provider,
			Details:  fmt.Sprint(raw),
		}
	}
}

func formatErr(provider string, err error) *ProviderError {
	var statusErr *utils.StatusError
	if errors.As(err, &statusErr) {
		return fromStatus(provider, statusErr)
	}
	if errors.Is(err, context.Canceled) {
		return &ProviderError{
			Type:     ErrorTypeAborted,
			Message:  "request aborted",
			Provider: provider,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{
			Type:     ErrorTypeTimeout,
			Message:  "request deadline exceeded",
			Provider: provider,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		errType := ErrorTypeNetwork
		if netErr.Timeout() {
			errType = ErrorTypeTimeout
		}
		return &ProviderError{
			Type:     errType,
			Message:  netErr.Error(),
			Provider: provider,
		}
	}
	return &ProviderError{
		Type:     ErrorTypeUnknown,
		Message:  err.Error(),
		Provider: provider,
	}
}

// fromStatus maps an HTTP failure onto the taxonomy and digs the vendor's
// human-readable message out of the error body when the body is JSON.
func fromStatus(provider string, statusErr *utils.StatusError) *ProviderError {
	providerErr := &ProviderError{
		Message:  vendorMessage(statusErr.Body),
		Code:     strconv.Itoa(statusErr.StatusCode),
		Provider: provider,
	}
	switch {
	case statusErr.StatusCode == 401 || statusErr.StatusCode == 403:
		providerErr.Type = ErrorTypeAuth
	case statusErr.StatusCode == 429:
		providerErr.Type = ErrorTypeRateLimit
		providerErr.RetryAfter = statusErr.RetryAfter
	case statusErr.StatusCode == 408 || statusErr.StatusCode == 504:
		providerErr.Type = ErrorTypeTimeout
	case statusErr.StatusCode >= 500:
		providerErr.Type = ErrorTypeNetwork
	case statusErr.StatusCode >= 400:
		providerErr.Type = ErrorTypeValidation
	default:
		providerErr.Type = ErrorTypeUnknown
	}
	return providerErr
}

// vendorMessage probes the common error-body shapes used across vendors and
// falls back to the raw body.
func vendorMessage(body string) string {
	if gjson.Valid(body) {
		for _, path := range []string{"error.message", "error", "message"} {
			if field := gjson.Get(body, path); field.Type == gjson.String && field.Str != "" {
				return field.Str
			}
		}
	}
	if body == "" {
		return "request failed"
	}
	return utils.TruncateString(body, utils.DefaultMaxStringLength)
}
