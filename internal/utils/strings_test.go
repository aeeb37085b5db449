package utils

import (
	"strings"
	"testing"
)

// TestTruncateString verifies short strings pass through and long strings are
// truncated with a length marker.
func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("expected passthrough, got %q", got)
	}

	long := strings.Repeat("x", 600)
	got := TruncateString(long, 0)
	if len(got) >= len(long) {
		t.Errorf("expected truncation with default max, got %d chars", len(got))
	}
	if !strings.Contains(got, "truncated, total: 600") {
		t.Errorf("expected length marker, got %q", got)
	}

	got = TruncateString("abcdef", 3)
	if !strings.HasPrefix(got, "abc") || !strings.Contains(got, "total: 6") {
		t.Errorf("unexpected truncation result %q", got)
	}
}

// TestPtr verifies the pointer helper round-trips values.
func TestPtr(t *testing.T) {
	value := Ptr("hello")
	if value == nil || *value != "hello" {
		t.Errorf("expected pointer to %q, got %v", "hello", value)
	}

	number := Ptr(42)
	if *number != 42 {
		t.Errorf("expected 42, got %d", *number)
	}
}
