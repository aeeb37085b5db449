package ai

import (
	"reflect"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/chorushq/chorus/internal/utils"
)

// TestConfigRoundTrip verifies that every config variant serializes with its
// type discriminator and decodes back to the same value.
func TestConfigRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
	}{
		{
			name: "openai",
			config: OpenAIConfig{
				APIKey:           "sk-test",
				Model:            "gpt-5",
				ReasoningEffort:  "high",
				ReasoningSummary: "auto",
				WebSearch:        true,
			},
		},
		{
			name: "gemini",
			config: GeminiConfig{
				APIKey:          "key",
				Model:           "gemini-2.5-pro",
				ThinkingBudget:  utils.Ptr(-1),
				IncludeThoughts: true,
				Search:          true,
			},
		},
		{
			name: "openrouter",
			config: OpenRouterConfig{
				APIKey:  "or-key",
				Model:   "anthropic/claude-sonnet-4",
				Referer: "https://example.com",
				Title:   "Example App",
			},
		},
		{
			name:   "grok",
			config: GrokConfig{APIKey: "xai-key", Model: "grok-4", LiveSearch: true},
		},
		{
			name: "compat",
			config: CompatConfig{
				Name:    "Local Ollama",
				Model:   "llama3",
				BaseURL: "http://localhost:11434/v1",
				Headers: map[string]string{"X-Custom": "yes"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.config)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if tag := gjson.GetBytes(data, "type").Str; tag != string(tt.config.Type()) {
				t.Errorf("expected type tag %q, got %q", tt.config.Type(), tag)
			}

			decoded, err := UnmarshalConfig(data)
			if err != nil {
				t.Fatalf("UnmarshalConfig failed: %v", err)
			}
			if !reflect.DeepEqual(decoded, tt.config) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, tt.config)
			}
		})
	}
}

// TestUnmarshalConfig_Rejections verifies malformed and unsupported inputs.
func TestUnmarshalConfig_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "not json", data: "api_key=sk-test", wantErr: "not valid JSON"},
		{name: "missing type", data: `{"api_key":"sk-test"}`, wantErr: "unsupported provider type"},
		{name: "unknown type", data: `{"type":"bedrock"}`, wantErr: `unsupported provider type "bedrock"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalConfig([]byte(tt.data))
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

// TestValidationResult verifies the accumulate-then-report helpers.
func TestValidationResult(t *testing.T) {
	result := NewValidationResult()
	if !result.IsValid {
		t.Fatal("fresh result must be valid")
	}

	result.Warn("model %q is not listed", "mystery-model")
	if !result.IsValid {
		t.Error("warnings must not invalidate the result")
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "mystery-model") {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	result.Fail("api key is required")
	result.Fail("model is required")
	if result.IsValid {
		t.Error("Fail must invalidate the result")
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 errors, got %v", result.Errors)
	}
}
