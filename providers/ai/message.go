package ai

import (
	"fmt"
	"strings"
)

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Valid reports whether role is one of the supported conversation roles.
func (role MessageRole) Valid() bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one turn of the conversation passed to a provider. Providers
// translate the role/content pair into their own wire shape.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ValidateMessages checks a conversation before it is sent to a vendor: the
// list must be non-empty, every role must be supported, and no content may
// be blank after trimming whitespace. The returned error carries the index
// of the first offending message.
func ValidateMessages(messages []Message) *ProviderError {
	if len(messages) == 0 {
		return &ProviderError{
			Type:    ErrorTypeValidation,
			Message: "messages list is empty",
			Code:    "invalid_message_format",
		}
	}
	for i, message := range messages {
		if !message.Role.Valid() {
			return &ProviderError{
				Type:    ErrorTypeValidation,
				Message: fmt.Sprintf("message %d has unsupported role %q", i, message.Role),
				Code:    "invalid_message_format",
			}
		}
		if strings.TrimSpace(message.Content) == "" {
			return &ProviderError{
				Type:    ErrorTypeValidation,
				Message: fmt.Sprintf("message %d has empty content", i),
				Code:    "invalid_message_format",
			}
		}
	}
	return nil
}
