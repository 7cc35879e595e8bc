package model

import (
	"time"

	"github.com/google/uuid"
)

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of a conversation transcript
type ChatMessage struct {
	ID         string     `json:"id"`
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Properties []Property `json:"properties,omitempty"`
	RawPayload string     `json:"raw_payload,omitempty"` // kept for audit, never re-parsed
	Error      bool       `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewChatMessage creates a message with a fresh ID
func NewChatMessage(role, content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// TrailingWindow returns the last n messages. n <= 0 returns nothing.
func TrailingWindow(messages []ChatMessage, n int) []ChatMessage {
	if n <= 0 || len(messages) == 0 {
		return []ChatMessage{}
	}
	if len(messages) <= n {
		out := make([]ChatMessage, len(messages))
		copy(out, messages)
		return out
	}
	out := make([]ChatMessage, n)
	copy(out, messages[len(messages)-n:])
	return out
}
