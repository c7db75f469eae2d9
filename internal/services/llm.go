// Package services contains the collaborator implementations and the
// game service that orchestrates turns against the session store.
package services

import (
	"context"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleSystem    = "system"
)

// ChatMessage is a single message sent to the LLM API.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatService defines the interface for interacting with an LLM API.
// Collaborators are thin profiles layered on top of one of these.
type ChatService interface {
	// Chat generates a completion for the given messages.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)

	// Ping checks that the API is reachable and the model usable.
	Ping(ctx context.Context) error
}
