package services

import (
	"context"
	"sync"
)

// MockChatService is a mock implementation of ChatService for testing.
type MockChatService struct {
	ChatFunc func(ctx context.Context, messages []ChatMessage) (string, error)
	PingFunc func(ctx context.Context) error

	// Track calls for testing
	ChatCalls [][]ChatMessage
	PingCalls int

	mu sync.Mutex // protects all fields above
}

var _ ChatService = (*MockChatService)(nil)

// NewMockChatService creates a new mock chat service.
func NewMockChatService() *MockChatService {
	return &MockChatService{
		ChatCalls: make([][]ChatMessage, 0),
	}
}

// Chat mocks completion generation.
func (m *MockChatService) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChatCalls = append(m.ChatCalls, messages)

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}

	// Default behavior - a canned narrative line
	return "Mock response", nil
}

// Ping mocks the connectivity check.
func (m *MockChatService) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PingCalls++

	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// SetChatError sets up the mock to fail every completion.
func (m *MockChatService) SetChatError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []ChatMessage) (string, error) {
		return "", err
	}
}

// Reset clears all call tracking.
func (m *MockChatService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls = make([][]ChatMessage, 0)
	m.PingCalls = 0
	m.ChatFunc = nil
	m.PingFunc = nil
}
