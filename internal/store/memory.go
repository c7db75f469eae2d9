package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// MemoryStore is the in-process Store implementation. Records are held
// as serialized JSON so callers get the same copy semantics as the
// Redis backend.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID][]byte),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) Create(ctx context.Context, id uuid.UUID, state *session.State) error {
	data, err := marshalState(id, state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		return ErrAlreadyExists
	}
	m.sessions[id] = data
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*session.State, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var state session.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}
	return &state, nil
}

func (m *MemoryStore) Update(ctx context.Context, id uuid.UUID, state *session.State) error {
	data, err := marshalState(id, state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = data
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok, nil
}

func (m *MemoryStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[id]
	return ok, nil
}

func marshalState(id uuid.UUID, state *session.State) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("session state cannot be nil")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session %s: %w", id, err)
	}
	return data, nil
}
