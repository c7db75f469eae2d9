package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// MockStore wraps MemoryStore with per-method error injection and call
// tracking for tests.
type MockStore struct {
	*MemoryStore

	CreateFunc func(ctx context.Context, id uuid.UUID, state *session.State) error
	UpdateFunc func(ctx context.Context, id uuid.UUID, state *session.State) error
	GetFunc    func(ctx context.Context, id uuid.UUID) (*session.State, error)
	PingFunc   func(ctx context.Context) error

	CreateCalls []uuid.UUID
	UpdateCalls []uuid.UUID
	DeleteCalls []uuid.UUID
}

var _ Store = (*MockStore)(nil)

// NewMockStore creates a mock backed by a fresh in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{MemoryStore: NewMemoryStore()}
}

func (m *MockStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return m.MemoryStore.Ping(ctx)
}

func (m *MockStore) Create(ctx context.Context, id uuid.UUID, state *session.State) error {
	m.CreateCalls = append(m.CreateCalls, id)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, id, state)
	}
	return m.MemoryStore.Create(ctx, id, state)
}

func (m *MockStore) Update(ctx context.Context, id uuid.UUID, state *session.State) error {
	m.UpdateCalls = append(m.UpdateCalls, id)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, state)
	}
	return m.MemoryStore.Update(ctx, id, state)
}

func (m *MockStore) Get(ctx context.Context, id uuid.UUID) (*session.State, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return m.MemoryStore.Get(ctx, id)
}

func (m *MockStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	m.DeleteCalls = append(m.DeleteCalls, id)
	return m.MemoryStore.Delete(ctx, id)
}
