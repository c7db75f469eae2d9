package store

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr(), ttl, testLogger())
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close redis store: %v", err)
		}
	})
	return s, mr
}

func TestRedisStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t, 0)

	require.NoError(t, s.Ping(ctx))

	state := session.New()

	_, err := s.Get(ctx, state.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Create(ctx, state.ID, state))
	assert.ErrorIs(t, s.Create(ctx, state.ID, state), ErrAlreadyExists)

	exists, err := s.Exists(ctx, state.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	state.AddExchange("draw sword", "Steel rings in the dark.")
	require.NoError(t, s.Update(ctx, state.ID, state))

	loaded, err := s.Get(ctx, state.ID)
	require.NoError(t, err)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "draw sword", loaded.History[0].PlayerAction)

	deleted, err := s.Delete(ctx, state.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, state.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRedisStore_ExpiryRefreshedOnWrite(t *testing.T) {
	ctx := context.Background()
	ttl := time.Hour
	s, mr := newTestRedisStore(t, ttl)

	state := session.New()
	require.NoError(t, s.Create(ctx, state.ID, state))

	// Let most of the TTL elapse, then write. The record must survive
	// another near-full TTL afterward.
	mr.FastForward(50 * time.Minute)
	require.NoError(t, s.Update(ctx, state.ID, state))

	mr.FastForward(50 * time.Minute)
	_, err := s.Get(ctx, state.ID)
	assert.NoError(t, err, "update should have refreshed the TTL")

	// Without further writes the record eventually expires.
	mr.FastForward(2 * time.Hour)
	_, err = s.Get(ctx, state.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnect_FallsBackToMemory(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Nothing listens here; Connect must degrade, not fail.
	s := Connect(ctx, "localhost:1", 0, testLogger())
	_, ok := s.(*MemoryStore)
	assert.True(t, ok, "expected fallback to MemoryStore, got %T", s)
}

func TestConnect_UsesRedisWhenReachable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	s := Connect(ctx, mr.Addr(), 0, testLogger())
	_, ok := s.(*RedisStore)
	require.True(t, ok, "expected RedisStore, got %T", s)
	require.NoError(t, s.Close())
}

func TestConnect_NoRedisConfigured(t *testing.T) {
	s := Connect(context.Background(), "", 0, testLogger())
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)
}
