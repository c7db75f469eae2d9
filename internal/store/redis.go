package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// RedisStore is the durable Store implementation. One record per
// session id under the session: prefix, with a TTL refreshed on every
// write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. A non-positive ttl gets
// DefaultTTL.
func NewRedisStore(redisURL string, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr: redisURL,
		}),
		ttl:    ttl,
		logger: logger,
	}
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisStore) Create(ctx context.Context, id uuid.UUID, state *session.State) error {
	data, err := marshalState(id, state)
	if err != nil {
		return err
	}

	ok, err := r.client.SetNX(ctx, sessionKey(id), data, r.ttl).Result()
	if err != nil {
		r.logger.Error("Failed to create session", "id", id, "error", err)
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id uuid.UUID) (*session.State, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to load session", "id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var state session.State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		r.logger.Error("Failed to unmarshal session", "id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &state, nil
}

func (r *RedisStore) Update(ctx context.Context, id uuid.UUID, state *session.State) error {
	data, err := marshalState(id, state)
	if err != nil {
		return err
	}

	// Plain SET refreshes the TTL, keeping live sessions alive.
	if err := r.client.Set(ctx, sessionKey(id), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to update session", "id", id, "error", err)
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := r.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		r.logger.Error("Failed to delete session", "id", id, "error", err)
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return deleted > 0, nil
}

func (r *RedisStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	count, err := r.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		r.logger.Error("Failed to check session existence", "id", id, "error", err)
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return count > 0, nil
}

// Connect selects the configured backend at startup. When Redis is
// configured but unreachable, it logs a warning and falls back to the
// in-memory store rather than failing startup.
func Connect(ctx context.Context, redisURL string, ttl time.Duration, logger *slog.Logger) Store {
	if redisURL == "" {
		logger.Info("No Redis configured, using in-memory session store")
		return NewMemoryStore()
	}

	rs := NewRedisStore(redisURL, ttl, logger)
	if err := rs.Ping(ctx); err != nil {
		logger.Warn("Redis unreachable, falling back to in-memory session store",
			"redis_url", redisURL,
			"error", err)
		if closeErr := rs.Close(); closeErr != nil {
			logger.Debug("Failed to close unreachable Redis client", "error", closeErr)
		}
		return NewMemoryStore()
	}

	logger.Info("Redis session store connected", "redis_url", redisURL, "ttl", ttl)
	return rs
}
