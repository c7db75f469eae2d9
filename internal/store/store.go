// Package store provides session persistence behind a narrow adapter
// contract, with an in-memory backend and a Redis backend with expiry.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// ErrNotFound is returned by Get when no record exists for the id.
var ErrNotFound = errors.New("session not found")

// ErrAlreadyExists is returned by Create when the id is taken.
var ErrAlreadyExists = errors.New("session already exists")

// DefaultTTL is how long a durable backend keeps a session record.
// Every write refreshes it.
const DefaultTTL = 24 * time.Hour

// Store is the persistence adapter contract. Every session mutation is
// written through one of these before the mutating call returns.
type Store interface {
	// Ping tests the backend connection.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error

	// Create stores a new session record. Fails with ErrAlreadyExists
	// if the id is taken.
	Create(ctx context.Context, id uuid.UUID, state *session.State) error

	// Get retrieves a session record. Fails with ErrNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (*session.State, error)

	// Update overwrites a session record, refreshing expiry where the
	// backend supports it.
	Update(ctx context.Context, id uuid.UUID, state *session.State) error

	// Delete removes a session record, reporting whether it existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// Exists checks for a session record without loading it.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
