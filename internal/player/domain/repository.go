package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrPlayerNotFound = errors.New("player state not found")

// Repository is the only component permitted to mutate the player row.
type Repository interface {
	// Find returns the singleton state for a user.
	Find(ctx context.Context, userID uuid.UUID) (*PlayerState, error)

	// Save upserts the full row keyed on user ID. markSynced=true is used
	// when hydrating from a server pull; local mutations leave it dirty.
	Save(ctx context.Context, state *PlayerState, markSynced bool) error

	// MarkSynced flips the sync flag only when the row's update stamp
	// still equals seen. A row mutated after the caller read its
	// snapshot stays dirty; missing rows are a no-op.
	MarkSynced(ctx context.Context, userID uuid.UUID, seen time.Time) error

	// FindUnsynced returns the state only when its row is dirty, nil otherwise.
	FindUnsynced(ctx context.Context, userID uuid.UUID) (*PlayerState, error)
}
