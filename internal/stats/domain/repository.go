package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the only component permitted to mutate quest-stats rows.
type Repository interface {
	// Upsert inserts or replaces the row keyed on (user, quest, date).
	// markSynced=true is used when hydrating from a server pull.
	Upsert(ctx context.Context, info *StatsInfo, markSynced bool) error

	// MarkSynced flips the sync flag for one composite key, but only
	// when the row's outcome still equals seenOutcome. A row whose
	// outcome changed after the caller read its snapshot stays dirty.
	// A missing row is a no-op, not an error.
	MarkSynced(ctx context.Context, userID, questID uuid.UUID, date time.Time, seenOutcome Outcome) error

	// AllUnsynced returns a consistent snapshot of dirty rows at call time.
	AllUnsynced(ctx context.Context, userID uuid.UUID) ([]*StatsInfo, error)

	Find(ctx context.Context, userID, questID uuid.UUID, date time.Time) (*StatsInfo, error)

	// FindRange returns rows with from <= date <= to for a user.
	FindRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*StatsInfo, error)
}
