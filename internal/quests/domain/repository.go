package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrQuestNotFound = errors.New("quest not found")

// Repository is the only component permitted to mutate quest rows.
type Repository interface {
	// Upsert inserts or replaces the quest keyed on its ID. When markSynced
	// is true the row is written already synced (server-pull hydration);
	// otherwise it is left dirty for the next sync run.
	Upsert(ctx context.Context, quest *Quest, markSynced bool) error

	// MarkSynced flips the sync flag only when the row's update stamp
	// still equals seen, so a row mutated after the caller read its
	// snapshot stays dirty. It is a no-op, not an error, if the row no
	// longer exists.
	MarkSynced(ctx context.Context, id uuid.UUID, seen time.Time) error

	// AllUnsynced returns a consistent snapshot of dirty rows at call time.
	AllUnsynced(ctx context.Context, userID uuid.UUID) ([]*Quest, error)

	FindByID(ctx context.Context, id uuid.UUID) (*Quest, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Quest, error)

	// ActiveOn returns quests scheduled for the given date, excluding
	// quests past their auto-destruct date.
	ActiveOn(ctx context.Context, userID uuid.UUID, date time.Time) ([]*Quest, error)

	// ExistsByTitle is an advisory client-side uniqueness check only.
	ExistsByTitle(ctx context.Context, userID uuid.UUID, title string) (bool, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
