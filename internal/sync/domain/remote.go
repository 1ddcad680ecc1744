package domain

import (
	"context"
	"errors"
	"time"

	playerDomain "github.com/felixgeelhaar/questa/internal/player/domain"
	questsDomain "github.com/felixgeelhaar/questa/internal/quests/domain"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	"github.com/google/uuid"
)

var ErrRemoteNotFound = errors.New("remote row not found")

// RemoteStore is the authoritative table API the workers push to and
// pull from. Implementations must treat upserts as keyed
// insert-or-replace so that repeated pushes of the same row are
// idempotent.
type RemoteStore interface {
	PullQuests(ctx context.Context, userID uuid.UUID) ([]*questsDomain.Quest, error)
	PullQuest(ctx context.Context, userID, questID uuid.UUID) (*questsDomain.Quest, error)
	PushQuest(ctx context.Context, quest *questsDomain.Quest) error

	// PullStats returns rows with from <= date <= to.
	PullStats(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*statsDomain.StatsInfo, error)
	PushStats(ctx context.Context, info *statsDomain.StatsInfo) error

	// PullProfile returns ErrRemoteNotFound when the user has no remote
	// profile yet; the profile worker then pushes the local one.
	PullProfile(ctx context.Context, userID uuid.UUID) (*playerDomain.PlayerState, error)
	PushProfile(ctx context.Context, state *playerDomain.PlayerState) error
}
