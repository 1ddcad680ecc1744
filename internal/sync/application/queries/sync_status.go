package queries

import (
	"context"

	playerDomain "github.com/felixgeelhaar/questa/internal/player/domain"
	questsDomain "github.com/felixgeelhaar/questa/internal/quests/domain"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	"github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/google/uuid"
)

// SyncStatusDTO summarizes worker state and the local backlog still
// waiting for a push.
type SyncStatusDTO struct {
	Workers      map[domain.WorkerKind]domain.Status
	DirtyQuests  int
	DirtyStats   int
	DirtyProfile bool
}

// SyncStatusQuery contains the parameters for the sync status report.
type SyncStatusQuery struct {
	UserID uuid.UUID
}

// SyncStatusHandler handles the SyncStatusQuery.
type SyncStatusHandler struct {
	questRepo  questsDomain.Repository
	statsRepo  statsDomain.Repository
	playerRepo playerDomain.Repository
	tracker    *domain.Tracker
}

// NewSyncStatusHandler creates a new SyncStatusHandler.
func NewSyncStatusHandler(
	questRepo questsDomain.Repository,
	statsRepo statsDomain.Repository,
	playerRepo playerDomain.Repository,
	tracker *domain.Tracker,
) *SyncStatusHandler {
	return &SyncStatusHandler{
		questRepo:  questRepo,
		statsRepo:  statsRepo,
		playerRepo: playerRepo,
		tracker:    tracker,
	}
}

// Handle executes the SyncStatusQuery.
func (h *SyncStatusHandler) Handle(ctx context.Context, query SyncStatusQuery) (*SyncStatusDTO, error) {
	dto := &SyncStatusDTO{Workers: h.tracker.Snapshot()}

	quests, err := h.questRepo.AllUnsynced(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	dto.DirtyQuests = len(quests)

	stats, err := h.statsRepo.AllUnsynced(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	dto.DirtyStats = len(stats)

	profile, err := h.playerRepo.FindUnsynced(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	dto.DirtyProfile = profile != nil

	return dto, nil
}
