package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/questa/internal/quests/domain"
	sharedApplication "github.com/felixgeelhaar/questa/internal/shared/application"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	"github.com/google/uuid"
)

// SkipQuestCommand records a skipped quest instance for a date. No
// reward and no streak movement, just the dirty stats row.
type SkipQuestCommand struct {
	QuestID uuid.UUID
	UserID  uuid.UUID
	Date    time.Time
}

// SkipQuestHandler handles the SkipQuestCommand.
type SkipQuestHandler struct {
	questRepo domain.Repository
	statsRepo statsDomain.Repository
	uow       sharedApplication.UnitOfWork
}

// NewSkipQuestHandler creates a new SkipQuestHandler.
func NewSkipQuestHandler(questRepo domain.Repository, statsRepo statsDomain.Repository, uow sharedApplication.UnitOfWork) *SkipQuestHandler {
	return &SkipQuestHandler{
		questRepo: questRepo,
		statsRepo: statsRepo,
		uow:       uow,
	}
}

// Handle executes the SkipQuestCommand.
func (h *SkipQuestHandler) Handle(ctx context.Context, cmd SkipQuestCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		quest, err := h.questRepo.FindByID(txCtx, cmd.QuestID)
		if err != nil {
			return err
		}
		if quest.UserID() != cmd.UserID {
			return domain.ErrQuestNotOwned
		}

		info, err := statsDomain.NewStatsInfo(cmd.UserID, cmd.QuestID, cmd.Date, statsDomain.OutcomeSkipped)
		if err != nil {
			return err
		}
		return h.statsRepo.Upsert(txCtx, info, false)
	})
}
