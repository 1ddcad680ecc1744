package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/questa/internal/quests/domain"
	sharedApplication "github.com/felixgeelhaar/questa/internal/shared/application"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// UpdateQuestCommand edits quest configuration. Nil fields are left as-is.
type UpdateQuestCommand struct {
	QuestID      uuid.UUID
	UserID       uuid.UUID
	Title        *string
	Instructions *string
	Integration  *domain.IntegrationKind
	Recurrence   domain.Weekdays
	Window       *domain.Window
	AutoDestruct *time.Time
	Reward       *domain.Reward
}

// UpdateQuestHandler handles the UpdateQuestCommand.
type UpdateQuestHandler struct {
	questRepo  domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewUpdateQuestHandler creates a new UpdateQuestHandler.
func NewUpdateQuestHandler(questRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *UpdateQuestHandler {
	return &UpdateQuestHandler{
		questRepo:  questRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the UpdateQuestCommand.
func (h *UpdateQuestHandler) Handle(ctx context.Context, cmd UpdateQuestCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		quest, err := h.questRepo.FindByID(txCtx, cmd.QuestID)
		if err != nil {
			return err
		}
		if quest.UserID() != cmd.UserID {
			return domain.ErrQuestNotOwned
		}

		if cmd.Title != nil {
			if err := quest.SetTitle(*cmd.Title); err != nil {
				return err
			}
		}
		if cmd.Instructions != nil {
			quest.SetInstructions(*cmd.Instructions)
		}
		if cmd.Integration != nil {
			quest.SetIntegration(*cmd.Integration)
		}
		if len(cmd.Recurrence) > 0 {
			if err := quest.SetRecurrence(cmd.Recurrence); err != nil {
				return err
			}
		}
		if cmd.Window != nil {
			if err := quest.SetWindow(*cmd.Window); err != nil {
				return err
			}
		}
		if cmd.AutoDestruct != nil {
			quest.SetAutoDestruct(cmd.AutoDestruct)
		}
		if cmd.Reward != nil {
			quest.SetReward(*cmd.Reward)
		}
		quest.NoteUpdated()

		if err := h.questRepo.Upsert(txCtx, quest, false); err != nil {
			return err
		}

		events := quest.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(cmd.UserID))
		msgs, err := outbox.FromEvents(events)
		if err != nil {
			return err
		}
		return h.outboxRepo.SaveBatch(txCtx, msgs)
	})
}
