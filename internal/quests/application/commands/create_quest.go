package commands

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/questa/internal/quests/domain"
	sharedApplication "github.com/felixgeelhaar/questa/internal/shared/application"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ErrTitleTaken is the advisory client-side uniqueness rejection; the
// remote store does not enforce it.
var ErrTitleTaken = errors.New("a quest with this title already exists")

// CreateQuestCommand contains the data needed to create a quest.
type CreateQuestCommand struct {
	UserID       uuid.UUID
	Title        string
	Instructions string
	Integration  domain.IntegrationKind
	Recurrence   domain.Weekdays
	Window       domain.Window
	AutoDestruct *time.Time
	Reward       domain.Reward
}

// CreateQuestResult contains the result of creating a quest.
type CreateQuestResult struct {
	QuestID uuid.UUID
}

// CreateQuestHandler handles the CreateQuestCommand.
type CreateQuestHandler struct {
	questRepo  domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCreateQuestHandler creates a new CreateQuestHandler.
func NewCreateQuestHandler(questRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CreateQuestHandler {
	return &CreateQuestHandler{
		questRepo:  questRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the CreateQuestCommand.
func (h *CreateQuestHandler) Handle(ctx context.Context, cmd CreateQuestCommand) (*CreateQuestResult, error) {
	var result *CreateQuestResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		taken, err := h.questRepo.ExistsByTitle(txCtx, cmd.UserID, cmd.Title)
		if err != nil {
			return err
		}
		if taken {
			return ErrTitleTaken
		}

		quest, err := domain.NewQuest(cmd.UserID, cmd.Title, cmd.Recurrence, cmd.Window, cmd.Reward)
		if err != nil {
			return err
		}
		if cmd.Instructions != "" {
			quest.SetInstructions(cmd.Instructions)
		}
		if cmd.Integration != "" {
			quest.SetIntegration(cmd.Integration)
		}
		if cmd.AutoDestruct != nil {
			quest.SetAutoDestruct(cmd.AutoDestruct)
		}

		if err := h.questRepo.Upsert(txCtx, quest, false); err != nil {
			return err
		}

		events := quest.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(cmd.UserID))
		msgs, err := outbox.FromEvents(events)
		if err != nil {
			return err
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}

		result = &CreateQuestResult{QuestID: quest.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
