package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/questa/internal/player/domain"
	sharedApplication "github.com/felixgeelhaar/questa/internal/shared/application"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ResolveDayChangeCommand reconciles the streak after a date boundary.
type ResolveDayChangeCommand struct {
	UserID uuid.UUID
	Today  time.Time
}

// ResolveDayChangeHandler handles the ResolveDayChangeCommand. The
// resolver's contract ends at committing the new streak and inventory
// state; user messaging happens downstream off the emitted events.
type ResolveDayChangeHandler struct {
	playerRepo domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	locks      *UserLocks
}

// NewResolveDayChangeHandler creates a new ResolveDayChangeHandler.
func NewResolveDayChangeHandler(playerRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, locks *UserLocks) *ResolveDayChangeHandler {
	return &ResolveDayChangeHandler{
		playerRepo: playerRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		locks:      locks,
	}
}

// Handle executes the ResolveDayChangeCommand.
func (h *ResolveDayChangeHandler) Handle(ctx context.Context, cmd ResolveDayChangeCommand) (*domain.DayChangeResult, error) {
	unlock := h.locks.Lock(cmd.UserID)
	defer unlock()

	var result domain.DayChangeResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		state, err := loadOrProvision(txCtx, h.playerRepo, cmd.UserID)
		if err != nil {
			return err
		}

		result = state.ResolveDayChange(cmd.Today)
		if len(state.DomainEvents()) == 0 {
			// Nothing changed; skip the save so the row stays as-is.
			return nil
		}

		if err := h.playerRepo.Save(txCtx, state, false); err != nil {
			return err
		}

		return stageEvents(txCtx, h.outboxRepo, state, cmd.UserID)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
