package commands

import (
	"context"

	"github.com/felixgeelhaar/questa/internal/player/domain"
	sharedApplication "github.com/felixgeelhaar/questa/internal/shared/application"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ApplyGiftCommand credits a server-pushed gift. It routes through the
// same mutators as local rewards so the invariants hold either way.
type ApplyGiftCommand struct {
	UserID uuid.UUID
	Items  map[domain.ItemKind]int
	Coins  int
}

// ApplyGiftHandler handles the ApplyGiftCommand.
type ApplyGiftHandler struct {
	playerRepo domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	locks      *UserLocks
}

// NewApplyGiftHandler creates a new ApplyGiftHandler.
func NewApplyGiftHandler(playerRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, locks *UserLocks) *ApplyGiftHandler {
	return &ApplyGiftHandler{
		playerRepo: playerRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		locks:      locks,
	}
}

// Handle executes the ApplyGiftCommand.
func (h *ApplyGiftHandler) Handle(ctx context.Context, cmd ApplyGiftCommand) error {
	unlock := h.locks.Lock(cmd.UserID)
	defer unlock()

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		state, err := loadOrProvision(txCtx, h.playerRepo, cmd.UserID)
		if err != nil {
			return err
		}

		if err := state.ApplyGift(cmd.Items, cmd.Coins); err != nil {
			return err
		}

		if err := h.playerRepo.Save(txCtx, state, false); err != nil {
			return err
		}

		return stageEvents(txCtx, h.outboxRepo, state, cmd.UserID)
	})
}
