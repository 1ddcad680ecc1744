package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/questa/internal/player/domain"
	sharedApplication "github.com/felixgeelhaar/questa/internal/shared/application"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// UseItemCommand consumes inventory items and applies their effect.
// Fails with domain.ErrInsufficientInventory when the holding is short.
type UseItemCommand struct {
	UserID uuid.UUID
	Item   domain.ItemKind
	Count  int // defaults to 1
}

// UseItemResult contains the remaining holding after consumption.
type UseItemResult struct {
	Remaining int
}

// UseItemHandler handles the UseItemCommand.
type UseItemHandler struct {
	playerRepo domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	locks      *UserLocks
}

// NewUseItemHandler creates a new UseItemHandler.
func NewUseItemHandler(playerRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, locks *UserLocks) *UseItemHandler {
	return &UseItemHandler{
		playerRepo: playerRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		locks:      locks,
	}
}

// Handle executes the UseItemCommand.
func (h *UseItemHandler) Handle(ctx context.Context, cmd UseItemCommand) (*UseItemResult, error) {
	count := cmd.Count
	if count <= 0 {
		count = 1
	}

	unlock := h.locks.Lock(cmd.UserID)
	defer unlock()

	var result *UseItemResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		state, err := loadOrProvision(txCtx, h.playerRepo, cmd.UserID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for i := 0; i < count; i++ {
			if err := state.UseItem(cmd.Item, now); err != nil {
				return err
			}
		}

		if err := h.playerRepo.Save(txCtx, state, false); err != nil {
			return err
		}

		if err := stageEvents(txCtx, h.outboxRepo, state, cmd.UserID); err != nil {
			return err
		}

		result = &UseItemResult{Remaining: state.ItemCount(cmd.Item)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
