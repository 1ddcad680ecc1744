package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/questa/internal/player/domain"
	sharedApplication "github.com/felixgeelhaar/questa/internal/shared/application"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ActivateBoostCommand starts a timed boost without consuming inventory.
type ActivateBoostCommand struct {
	UserID        uuid.UUID
	Item          domain.ItemKind
	DurationHours int
	Policy        domain.StackPolicy // defaults to extend
}

// ActivateBoostHandler handles the ActivateBoostCommand.
type ActivateBoostHandler struct {
	playerRepo domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	locks      *UserLocks
}

// NewActivateBoostHandler creates a new ActivateBoostHandler.
func NewActivateBoostHandler(playerRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, locks *UserLocks) *ActivateBoostHandler {
	return &ActivateBoostHandler{
		playerRepo: playerRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		locks:      locks,
	}
}

// Handle executes the ActivateBoostCommand.
func (h *ActivateBoostHandler) Handle(ctx context.Context, cmd ActivateBoostCommand) error {
	policy := cmd.Policy
	if policy == "" {
		policy = domain.StackExtend
	}

	unlock := h.locks.Lock(cmd.UserID)
	defer unlock()

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		state, err := loadOrProvision(txCtx, h.playerRepo, cmd.UserID)
		if err != nil {
			return err
		}

		duration := time.Duration(cmd.DurationHours) * time.Hour
		if err := state.ActivateBoost(cmd.Item, duration, policy); err != nil {
			return err
		}

		if err := h.playerRepo.Save(txCtx, state, false); err != nil {
			return err
		}

		return stageEvents(txCtx, h.outboxRepo, state, cmd.UserID)
	})
}
