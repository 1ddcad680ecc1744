package commands

import (
	"context"

	"github.com/felixgeelhaar/questa/internal/player/domain"
	sharedApplication "github.com/felixgeelhaar/questa/internal/shared/application"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// GrantRewardCommand credits a quest reward to the player.
type GrantRewardCommand struct {
	UserID uuid.UUID
	Coins  int
	XP     int
	Items  map[domain.ItemKind]int
}

// GrantRewardResult contains the state after crediting.
type GrantRewardResult struct {
	Coins int
	XP    int
}

// GrantRewardHandler handles the GrantRewardCommand.
type GrantRewardHandler struct {
	playerRepo domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	locks      *UserLocks
}

// NewGrantRewardHandler creates a new GrantRewardHandler.
func NewGrantRewardHandler(playerRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, locks *UserLocks) *GrantRewardHandler {
	return &GrantRewardHandler{
		playerRepo: playerRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		locks:      locks,
	}
}

// Handle executes the GrantRewardCommand.
func (h *GrantRewardHandler) Handle(ctx context.Context, cmd GrantRewardCommand) (*GrantRewardResult, error) {
	unlock := h.locks.Lock(cmd.UserID)
	defer unlock()

	var result *GrantRewardResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		state, err := loadOrProvision(txCtx, h.playerRepo, cmd.UserID)
		if err != nil {
			return err
		}

		if err := state.AddCoins(cmd.Coins); err != nil {
			return err
		}
		if err := state.AddXP(cmd.XP); err != nil {
			return err
		}
		if len(cmd.Items) > 0 {
			if err := state.AddItems(cmd.Items); err != nil {
				return err
			}
		}

		if err := h.playerRepo.Save(txCtx, state, false); err != nil {
			return err
		}

		if err := stageEvents(txCtx, h.outboxRepo, state, cmd.UserID); err != nil {
			return err
		}

		result = &GrantRewardResult{Coins: state.Coins(), XP: state.XP()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
