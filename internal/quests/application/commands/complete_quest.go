package commands

import (
	"context"
	"time"

	playerDomain "github.com/felixgeelhaar/questa/internal/player/domain"
	"github.com/felixgeelhaar/questa/internal/quests/domain"
	sharedApplication "github.com/felixgeelhaar/questa/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/questa/internal/shared/domain"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/outbox"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	"github.com/google/uuid"
)

// CompleteQuestCommand records a quest completion for a date: a dirty
// stats row, the streak advance and the reward credit, all in one
// transaction.
type CompleteQuestCommand struct {
	QuestID uuid.UUID
	UserID  uuid.UUID
	Date    time.Time
}

// CompleteQuestResult contains the state after completion.
type CompleteQuestResult struct {
	Coins  int
	XP     int
	Streak int
}

// CompleteQuestHandler handles the CompleteQuestCommand.
type CompleteQuestHandler struct {
	questRepo  domain.Repository
	statsRepo  statsDomain.Repository
	playerRepo playerDomain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	locks      playerLocker
}

// playerLocker serializes access to the singleton player row.
type playerLocker interface {
	Lock(userID uuid.UUID) func()
}

// NewCompleteQuestHandler creates a new CompleteQuestHandler.
func NewCompleteQuestHandler(
	questRepo domain.Repository,
	statsRepo statsDomain.Repository,
	playerRepo playerDomain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	locks playerLocker,
) *CompleteQuestHandler {
	return &CompleteQuestHandler{
		questRepo:  questRepo,
		statsRepo:  statsRepo,
		playerRepo: playerRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		locks:      locks,
	}
}

// Handle executes the CompleteQuestCommand.
func (h *CompleteQuestHandler) Handle(ctx context.Context, cmd CompleteQuestCommand) (*CompleteQuestResult, error) {
	unlock := h.locks.Lock(cmd.UserID)
	defer unlock()

	var result *CompleteQuestResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		quest, err := h.questRepo.FindByID(txCtx, cmd.QuestID)
		if err != nil {
			return err
		}
		if quest.UserID() != cmd.UserID {
			return domain.ErrQuestNotOwned
		}

		if err := quest.Complete(cmd.Date); err != nil {
			return err
		}

		info, err := statsDomain.NewStatsInfo(cmd.UserID, cmd.QuestID, cmd.Date, statsDomain.OutcomeCompleted)
		if err != nil {
			return err
		}
		if err := h.statsRepo.Upsert(txCtx, info, false); err != nil {
			return err
		}

		player, err := h.playerRepo.Find(txCtx, cmd.UserID)
		if err != nil {
			if err != playerDomain.ErrPlayerNotFound {
				return err
			}
			player = playerDomain.NewPlayerState(cmd.UserID)
		}

		player.RecordCompletion(cmd.Date)
		reward := quest.Reward()
		if err := player.AddCoins(reward.Coins); err != nil {
			return err
		}
		if err := player.AddXP(reward.XP); err != nil {
			return err
		}
		if len(reward.Items) > 0 {
			items := make(map[playerDomain.ItemKind]int, len(reward.Items))
			for kind, count := range reward.Items {
				items[playerDomain.ItemKind(kind)] = count
			}
			if err := player.AddItems(items); err != nil {
				return err
			}
		}

		if err := h.playerRepo.Save(txCtx, player, false); err != nil {
			return err
		}

		events := append([]sharedDomain.DomainEvent{}, quest.DomainEvents()...)
		events = append(events, player.DomainEvents()...)
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(cmd.UserID))
		msgs, err := outbox.FromEvents(events)
		if err != nil {
			return err
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}
		quest.ClearDomainEvents()
		player.ClearDomainEvents()

		result = &CompleteQuestResult{
			Coins:  player.Coins(),
			XP:     player.XP(),
			Streak: player.Streak().Current,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
