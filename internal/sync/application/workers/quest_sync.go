package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/questa/internal/identity"
	questsDomain "github.com/felixgeelhaar/questa/internal/quests/domain"
	"github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/google/uuid"
)

// QuestSyncWorker reconciles quest rows with the remote store. A
// trigger can additionally name one quest whose canonical remote state
// wins over the local row.
type QuestSyncWorker struct {
	sessions  identity.Provider
	questRepo questsDomain.Repository
	remote    domain.RemoteStore
	tokens    domain.TokenCache
	tracker   *domain.Tracker
	logger    *slog.Logger
}

// NewQuestSyncWorker creates a new QuestSyncWorker.
func NewQuestSyncWorker(
	sessions identity.Provider,
	questRepo questsDomain.Repository,
	remote domain.RemoteStore,
	tokens domain.TokenCache,
	tracker *domain.Tracker,
	logger *slog.Logger,
) *QuestSyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestSyncWorker{
		sessions:  sessions,
		questRepo: questRepo,
		remote:    remote,
		tokens:    tokens,
		tracker:   tracker,
		logger:    logger,
	}
}

// Kind returns the worker identity for status tracking.
func (w *QuestSyncWorker) Kind() domain.WorkerKind { return domain.WorkerQuests }

// Run executes one sync pass.
func (w *QuestSyncWorker) Run(ctx context.Context, trigger domain.Trigger) domain.RunResult {
	session, err := w.sessions.Current(ctx)
	if err != nil {
		return domain.RetryableResult(fmt.Errorf("failed to resolve session: %w", err))
	}
	if session == nil {
		return domain.RunResult{}
	}

	w.tracker.Set(domain.WorkerQuests, domain.StatusOngoing)

	result, err := w.run(ctx, session, trigger)
	if err != nil {
		w.logger.Error("quest sync failed", "user_id", session.UserID, "error", err)
		w.tracker.Set(domain.WorkerQuests, domain.StatusFailed)
		return domain.RetryableResult(err)
	}

	w.tracker.Set(domain.WorkerQuests, domain.StatusSuccess)
	return result
}

func (w *QuestSyncWorker) run(ctx context.Context, session *identity.Session, trigger domain.Trigger) (domain.RunResult, error) {
	var result domain.RunResult

	if trigger.IsFirstSync {
		quests, err := w.remote.PullQuests(ctx, session.UserID)
		if err != nil {
			return result, fmt.Errorf("failed to pull quests: %w", err)
		}
		for _, quest := range quests {
			if err := w.questRepo.Upsert(ctx, quest, true); err != nil {
				return result, fmt.Errorf("failed to store pulled quest %s: %w", quest.ID(), err)
			}
			result.Pulled++
		}
		return result, nil
	}

	dirty, err := w.questRepo.AllUnsynced(ctx, session.UserID)
	if err != nil {
		return result, fmt.Errorf("failed to read dirty quests: %w", err)
	}

	for _, quest := range dirty {
		if err := ctx.Err(); err != nil {
			// Cancelled mid-batch: rows already marked synced stay
			// synced, the rest remain dirty for the next run.
			return result, err
		}

		if err := w.remote.PushQuest(ctx, quest); err != nil {
			w.logger.Warn("quest push rejected, leaving row dirty",
				"quest_id", quest.ID(), "error", err)
			result.Skipped++
			continue
		}
		// The stamp guard keeps the row dirty if it was mutated while
		// the push was in flight.
		if err := w.questRepo.MarkSynced(ctx, quest.ID(), quest.UpdatedAt()); err != nil {
			return result, fmt.Errorf("failed to mark quest %s synced: %w", quest.ID(), err)
		}
		result.Pushed++
	}

	if id, ok := pullTarget(trigger); ok {
		pulled, err := w.pullCanonical(ctx, session.UserID, id)
		if err != nil {
			return result, err
		}
		result.Pulled += pulled
	}

	if result.Skipped > 0 {
		result.Retry = true
	}
	return result, nil
}

// pullCanonical pulls one quest's remote state, which wins over the
// local row, and drops the cached integration token so the next screen
// load re-authenticates against the integration.
func (w *QuestSyncWorker) pullCanonical(ctx context.Context, userID, questID uuid.UUID) (int, error) {
	quest, err := w.remote.PullQuest(ctx, userID, questID)
	if err != nil {
		if errors.Is(err, domain.ErrRemoteNotFound) {
			w.logger.Warn("quest to refresh no longer exists remotely", "quest_id", questID)
			return 0, nil
		}
		return 0, fmt.Errorf("failed to pull quest %s: %w", questID, err)
	}

	if err := w.questRepo.Upsert(ctx, quest, true); err != nil {
		return 0, fmt.Errorf("failed to store pulled quest %s: %w", questID, err)
	}

	if kind := quest.Integration(); kind != questsDomain.IntegrationNone {
		if err := w.tokens.Invalidate(ctx, string(kind)); err != nil {
			w.logger.Warn("failed to invalidate integration token",
				"integration", kind, "error", err)
		}
	}

	return 1, nil
}

func pullTarget(trigger domain.Trigger) (uuid.UUID, bool) {
	if trigger.PullForQuest == uuid.Nil {
		return uuid.Nil, false
	}
	return trigger.PullForQuest, true
}
