package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/questa/internal/identity"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	"github.com/felixgeelhaar/questa/internal/sync/domain"
)

// StatsSyncWorker reconciles quest-stats rows with the remote store.
// First sync pulls the full account-creation-to-today range; otherwise
// it drains dirty rows, isolating per-row push failures.
type StatsSyncWorker struct {
	sessions  identity.Provider
	statsRepo statsDomain.Repository
	remote    domain.RemoteStore
	tracker   *domain.Tracker
	logger    *slog.Logger
	now       func() time.Time
}

// NewStatsSyncWorker creates a new StatsSyncWorker.
func NewStatsSyncWorker(
	sessions identity.Provider,
	statsRepo statsDomain.Repository,
	remote domain.RemoteStore,
	tracker *domain.Tracker,
	logger *slog.Logger,
) *StatsSyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsSyncWorker{
		sessions:  sessions,
		statsRepo: statsRepo,
		remote:    remote,
		tracker:   tracker,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source.
func (w *StatsSyncWorker) WithClock(now func() time.Time) *StatsSyncWorker {
	w.now = now
	return w
}

// Kind returns the worker identity for status tracking.
func (w *StatsSyncWorker) Kind() domain.WorkerKind { return domain.WorkerStats }

// Run executes one sync pass.
func (w *StatsSyncWorker) Run(ctx context.Context, trigger domain.Trigger) domain.RunResult {
	session, err := w.sessions.Current(ctx)
	if err != nil {
		return domain.RetryableResult(fmt.Errorf("failed to resolve session: %w", err))
	}
	if session == nil {
		return domain.RunResult{}
	}

	w.tracker.Set(domain.WorkerStats, domain.StatusOngoing)

	result, err := w.run(ctx, session, trigger)
	if err != nil {
		w.logger.Error("stats sync failed", "user_id", session.UserID, "error", err)
		w.tracker.Set(domain.WorkerStats, domain.StatusFailed)
		return domain.RetryableResult(err)
	}

	w.tracker.Set(domain.WorkerStats, domain.StatusSuccess)
	return result
}

func (w *StatsSyncWorker) run(ctx context.Context, session *identity.Session, trigger domain.Trigger) (domain.RunResult, error) {
	var result domain.RunResult

	if trigger.IsFirstSync {
		from := statsDomain.DateOf(session.AccountCreatedAt)
		to := statsDomain.DateOf(w.now())

		rows, err := w.remote.PullStats(ctx, session.UserID, from, to)
		if err != nil {
			return result, fmt.Errorf("failed to pull stats range: %w", err)
		}
		for _, row := range rows {
			if err := w.statsRepo.Upsert(ctx, row, true); err != nil {
				return result, fmt.Errorf("failed to store pulled stats row: %w", err)
			}
			result.Pulled++
		}
		return result, nil
	}

	dirty, err := w.statsRepo.AllUnsynced(ctx, session.UserID)
	if err != nil {
		return result, fmt.Errorf("failed to read dirty stats: %w", err)
	}

	for _, row := range dirty {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := w.remote.PushStats(ctx, row); err != nil {
			w.logger.Warn("stats push rejected, leaving row dirty",
				"quest_id", row.QuestID, "date", row.Date.Format("2006-01-02"), "error", err)
			result.Skipped++
			continue
		}
		// The outcome guard keeps the row dirty if it was rewritten
		// while the push was in flight.
		if err := w.statsRepo.MarkSynced(ctx, row.UserID, row.QuestID, row.Date, row.Outcome); err != nil {
			return result, fmt.Errorf("failed to mark stats row synced: %w", err)
		}
		result.Pushed++
	}

	if result.Skipped > 0 {
		result.Retry = true
	}
	return result, nil
}
