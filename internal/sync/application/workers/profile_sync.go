package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/questa/internal/identity"
	playerDomain "github.com/felixgeelhaar/questa/internal/player/domain"
	"github.com/felixgeelhaar/questa/internal/sync/domain"
)

// ProfileSyncWorker reconciles the singleton player row with the remote
// store. One run is a pure function of (trigger, store state); the
// scheduler decides when runs happen.
type ProfileSyncWorker struct {
	sessions   identity.Provider
	playerRepo playerDomain.Repository
	remote     domain.RemoteStore
	tracker    *domain.Tracker
	logger     *slog.Logger
}

// NewProfileSyncWorker creates a new ProfileSyncWorker.
func NewProfileSyncWorker(
	sessions identity.Provider,
	playerRepo playerDomain.Repository,
	remote domain.RemoteStore,
	tracker *domain.Tracker,
	logger *slog.Logger,
) *ProfileSyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileSyncWorker{
		sessions:   sessions,
		playerRepo: playerRepo,
		remote:     remote,
		tracker:    tracker,
		logger:     logger,
	}
}

// Kind returns the worker identity for status tracking.
func (w *ProfileSyncWorker) Kind() domain.WorkerKind { return domain.WorkerProfile }

// Run executes one sync pass. Re-running with no intervening local
// mutation is a pure no-op.
func (w *ProfileSyncWorker) Run(ctx context.Context, trigger domain.Trigger) domain.RunResult {
	session, err := w.sessions.Current(ctx)
	if err != nil {
		return domain.RetryableResult(fmt.Errorf("failed to resolve session: %w", err))
	}
	if session == nil {
		// Nothing to sync without a user; not a failure.
		return domain.RunResult{}
	}

	w.tracker.Set(domain.WorkerProfile, domain.StatusOngoing)

	result, err := w.run(ctx, session, trigger)
	if err != nil {
		w.logger.Error("profile sync failed", "user_id", session.UserID, "error", err)
		w.tracker.Set(domain.WorkerProfile, domain.StatusFailed)
		return domain.RetryableResult(err)
	}

	w.tracker.Set(domain.WorkerProfile, domain.StatusSuccess)
	return result
}

func (w *ProfileSyncWorker) run(ctx context.Context, session *identity.Session, trigger domain.Trigger) (domain.RunResult, error) {
	if trigger.IsFirstSync {
		remoteState, err := w.remote.PullProfile(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrRemoteNotFound) {
				// No remote profile yet. The local default stays dirty
				// and the next incremental run pushes it.
				return domain.RunResult{}, nil
			}
			return domain.RunResult{}, fmt.Errorf("failed to pull profile: %w", err)
		}

		if err := w.playerRepo.Save(ctx, remoteState, true); err != nil {
			return domain.RunResult{}, fmt.Errorf("failed to store pulled profile: %w", err)
		}
		return domain.RunResult{Pulled: 1}, nil
	}

	state, err := w.playerRepo.FindUnsynced(ctx, session.UserID)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("failed to read dirty profile: %w", err)
	}
	if state == nil {
		return domain.RunResult{}, nil
	}

	if err := w.remote.PushProfile(ctx, state); err != nil {
		return domain.RunResult{}, fmt.Errorf("failed to push profile: %w", err)
	}
	// The stamp guard keeps the row dirty if a local mutation landed
	// while the push was in flight, so the next run pushes it.
	if err := w.playerRepo.MarkSynced(ctx, session.UserID, state.UpdatedAt()); err != nil {
		return domain.RunResult{}, fmt.Errorf("failed to mark profile synced: %w", err)
	}

	return domain.RunResult{Pushed: 1}, nil
}
