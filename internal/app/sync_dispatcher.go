package app

import (
	"context"

	"github.com/felixgeelhaar/questa/internal/sync/application/scheduler"
	"github.com/felixgeelhaar/questa/internal/sync/application/workers"
	syncDomain "github.com/felixgeelhaar/questa/internal/sync/domain"
)

// SyncDispatcher hands sync requests to the scheduler as one-shot
// background tasks. It is the bridge between push payload handling and
// the worker loops.
type SyncDispatcher struct {
	scheduler *scheduler.Scheduler
	profile   *workers.ProfileSyncWorker
	quests    *workers.QuestSyncWorker
	stats     *workers.StatsSyncWorker
}

// NewSyncDispatcher creates a new SyncDispatcher.
func NewSyncDispatcher(
	sched *scheduler.Scheduler,
	profile *workers.ProfileSyncWorker,
	quests *workers.QuestSyncWorker,
	stats *workers.StatsSyncWorker,
) *SyncDispatcher {
	return &SyncDispatcher{
		scheduler: sched,
		profile:   profile,
		quests:    quests,
		stats:     stats,
	}
}

// TriggerProfileSync schedules a one-shot profile sync run.
func (d *SyncDispatcher) TriggerProfileSync(ctx context.Context) {
	d.scheduler.ScheduleOnce(ctx, "profile-sync", func(ctx context.Context) syncDomain.RunResult {
		return d.profile.Run(ctx, syncDomain.Trigger{})
	}, scheduler.Constraints{RequiresNetwork: true})
}

// TriggerQuestSync schedules a one-shot quest sync run with the given
// trigger.
func (d *SyncDispatcher) TriggerQuestSync(ctx context.Context, trigger syncDomain.Trigger) {
	d.scheduler.ScheduleOnce(ctx, "quest-sync", func(ctx context.Context) syncDomain.RunResult {
		return d.quests.Run(ctx, trigger)
	}, scheduler.Constraints{RequiresNetwork: true})
}

// TriggerStatsSync schedules a one-shot stats sync run.
func (d *SyncDispatcher) TriggerStatsSync(ctx context.Context) {
	d.scheduler.ScheduleOnce(ctx, "stats-sync", func(ctx context.Context) syncDomain.RunResult {
		return d.stats.Run(ctx, syncDomain.Trigger{})
	}, scheduler.Constraints{RequiresNetwork: true})
}

// RunAll runs one pass of every worker synchronously and reports the
// combined outcome. Used by the CLI sync command.
func (d *SyncDispatcher) RunAll(ctx context.Context, trigger syncDomain.Trigger) syncDomain.RunResult {
	var combined syncDomain.RunResult
	for _, run := range []func(context.Context, syncDomain.Trigger) syncDomain.RunResult{
		d.profile.Run,
		d.quests.Run,
		d.stats.Run,
	} {
		result := run(ctx, trigger)
		combined.Pushed += result.Pushed
		combined.Pulled += result.Pulled
		combined.Skipped += result.Skipped
		if result.Retry {
			combined.Retry = true
		}
		if result.Err != nil && combined.Err == nil {
			combined.Err = result.Err
		}
	}
	return combined
}
