package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	t.Run("starts with every worker pending", func(t *testing.T) {
		tracker := NewTracker()

		snapshot := tracker.Snapshot()

		assert.Equal(t, StatusPending, snapshot[WorkerProfile])
		assert.Equal(t, StatusPending, snapshot[WorkerQuests])
		assert.Equal(t, StatusPending, snapshot[WorkerStats])
	})

	t.Run("set updates the current status", func(t *testing.T) {
		tracker := NewTracker()

		tracker.Set(WorkerQuests, StatusOngoing)
		tracker.Set(WorkerQuests, StatusSuccess)

		assert.Equal(t, StatusSuccess, tracker.Current(WorkerQuests))
		assert.Equal(t, StatusPending, tracker.Current(WorkerProfile))
	})

	t.Run("subscribers receive broadcast updates", func(t *testing.T) {
		tracker := NewTracker()
		updates, cancel := tracker.Subscribe()
		defer cancel()

		tracker.Set(WorkerProfile, StatusOngoing)

		update := <-updates
		assert.Equal(t, WorkerProfile, update.Worker)
		assert.Equal(t, StatusOngoing, update.Status)
		assert.False(t, update.At.IsZero())
	})

	t.Run("a full subscriber channel never blocks the worker", func(t *testing.T) {
		tracker := NewTracker()
		_, cancel := tracker.Subscribe()
		defer cancel()

		// Channel capacity is 16; overflow must drop, not block.
		for i := 0; i < 100; i++ {
			tracker.Set(WorkerStats, StatusOngoing)
		}

		assert.Equal(t, StatusOngoing, tracker.Current(WorkerStats))
	})

	t.Run("cancel removes the subscription", func(t *testing.T) {
		tracker := NewTracker()
		updates, cancel := tracker.Subscribe()

		cancel()
		tracker.Set(WorkerProfile, StatusFailed)

		_, open := <-updates
		require.False(t, open)
	})
}
