package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/questa/internal/sync/domain"
)

type offline struct{}

func (offline) Online(ctx context.Context) bool { return false }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig() Config {
	return Config{
		BackoffBase:       time.Millisecond,
		BackoffMax:        5 * time.Millisecond,
		MaxAttempts:       3,
		DateCheckInterval: 5 * time.Millisecond,
	}
}

func TestScheduler_ScheduleOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the task once on success", func(t *testing.T) {
		s := New(nil, fastConfig(), testLogger())
		var runs atomic.Int32

		s.ScheduleOnce(ctx, "test", func(ctx context.Context) domain.RunResult {
			runs.Add(1)
			return domain.RunResult{Pushed: 1}
		}, Constraints{})
		s.Stop()

		assert.Equal(t, int32(1), runs.Load())
	})

	t.Run("retries with backoff while the result is retryable", func(t *testing.T) {
		s := New(nil, fastConfig(), testLogger())
		var runs atomic.Int32

		s.ScheduleOnce(ctx, "test", func(ctx context.Context) domain.RunResult {
			if runs.Add(1) < 3 {
				return domain.RetryableResult(errors.New("transient"))
			}
			return domain.RunResult{}
		}, Constraints{})
		s.Stop()

		assert.Equal(t, int32(3), runs.Load())
	})

	t.Run("gives up after the attempt limit", func(t *testing.T) {
		s := New(nil, fastConfig(), testLogger())
		var runs atomic.Int32

		s.ScheduleOnce(ctx, "test", func(ctx context.Context) domain.RunResult {
			runs.Add(1)
			return domain.RetryableResult(errors.New("still broken"))
		}, Constraints{})
		s.Stop()

		assert.Equal(t, int32(3), runs.Load())
	})

	t.Run("a non-retryable failure is not reattempted", func(t *testing.T) {
		s := New(nil, fastConfig(), testLogger())
		var runs atomic.Int32

		s.ScheduleOnce(ctx, "test", func(ctx context.Context) domain.RunResult {
			runs.Add(1)
			return domain.RunResult{Err: errors.New("bad payload")}
		}, Constraints{})
		s.Stop()

		assert.Equal(t, int32(1), runs.Load())
	})

	t.Run("skips a network task while offline", func(t *testing.T) {
		s := New(offline{}, fastConfig(), testLogger())
		var runs atomic.Int32

		s.ScheduleOnce(ctx, "test", func(ctx context.Context) domain.RunResult {
			runs.Add(1)
			return domain.RunResult{}
		}, Constraints{RequiresNetwork: true})
		s.Stop()

		assert.Equal(t, int32(0), runs.Load())
	})
}

func TestScheduler_ScheduleRecurring(t *testing.T) {
	t.Run("runs on the interval until stopped", func(t *testing.T) {
		s := New(nil, fastConfig(), testLogger())
		var runs atomic.Int32

		s.ScheduleRecurring(context.Background(), "test", func(ctx context.Context) domain.RunResult {
			runs.Add(1)
			return domain.RunResult{}
		}, 2*time.Millisecond, Constraints{})

		assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
		s.Stop()
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		s := New(nil, fastConfig(), testLogger())
		var runs atomic.Int32

		s.ScheduleRecurring(ctx, "test", func(ctx context.Context) domain.RunResult {
			runs.Add(1)
			return domain.RunResult{}
		}, time.Millisecond, Constraints{})

		assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)
		cancel()
		s.Stop()
	})
}

func TestScheduler_ScheduleOnDateChange(t *testing.T) {
	t.Run("fires only when the calendar day flips", func(t *testing.T) {
		s := New(nil, fastConfig(), testLogger())

		var day atomic.Value
		day.Store("2026-04-01")
		s.now = func() time.Time {
			d, _ := time.Parse("2006-01-02", day.Load().(string))
			return d
		}

		var runs atomic.Int32
		s.ScheduleOnDateChange(context.Background(), "test", func(ctx context.Context) domain.RunResult {
			runs.Add(1)
			return domain.RunResult{}
		})

		// Same day: the poller must stay quiet.
		time.Sleep(25 * time.Millisecond)
		assert.Equal(t, int32(0), runs.Load())

		day.Store("2026-04-02")
		assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
		s.Stop()
	})
}
