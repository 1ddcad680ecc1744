package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/questa/internal/sync/domain"
)

// Task is one schedulable unit of work. Workers are pure functions of
// (trigger, store state), so a Task is usually a closure binding a
// worker to its trigger.
type Task func(ctx context.Context) domain.RunResult

// Constraints gate task execution.
type Constraints struct {
	RequiresNetwork bool
}

// Connectivity reports whether the device can reach the network.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// AlwaysOnline is the connectivity check for environments without a
// real network monitor.
type AlwaysOnline struct{}

// Online always reports true.
func (AlwaysOnline) Online(ctx context.Context) bool { return true }

// Config holds scheduler tuning.
type Config struct {
	BackoffBase time.Duration
	BackoffMax  time.Duration
	MaxAttempts int
	// DateCheckInterval is how often the date-change watcher samples
	// the calendar day. The device may sleep arbitrarily long, so this
	// is a poll, not an elapsed timer.
	DateCheckInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BackoffBase:       2 * time.Second,
		BackoffMax:        5 * time.Minute,
		MaxAttempts:       5,
		DateCheckInterval: time.Minute,
	}
}

// Scheduler dispatches background tasks: one-shot with backoff,
// recurring on an interval, and on calendar date change.
type Scheduler struct {
	connectivity Connectivity
	config       Config
	logger       *slog.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
	mu       sync.Mutex
	stopped  bool
	now      func() time.Time
}

// New creates a scheduler.
func New(connectivity Connectivity, config Config, logger *slog.Logger) *Scheduler {
	if connectivity == nil {
		connectivity = AlwaysOnline{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		connectivity: connectivity,
		config:       config,
		logger:       logger,
		stopChan:     make(chan struct{}),
		now:          time.Now,
	}
}

// ScheduleOnce runs the task once in the background, retrying with
// exponential backoff while it reports a retryable result.
func (s *Scheduler) ScheduleOnce(ctx context.Context, name string, task Task, constraints Constraints) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runWithBackoff(ctx, name, task, constraints)
	}()
}

// ScheduleRecurring runs the task on a fixed interval until the
// scheduler stops or the context is cancelled.
func (s *Scheduler) ScheduleRecurring(ctx context.Context, name string, task Task, interval time.Duration, constraints Constraints) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.runWithBackoff(ctx, name, task, constraints)
			}
		}
	}()
}

// ScheduleOnDateChange runs the task whenever the calendar day flips.
// It polls rather than arming an elapsed timer so a sleeping device
// still detects the boundary on wake.
func (s *Scheduler) ScheduleOnDateChange(ctx context.Context, name string, task Task) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		interval := s.config.DateCheckInterval
		if interval <= 0 {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		lastDay := s.today()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				if day := s.today(); day != lastDay {
					lastDay = day
					s.runWithBackoff(ctx, name, task, Constraints{})
				}
			}
		}
	}()
}

// Stop stops all scheduled loops and waits for in-flight runs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runWithBackoff(ctx context.Context, name string, task Task, constraints Constraints) {
	maxAttempts := s.config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if constraints.RequiresNetwork && !s.connectivity.Online(ctx) {
			// Constraint no longer met; the next trigger retries.
			s.logger.Debug("skipping task, offline", "task", name)
			return
		}

		result := task(ctx)
		if result.Err != nil {
			s.logger.Warn("task run failed",
				"task", name, "attempt", attempt, "retryable", result.Retry, "error", result.Err)
		} else if result.Retry {
			s.logger.Info("task left retryable work",
				"task", name, "attempt", attempt, "skipped", result.Skipped)
		} else {
			if result.Pushed > 0 || result.Pulled > 0 {
				s.logger.Info("task run complete",
					"task", name, "pushed", result.Pushed, "pulled", result.Pulled)
			}
			return
		}

		if !result.Retry || attempt == maxAttempts {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-time.After(s.backoff(attempt)):
		}
	}
}

func (s *Scheduler) backoff(attempt int) time.Duration {
	base := s.config.BackoffBase
	if base <= 0 {
		base = time.Second
	}
	maxBackoff := s.config.BackoffMax
	if maxBackoff <= 0 {
		maxBackoff = time.Minute
	}

	backoff := base
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

func (s *Scheduler) today() string {
	return s.now().Format("2006-01-02")
}
