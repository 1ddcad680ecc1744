package domain

import (
	"sync"
	"time"
)

// Status is the last-known state of a sync worker run, broadcast to
// observers for progress indication. Never persisted.
type Status string

const (
	StatusPending Status = "pending"
	StatusOngoing Status = "ongoing"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// WorkerKind identifies one of the three sync workers.
type WorkerKind string

const (
	WorkerProfile WorkerKind = "profile"
	WorkerQuests  WorkerKind = "quests"
	WorkerStats   WorkerKind = "stats"
)

// StatusUpdate is one broadcast sample.
type StatusUpdate struct {
	Worker WorkerKind
	Status Status
	At     time.Time
}

// Tracker holds the ephemeral per-worker status and fans updates out to
// subscribers. Slow subscribers miss updates rather than blocking a
// worker run.
type Tracker struct {
	mu      sync.RWMutex
	current map[WorkerKind]Status
	subs    map[int]chan StatusUpdate
	nextSub int
}

// NewTracker creates a tracker with all workers pending.
func NewTracker() *Tracker {
	return &Tracker{
		current: map[WorkerKind]Status{
			WorkerProfile: StatusPending,
			WorkerQuests:  StatusPending,
			WorkerStats:   StatusPending,
		},
		subs: make(map[int]chan StatusUpdate),
	}
}

// Set records and broadcasts a worker's status.
func (t *Tracker) Set(worker WorkerKind, status Status) {
	update := StatusUpdate{Worker: worker, Status: status, At: time.Now().UTC()}

	t.mu.Lock()
	t.current[worker] = status
	for _, ch := range t.subs {
		select {
		case ch <- update:
		default:
		}
	}
	t.mu.Unlock()
}

// Current returns the last-known status for a worker.
func (t *Tracker) Current(worker WorkerKind) Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current[worker]
}

// Snapshot returns the last-known status of every worker.
func (t *Tracker) Snapshot() map[WorkerKind]Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[WorkerKind]Status, len(t.current))
	for k, v := range t.current {
		out[k] = v
	}
	return out
}

// Subscribe registers an observer channel. The returned func removes it.
func (t *Tracker) Subscribe() (<-chan StatusUpdate, func()) {
	ch := make(chan StatusUpdate, 16)

	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}
