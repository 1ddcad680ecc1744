package commands

import (
	"sync"

	"github.com/google/uuid"
)

// UserLocks serializes read-modify-write cycles on the singleton player
// row. Quest completion, gift pushes, boost activation and the day-change
// resolver all contend on the same row; without this a concurrent delta
// could be lost between load and save. One instance is shared by every
// player command handler in the process.
//
// Entries are never evicted: the process runs on a single-user device,
// so the map holds one mutex per locally signed-in account.
type UserLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewUserLocks creates an empty lock registry.
func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the per-user mutex, creating it on first use.
// The returned func releases it.
func (l *UserLocks) Lock(userID uuid.UUID) func() {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
