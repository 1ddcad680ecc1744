package dedupe

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is a process-local idempotency registry.
type MemoryRegistry struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryRegistry{seen: make(map[string]time.Time), ttl: ttl}
}

// FirstDelivery records the key and reports whether it was unseen.
func (r *MemoryRegistry) FirstDelivery(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if at, ok := r.seen[key]; ok && now.Sub(at) < r.ttl {
		return false, nil
	}

	for k, at := range r.seen {
		if now.Sub(at) >= r.ttl {
			delete(r.seen, k)
		}
	}

	r.seen[key] = now
	return true, nil
}
