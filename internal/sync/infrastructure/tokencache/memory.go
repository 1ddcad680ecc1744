package tokencache

import (
	"context"
	"sync"
)

// MemoryCache is a process-local token cache.
type MemoryCache struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryCache creates an empty in-memory token cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{tokens: make(map[string]string)}
}

// Get returns the cached token, or "" on a miss.
func (c *MemoryCache) Get(ctx context.Context, tokenID string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens[tokenID], nil
}

// Set stores a token.
func (c *MemoryCache) Set(ctx context.Context, tokenID, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[tokenID] = token
	return nil
}

// Invalidate drops a token.
func (c *MemoryCache) Invalidate(ctx context.Context, tokenID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, tokenID)
	return nil
}
