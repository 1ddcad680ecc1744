package domain

import "context"

// TokenCache holds external-integration access tokens so screens do not
// re-authenticate on every load. A server push can name a token to
// invalidate; the next read then falls through to re-authentication.
type TokenCache interface {
	// Get returns ("", nil) on a cache miss.
	Get(ctx context.Context, tokenID string) (string, error)
	Set(ctx context.Context, tokenID, token string) error
	Invalidate(ctx context.Context, tokenID string) error
}
