package domain

import "context"

// IdempotencyRegistry de-duplicates at-least-once push deliveries.
type IdempotencyRegistry interface {
	// FirstDelivery records the key and reports whether this is the
	// first time it was seen. A duplicate delivery returns false.
	FirstDelivery(ctx context.Context, key string) (bool, error)
}
