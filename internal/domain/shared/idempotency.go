package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so a retried submission can be
// answered with the original result instead of being applied twice.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false if the key already exists.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the response payload for a reserved key.
	Complete(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Lookup returns the stored payload. found is false for unknown keys and
	// payload is nil while the original request is still in flight.
	Lookup(ctx context.Context, key string) (payload []byte, found bool, err error)

	// Release drops a reservation after a failed request.
	Release(ctx context.Context, key string) error

	Close() error
}
