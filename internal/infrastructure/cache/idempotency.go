package cache

import (
	"context"
	"time"
)

// IdempotencyStore records processed webhook event IDs so that redelivered
// events are acknowledged without reprocessing.
type IdempotencyStore interface {
	// MarkProcessed marks an event as processed with a TTL.
	// Returns true if the event was newly marked, false if it was
	// already processed.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if an event has already been processed.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Forget drops the marker for an event so a later delivery is
	// treated as new. Callers use it to release a claim whose
	// processing failed.
	Forget(ctx context.Context, eventID string) error

	// Close releases store resources.
	Close() error
}
