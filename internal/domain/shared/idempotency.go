package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which webhook deliveries and events were
// already handled. Stripe redelivers until it sees a 2xx, and the Kafka relay
// is at-least-once, so every consumer with side effects checks here first.
type IdempotencyStore interface {
	// MarkProcessed records key for ttl and reports whether this call was the
	// first to do so.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Forget releases key after a failed attempt so a retry is not skipped.
	Forget(ctx context.Context, key string) error
	Close() error
}

// IdempotencyConfig controls an idempotent consumer
type IdempotencyConfig struct {
	// TTL should outlive the sender's retry window; Stripe retries for up to
	// three days.
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps keys for 72 hours
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 72 * time.Hour, Enabled: true}
}
