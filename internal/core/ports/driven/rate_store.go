package driven

import "context"

// RateLimitStore is the shared token-bucket backend (Redis). AcquireToken
// must execute the whole refill-and-spend step atomically per key:
// concurrent callers on the same key never double-spend.
type RateLimitStore interface {
	// AcquireToken refills the bucket for key at ratePerSec up to
	// capacity, then tries to spend tokens. It returns whether the spend
	// succeeded. The refreshed state is persisted either way, with the
	// idle TTL from domain.BucketTTL.
	AcquireToken(ctx context.Context, key string, capacity int, ratePerSec float64, tokens int) (bool, error)

	// Ping checks if the bucket store is reachable
	Ping(ctx context.Context) error
}
