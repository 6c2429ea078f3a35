package domain

import "time"

// BucketTTL is how long an idle bucket survives in the store before it
// may be evicted. Buckets are ephemeral rate-limiting state, not records.
const BucketTTL = time.Hour

// RateLimitPolicy describes one token bucket layer: a capacity ceiling
// and a continuous refill rate. A capacity of zero (or less) disables
// the layer entirely.
type RateLimitPolicy struct {
	Capacity int     `json:"capacity"`
	Rate     float64 `json:"rate"` // tokens per second
}

// Enabled reports whether this layer participates in admission at all.
func (p RateLimitPolicy) Enabled() bool {
	return p.Capacity > 0
}

// RateLimitConfig carries the two admission layers: a system-wide cap
// shared by every client and a per-client cap.
type RateLimitConfig struct {
	Global    RateLimitPolicy
	PerClient RateLimitPolicy
}

// GlobalBucketKey builds the shared bucket key for an endpoint.
func GlobalBucketKey(endpoint string) string {
	return "global_limit:" + endpoint
}

// ClientBucketKey builds the per-client bucket key for an endpoint.
func ClientBucketKey(endpoint, clientID string) string {
	return endpoint + ":" + clientID
}

// UnknownClient is the shared fallback identity when no client address
// can be resolved. Unknown clients share one bucket, so they throttle
// each other rather than bypassing the limit.
const UnknownClient = "unknown"
