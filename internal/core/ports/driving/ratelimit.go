package driving

import "context"

// RateLimiter is the admission-control contract enforced before a request
// reaches the similarity engine or the LLM gateway.
type RateLimiter interface {
	// Allow admits or rejects one request against both the global and
	// the per-client bucket for the endpoint. A denial is
	// domain.ErrRateLimited; an unreachable bucket store admits the
	// request (fail open).
	Allow(ctx context.Context, endpoint, clientID string) error
}
