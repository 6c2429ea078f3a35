package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RateLimitStore = (*RateLimitStore)(nil)

const bucketPrefix = "vectoria:ratelimit:"

// acquireScript refills a token bucket at a continuous rate and tries
// to spend in one atomic step, so concurrent callers on the same key
// never double-spend. The caller supplies the timestamp: Redis time is
// not available in all script contexts and an injected clock keeps the
// behavior testable.
var acquireScript = redis.NewScript(`
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local requested = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])
	local ttl = tonumber(ARGV[5])

	local state = redis.call("hmget", KEYS[1], "tokens", "last_refill")
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil then
		tokens = capacity
		last_refill = now
	end

	local delta = now - last_refill
	if delta < 0 then
		delta = 0
	end
	tokens = math.min(capacity, tokens + delta * rate)

	local allowed = 0
	if tokens >= requested then
		tokens = tokens - requested
		allowed = 1
	end

	redis.call("hset", KEYS[1], "tokens", tokens, "last_refill", now)
	redis.call("expire", KEYS[1], ttl)
	return allowed
`)

// RateLimitStore implements driven.RateLimitStore using Redis hashes.
// One hash per bucket key holds the token count and the last refill
// timestamp; idle buckets expire after domain.BucketTTL.
type RateLimitStore struct {
	client *redis.Client
	now    func() float64
}

// NewRateLimitStore creates a new Redis-backed RateLimitStore
func NewRateLimitStore(client *redis.Client) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		now:    func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
	}
}

// AcquireToken refills the bucket and tries to spend tokens atomically
func (s *RateLimitStore) AcquireToken(ctx context.Context, key string, capacity int, ratePerSec float64, tokens int) (bool, error) {
	result, err := acquireScript.Run(ctx, s.client,
		[]string{bucketPrefix + key},
		capacity,
		ratePerSec,
		tokens,
		s.now(),
		int(domain.BucketTTL.Seconds()),
	).Result()
	if err != nil {
		return false, fmt.Errorf("acquire token %s: %w", key, err)
	}
	return result.(int64) == 1, nil
}

// Ping checks if the Redis backend is healthy
func (s *RateLimitStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SetClock overrides the timestamp source. Test hook.
func (s *RateLimitStore) SetClock(now func() float64) {
	s.now = now
}
