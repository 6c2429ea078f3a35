package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driving"
)

// Ensure limiterService implements RateLimiter
var _ driving.RateLimiter = (*limiterService)(nil)

// limiterService layers two token buckets in front of every guarded
// endpoint: a system-wide bucket shared by all clients and a per-client
// bucket. The global check runs first so a saturated system rejects
// before any per-client bookkeeping happens.
type limiterService struct {
	store  driven.RateLimitStore
	config domain.RateLimitConfig
	logger *slog.Logger
}

// NewRateLimiter creates a new layered RateLimiter.
// A nil store disables admission control entirely.
func NewRateLimiter(store driven.RateLimitStore, config domain.RateLimitConfig, logger *slog.Logger) driving.RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &limiterService{
		store:  store,
		config: config,
		logger: logger,
	}
}

// Allow admits or rejects one request for endpoint on behalf of clientID.
func (s *limiterService) Allow(ctx context.Context, endpoint, clientID string) error {
	if s.store == nil {
		return nil
	}

	if s.config.Global.Enabled() {
		key := domain.GlobalBucketKey(endpoint)
		allowed, err := s.store.AcquireToken(ctx, key, s.config.Global.Capacity, s.config.Global.Rate, 1)
		if err != nil {
			// Fail open: availability over strict enforcement. Logged so
			// the open state is visible operationally.
			s.logger.Warn("rate limit store unavailable, failing open",
				"bucket", key,
				"error", err,
			)
			return nil
		}
		if !allowed {
			return fmt.Errorf("global bucket %s: %w", endpoint, domain.ErrRateLimited)
		}
	}

	if s.config.PerClient.Enabled() {
		if clientID == "" {
			clientID = domain.UnknownClient
		}
		key := domain.ClientBucketKey(endpoint, clientID)
		allowed, err := s.store.AcquireToken(ctx, key, s.config.PerClient.Capacity, s.config.PerClient.Rate, 1)
		if err != nil {
			s.logger.Warn("rate limit store unavailable, failing open",
				"bucket", key,
				"error", err,
			)
			return nil
		}
		if !allowed {
			return fmt.Errorf("client bucket %s: %w", clientID, domain.ErrRateLimited)
		}
	}

	return nil
}
