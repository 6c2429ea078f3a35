package services

import (
	"context"
	"errors"
	"testing"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven/mocks"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driving"
)

func newTestLimiter(store *mocks.MockRateLimitStore, global, perClient domain.RateLimitPolicy) driving.RateLimiter {
	return NewRateLimiter(store, domain.RateLimitConfig{Global: global, PerClient: perClient}, nil)
}

func TestRateLimiter_TokenConservation(t *testing.T) {
	store := mocks.NewMockRateLimitStore()
	store.SetNow(1000)
	limiter := newTestLimiter(store, domain.RateLimitPolicy{}, domain.RateLimitPolicy{Capacity: 5, Rate: 1})

	// Capacity requests admit, the next one fails
	for i := 0; i < 5; i++ {
		if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
			t.Fatalf("request %d unexpectedly rejected: %v", i+1, err)
		}
	}
	err := limiter.Allow(context.Background(), "search", "1.2.3.4")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after capacity exhausted, got %v", err)
	}
}

func TestRateLimiter_RefillAfterInterval(t *testing.T) {
	store := mocks.NewMockRateLimitStore()
	store.SetNow(1000)
	limiter := newTestLimiter(store, domain.RateLimitPolicy{}, domain.RateLimitPolicy{Capacity: 2, Rate: 0.5})

	for i := 0; i < 2; i++ {
		if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
			t.Fatalf("request %d unexpectedly rejected: %v", i+1, err)
		}
	}
	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rejection on empty bucket, got %v", err)
	}

	// 1/rate seconds restores exactly one token
	store.Advance(2)
	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
		t.Fatalf("expected admission after refill interval, got %v", err)
	}
	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rejection, only one token should have refilled, got %v", err)
	}
}

func TestRateLimiter_RefillCapsAtCapacity(t *testing.T) {
	store := mocks.NewMockRateLimitStore()
	store.SetNow(1000)
	limiter := newTestLimiter(store, domain.RateLimitPolicy{}, domain.RateLimitPolicy{Capacity: 3, Rate: 1})

	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}

	// A long idle period must not bank more than capacity
	store.Advance(3600)
	for i := 0; i < 3; i++ {
		if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
			t.Fatalf("request %d unexpectedly rejected: %v", i+1, err)
		}
	}
	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rejection at capacity, got %v", err)
	}
}

func TestRateLimiter_GlobalBeforeClient(t *testing.T) {
	store := mocks.NewMockRateLimitStore()
	store.SetNow(1000)
	limiter := newTestLimiter(store,
		domain.RateLimitPolicy{Capacity: 1, Rate: 0.01},
		domain.RateLimitPolicy{Capacity: 10, Rate: 1},
	)

	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}

	wantOrder := []string{
		domain.GlobalBucketKey("search"),
		domain.ClientBucketKey("search", "1.2.3.4"),
	}
	if len(store.Calls) != 2 || store.Calls[0] != wantOrder[0] || store.Calls[1] != wantOrder[1] {
		t.Fatalf("expected acquisition order %v, got %v", wantOrder, store.Calls)
	}

	// Exhausted global bucket rejects without touching the client bucket
	err := limiter.Allow(context.Background(), "search", "1.2.3.4")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited from global layer, got %v", err)
	}
	if len(store.Calls) != 3 {
		t.Errorf("global denial should not consult the client bucket, calls: %v", store.Calls)
	}

	// The client bucket still holds the tokens the denied request never spent
	if tokens := store.Tokens(domain.ClientBucketKey("search", "1.2.3.4")); tokens != 9 {
		t.Errorf("expected 9 client tokens remaining, got %v", tokens)
	}
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	store := mocks.NewMockRateLimitStore()
	store.SetNow(1000)
	limiter := newTestLimiter(store, domain.RateLimitPolicy{}, domain.RateLimitPolicy{Capacity: 1, Rate: 0.01})

	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected first client exhausted, got %v", err)
	}

	// A different client has its own untouched bucket
	if err := limiter.Allow(context.Background(), "search", "5.6.7.8"); err != nil {
		t.Fatalf("second client unexpectedly rejected: %v", err)
	}
}

func TestRateLimiter_EndpointsAreIndependent(t *testing.T) {
	store := mocks.NewMockRateLimitStore()
	store.SetNow(1000)
	limiter := newTestLimiter(store, domain.RateLimitPolicy{}, domain.RateLimitPolicy{Capacity: 1, Rate: 0.01})

	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if err := limiter.Allow(context.Background(), "rag", "1.2.3.4"); err != nil {
		t.Fatalf("different endpoint unexpectedly rejected: %v", err)
	}
}

func TestRateLimiter_DisabledLayersSkipped(t *testing.T) {
	store := mocks.NewMockRateLimitStore()
	store.SetNow(1000)

	// Zero capacity disables a layer rather than rejecting everything
	limiter := newTestLimiter(store, domain.RateLimitPolicy{}, domain.RateLimitPolicy{})
	for i := 0; i < 100; i++ {
		if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
			t.Fatalf("disabled limiter rejected request %d: %v", i+1, err)
		}
	}
	if len(store.Calls) != 0 {
		t.Errorf("disabled layers should not touch the store, calls: %v", store.Calls)
	}
}

func TestRateLimiter_NilStoreAllowsAll(t *testing.T) {
	limiter := NewRateLimiter(nil, domain.RateLimitConfig{
		PerClient: domain.RateLimitPolicy{Capacity: 1, Rate: 1},
	}, nil)

	for i := 0; i < 10; i++ {
		if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
			t.Fatalf("nil store must admit everything, got %v", err)
		}
	}
}

func TestRateLimiter_FailOpenOnStoreError(t *testing.T) {
	store := mocks.NewMockRateLimitStore()
	store.SetNow(1000)
	limiter := newTestLimiter(store,
		domain.RateLimitPolicy{Capacity: 1, Rate: 1},
		domain.RateLimitPolicy{Capacity: 1, Rate: 1},
	)

	store.SetUnavailable(true)
	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
		t.Fatalf("expected fail-open on store error, got %v", err)
	}

	// Enforcement resumes once the store recovers
	store.SetUnavailable(false)
	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); err != nil {
		t.Fatalf("unexpected rejection after recovery: %v", err)
	}
	if err := limiter.Allow(context.Background(), "search", "1.2.3.4"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected enforcement after recovery, got %v", err)
	}
}

func TestRateLimiter_EmptyClientFallsBackToUnknown(t *testing.T) {
	store := mocks.NewMockRateLimitStore()
	store.SetNow(1000)
	limiter := newTestLimiter(store, domain.RateLimitPolicy{}, domain.RateLimitPolicy{Capacity: 1, Rate: 0.01})

	if err := limiter.Allow(context.Background(), "search", ""); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	want := domain.ClientBucketKey("search", domain.UnknownClient)
	if len(store.Calls) != 1 || store.Calls[0] != want {
		t.Fatalf("expected bucket key %q, got %v", want, store.Calls)
	}
}
