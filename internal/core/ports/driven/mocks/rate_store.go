package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

type bucket struct {
	tokens     float64
	lastRefill float64
}

// MockRateLimitStore is an in-memory token bucket with an injectable
// clock, mirroring the semantics of the Redis Lua script.
type MockRateLimitStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() float64
	err     error

	// Calls records bucket keys in acquisition order for assertions
	Calls []string
}

// NewMockRateLimitStore creates a new MockRateLimitStore using wall time
func NewMockRateLimitStore() *MockRateLimitStore {
	return &MockRateLimitStore{
		buckets: make(map[string]*bucket),
		now:     func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
	}
}

func (m *MockRateLimitStore) AcquireToken(ctx context.Context, key string, capacity int, ratePerSec float64, tokens int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, key)
	if m.err != nil {
		return false, m.err
	}

	now := m.now()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(capacity), lastRefill: now}
		m.buckets[key] = b
	}

	delta := now - b.lastRefill
	if delta < 0 {
		delta = 0
	}
	b.tokens += delta * ratePerSec
	if b.tokens > float64(capacity) {
		b.tokens = float64(capacity)
	}
	b.lastRefill = now

	if b.tokens >= float64(tokens) {
		b.tokens -= float64(tokens)
		return true, nil
	}
	return false, nil
}

func (m *MockRateLimitStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Helper methods for testing

// SetNow pins the clock to a fixed timestamp in seconds
func (m *MockRateLimitStore) SetNow(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = func() float64 { return seconds }
}

// Advance moves the pinned clock forward
func (m *MockRateLimitStore) Advance(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.now()
	m.now = func() float64 { return prev + seconds }
}

// SetUnavailable makes every call fail with ErrRateStoreUnavailable
func (m *MockRateLimitStore) SetUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if unavailable {
		m.err = domain.ErrRateStoreUnavailable
	} else {
		m.err = nil
	}
}

// Tokens reports the current token count for a key
func (m *MockRateLimitStore) Tokens(key string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buckets[key]; ok {
		return b.tokens
	}
	return -1
}
