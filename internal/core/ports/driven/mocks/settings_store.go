package mocks

import (
	"context"
	"sync"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// MockSettingsStore is an in-memory SettingsStore for testing
type MockSettingsStore struct {
	mu       sync.Mutex
	settings *domain.Settings
}

// NewMockSettingsStore creates a new MockSettingsStore
func NewMockSettingsStore() *MockSettingsStore {
	return &MockSettingsStore{}
}

func (m *MockSettingsStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return nil, domain.ErrNotFound
	}
	copied := *m.settings
	return &copied, nil
}

func (m *MockSettingsStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *settings
	m.settings = &copied
	return nil
}
