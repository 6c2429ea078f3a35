package driving

import (
	"context"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// UpdateSettingsRequest carries a partial settings update
type UpdateSettingsRequest struct {
	Embedding         *domain.GatewaySettings
	LLM               *domain.GatewaySettings
	DefaultSimilarity *float64
	SystemPrompt      *string
}

// SettingsService manages the persisted runtime configuration and
// hot-reloads AI gateways when it changes.
type SettingsService interface {
	// Get retrieves the current settings (defaults if never configured)
	Get(ctx context.Context) (*domain.Settings, error)

	// Update persists changes and rebuilds affected gateways
	Update(ctx context.Context, req UpdateSettingsRequest) (*domain.Settings, error)

	// Bootstrap builds gateways from stored settings at startup.
	// Failures degrade, they do not abort startup.
	Bootstrap(ctx context.Context, settings *domain.Settings)
}
