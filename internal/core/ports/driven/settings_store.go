package driven

import (
	"context"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// SettingsStore persists the runtime configuration (PostgreSQL).
type SettingsStore interface {
	// GetSettings loads the stored settings; domain.ErrNotFound if the
	// system has never been configured
	GetSettings(ctx context.Context) (*domain.Settings, error)

	// SaveSettings upserts the settings
	SaveSettings(ctx context.Context, settings *domain.Settings) error
}
