package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driving"
	"github.com/vectoria-labs/vectoria-core/internal/runtime"
)

// Ensure settingsService implements SettingsService
var _ driving.SettingsService = (*settingsService)(nil)

// settingsService persists runtime configuration and hot-reloads the AI
// gateways through the runtime registry when it changes. Configuration
// is threaded through constructors by DI; there is no ambient global.
type settingsService struct {
	settingsStore driven.SettingsStore
	aiFactory     driven.AIServiceFactory
	services      *runtime.Services
	logger        *slog.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(
	settingsStore driven.SettingsStore,
	aiFactory driven.AIServiceFactory,
	services *runtime.Services,
	logger *slog.Logger,
) driving.SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &settingsService{
		settingsStore: settingsStore,
		aiFactory:     aiFactory,
		services:      services,
		logger:        logger,
	}
}

// Get retrieves the current settings (defaults if never configured)
func (s *settingsService) Get(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetSettings(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultSettings(), nil
	}
	return settings, err
}

// Update persists changes and rebuilds affected gateways
func (s *settingsService) Update(ctx context.Context, req driving.UpdateSettingsRequest) (*domain.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	reloadEmbedding := false
	reloadLLM := false

	if req.Embedding != nil {
		settings.Embedding = *req.Embedding
		reloadEmbedding = true
	}
	if req.LLM != nil {
		settings.LLM = *req.LLM
		reloadLLM = true
	}
	if req.DefaultSimilarity != nil {
		settings.DefaultSimilarity = *req.DefaultSimilarity
	}
	if req.SystemPrompt != nil {
		settings.SystemPrompt = *req.SystemPrompt
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	settings.UpdatedAt = time.Now()

	if err := s.settingsStore.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	s.services.Config().SetDefaultSimilarity(settings.DefaultSimilarity)

	if reloadEmbedding {
		if err := s.reloadEmbedding(ctx, settings); err != nil {
			return nil, err
		}
	}
	if reloadLLM {
		if err := s.reloadLLM(ctx, settings); err != nil {
			return nil, err
		}
	}

	return settings, nil
}

// Bootstrap builds gateways from stored settings at startup. Missing or
// unreachable gateways are logged, not fatal: the system degrades per
// the fail-soft search contract until reconfigured.
func (s *settingsService) Bootstrap(ctx context.Context, settings *domain.Settings) {
	s.services.Config().SetDefaultSimilarity(settings.DefaultSimilarity)
	if err := s.reloadEmbedding(ctx, settings); err != nil {
		s.logger.Warn("embedding gateway not available at startup", "error", err)
	}
	if err := s.reloadLLM(ctx, settings); err != nil {
		s.logger.Warn("llm gateway not available at startup", "error", err)
	}
}

func (s *settingsService) reloadEmbedding(ctx context.Context, settings *domain.Settings) error {
	svc, err := s.aiFactory.CreateEmbeddingService(settings.Embedding, settings.VectorDimension)
	if err != nil {
		return err
	}
	return s.services.ValidateAndSetEmbedding(ctx, svc)
}

func (s *settingsService) reloadLLM(ctx context.Context, settings *domain.Settings) error {
	svc, err := s.aiFactory.CreateLLMService(settings.LLM)
	if err != nil {
		return err
	}
	return s.services.ValidateAndSetLLM(ctx, svc)
}
