package ai

import (
	"fmt"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// ProviderOpenAI covers the OpenAI API and every endpoint that speaks
// its wire format (configured through BaseURL).
const ProviderOpenAI = "openai"

// Factory creates AI gateways based on the persisted settings
type Factory struct{}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateEmbeddingService creates an embedding gateway from settings.
// Returns nil, nil when the settings are not configured: an absent
// gateway is a degraded state, not an error.
func (f *Factory) CreateEmbeddingService(settings domain.GatewaySettings, dimensions int) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case ProviderOpenAI:
		return NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL, dimensions)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateLLMService creates an LLM gateway from settings.
// Returns nil, nil when the settings are not configured.
func (f *Factory) CreateLLMService(settings domain.GatewaySettings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case ProviderOpenAI:
		return NewOpenAILLM(settings.APIKey, settings.Model, settings.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
