package driven

import (
	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// AIServiceFactory creates AI gateways based on configuration
type AIServiceFactory interface {
	// CreateEmbeddingService creates an embedding gateway from settings.
	// Returns nil, nil if settings are not configured.
	CreateEmbeddingService(settings domain.GatewaySettings, dimensions int) (EmbeddingService, error)

	// CreateLLMService creates an LLM gateway from settings.
	// Returns nil, nil if settings are not configured.
	CreateLLMService(settings domain.GatewaySettings) (LLMService, error)
}
