package driven

import (
	"context"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// LLMService generates grounded answers from a query plus retrieved
// context documents. External collaborator, consumed at the interface
// level only.
type LLMService interface {
	// Complete generates a single answer
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)

	// CompleteStream generates an answer incrementally. The returned
	// channel is closed after a terminal chunk (Done or Err); cancelling
	// ctx stops upstream consumption promptly.
	CompleteStream(ctx context.Context, req domain.CompletionRequest) (<-chan domain.StreamChunk, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
