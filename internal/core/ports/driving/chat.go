package driving

import (
	"context"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// ChatService is the RAG orchestrator: retrieval composed with an LLM
// completion, streaming or not.
type ChatService interface {
	// Query retrieves context documents and generates a grounded answer
	Query(ctx context.Context, userID int64, question string, opts domain.RAGOptions) (*domain.RAGAnswer, error)

	// QueryStream is the streaming variant. The channel is closed after
	// a terminal chunk; cancelling ctx stops generation promptly.
	QueryStream(ctx context.Context, userID int64, question string, opts domain.RAGOptions) (<-chan domain.StreamChunk, []domain.SearchHit, error)
}
