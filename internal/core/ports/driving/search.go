package driving

import (
	"context"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// SearchService is the vector similarity engine's caller-facing contract.
type SearchService interface {
	// Search ranks the user's documents by semantic closeness to the
	// query text. The similarity threshold in opts is inverted to a
	// cosine distance bound before the store is queried. An unavailable
	// embedding gateway degrades to an empty result, not an error.
	Search(ctx context.Context, userID int64, query string, opts domain.SearchOptions) (*domain.SearchResult, error)

	// SearchByGroup restricts Search to a single group partition
	SearchByGroup(ctx context.Context, userID, groupID int64, query string, opts domain.SearchOptions) (*domain.SearchResult, error)
}
