package services

import (
	"context"
	"log/slog"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driving"
	"github.com/vectoria-labs/vectoria-core/internal/runtime"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// searchService fronts the vector similarity engine: it validates the
// request, resolves the query vector and delegates the ranked scan to
// the document store.
type searchService struct {
	documentStore driven.DocumentStore
	services      *runtime.Services // Dynamic AI gateways
	logger        *slog.Logger
}

// NewSearchService creates a new SearchService.
// The embedding gateway is accessed dynamically via runtime.Services.
func NewSearchService(
	documentStore driven.DocumentStore,
	services *runtime.Services,
	logger *slog.Logger,
) driving.SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &searchService{
		documentStore: documentStore,
		services:      services,
		logger:        logger,
	}
}

// Search ranks the user's documents by cosine distance to the query.
func (s *searchService) Search(ctx context.Context, userID int64, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if opts.Similarity < 0 {
		opts.Similarity = s.services.Config().DefaultSimilarity()
	}

	// Validate before anything touches the store or the gateway
	sq, err := domain.NewSearchQuery(userID, query, nil, opts)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		// A failed embed cannot be scoped or retried meaningfully here:
		// degrade to an empty result instead of failing the pipeline.
		s.logger.Warn("embedding unavailable, degrading search to empty result",
			"user_id", userID,
			"error", err,
		)
		return domain.EmptySearchResult(), nil
	}
	sq.Vector = vector

	hits, total, err := s.documentStore.SearchSimilar(ctx, sq)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}

	return &domain.SearchResult{Hits: hits, Total: total}, nil
}

// SearchByGroup restricts Search to a single group partition
func (s *searchService) SearchByGroup(ctx context.Context, userID, groupID int64, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	opts.GroupID = &groupID
	return s.Search(ctx, userID, query, opts)
}

// embedQuery resolves the query vector through the dynamic gateway.
func (s *searchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddingService := s.services.EmbeddingService()
	if embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vector, err := embeddingService.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return vector, nil
}
