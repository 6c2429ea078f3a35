package services

import (
	"context"
	"log/slog"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driving"
	"github.com/vectoria-labs/vectoria-core/internal/runtime"
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// chatService is the RAG orchestrator: a thin composition of the
// similarity engine and the LLM gateway.
type chatService struct {
	search   driving.SearchService
	services *runtime.Services
	logger   *slog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(search driving.SearchService, services *runtime.Services, logger *slog.Logger) driving.ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &chatService{
		search:   search,
		services: services,
		logger:   logger,
	}
}

// Query retrieves context documents and generates a grounded answer
func (s *chatService) Query(ctx context.Context, userID int64, question string, opts domain.RAGOptions) (*domain.RAGAnswer, error) {
	hits, err := s.retrieve(ctx, userID, question, opts)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		return &domain.RAGAnswer{
			Answer:  domain.NoContextAnswer,
			Sources: []domain.SearchHit{},
		}, nil
	}

	llm := s.services.LLMService()
	if llm == nil {
		return nil, domain.ErrServiceUnavailable
	}

	answer, err := llm.Complete(ctx, s.completionRequest(question, hits, opts))
	if err != nil {
		return nil, err
	}

	return &domain.RAGAnswer{Answer: answer, Sources: hits}, nil
}

// QueryStream is the streaming variant of Query. The retrieved sources
// are returned up front so the caller can render them before the first
// token arrives.
func (s *chatService) QueryStream(ctx context.Context, userID int64, question string, opts domain.RAGOptions) (<-chan domain.StreamChunk, []domain.SearchHit, error) {
	hits, err := s.retrieve(ctx, userID, question, opts)
	if err != nil {
		return nil, nil, err
	}

	if len(hits) == 0 {
		out := make(chan domain.StreamChunk, 2)
		out <- domain.StreamChunk{Content: domain.NoContextAnswer}
		out <- domain.StreamChunk{Done: true}
		close(out)
		return out, []domain.SearchHit{}, nil
	}

	llm := s.services.LLMService()
	if llm == nil {
		return nil, nil, domain.ErrServiceUnavailable
	}

	stream, err := llm.CompleteStream(ctx, s.completionRequest(question, hits, opts))
	if err != nil {
		return nil, nil, err
	}
	return stream, hits, nil
}

// retrieve runs the similarity search with RAG defaults applied.
func (s *chatService) retrieve(ctx context.Context, userID int64, question string, opts domain.RAGOptions) ([]domain.SearchHit, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	result, err := s.search.Search(ctx, userID, question, domain.SearchOptions{
		Similarity: opts.Similarity,
		Limit:      topK,
		GroupID:    opts.GroupID,
	})
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
}

func (s *chatService) completionRequest(question string, hits []domain.SearchHit, opts domain.RAGOptions) domain.CompletionRequest {
	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = domain.DefaultRAGSystemPrompt
	}
	return domain.CompletionRequest{
		SystemPrompt: systemPrompt,
		Query:        question,
		Contexts:     hits,
		Temperature:  opts.Temperature,
		MaxTokens:    opts.MaxTokens,
		Model:        opts.Model,
	}
}
