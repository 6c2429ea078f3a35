package mocks

import (
	"context"
	"strings"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// MockLLMService is a mock implementation of LLMService for testing
type MockLLMService struct {
	answer   string
	failNext bool

	// LastRequest records the most recent completion request for assertions
	LastRequest *domain.CompletionRequest
}

// NewMockLLMService creates a new MockLLMService
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{answer: "mock answer"}
}

func (m *MockLLMService) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	copied := req
	m.LastRequest = &copied
	if m.failNext {
		m.failNext = false
		return "", domain.ErrServiceUnavailable
	}
	return m.answer, nil
}

func (m *MockLLMService) CompleteStream(ctx context.Context, req domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	copied := req
	m.LastRequest = &copied
	if m.failNext {
		m.failNext = false
		return nil, domain.ErrServiceUnavailable
	}

	out := make(chan domain.StreamChunk, 4)
	go func() {
		defer close(out)
		for _, word := range strings.SplitAfter(m.answer, " ") {
			select {
			case out <- domain.StreamChunk{Content: word}:
			case <-ctx.Done():
				select {
				case out <- domain.StreamChunk{Err: ctx.Err()}:
				default:
				}
				return
			}
		}
		out <- domain.StreamChunk{Done: true}
	}()
	return out, nil
}

func (m *MockLLMService) Model() string {
	return "mock-llm-model"
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockLLMService) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockLLMService) SetAnswer(answer string) {
	m.answer = answer
}

func (m *MockLLMService) SetFailNext(fail bool) {
	m.failNext = fail
}
