package domain

import (
	"errors"
	"testing"
)

func TestNewDocument(t *testing.T) {
	doc, err := NewDocument(7, "some content", map[string]string{"source": "test"}, []float32{0.1, 0.2}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.UserID != 7 {
		t.Errorf("expected user 7, got %d", doc.UserID)
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestNewDocument_RequiresOwner(t *testing.T) {
	_, err := NewDocument(0, "content", nil, []float32{0.1}, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewDocument_RequiresContent(t *testing.T) {
	_, err := NewDocument(7, "   ", nil, []float32{0.1}, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewDocument_RequiresEmbedding(t *testing.T) {
	// Content and embedding are set together, never out of sync
	_, err := NewDocument(7, "content", nil, nil, nil)
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Errorf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestNewDocument_NilMetadata(t *testing.T) {
	doc, err := NewDocument(7, "content", nil, []float32{0.1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Metadata == nil {
		t.Error("expected metadata map to be initialized")
	}
}

func TestValidateGroupName(t *testing.T) {
	if err := ValidateGroupName("knowledge base"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateGroupName(""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty name, got %v", err)
	}
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateGroupName(string(long)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for oversized name, got %v", err)
	}
}

func TestRateLimitPolicy_Enabled(t *testing.T) {
	if (RateLimitPolicy{Capacity: 0, Rate: 1}).Enabled() {
		t.Error("zero capacity should disable the layer")
	}
	if !(RateLimitPolicy{Capacity: 5, Rate: 1}).Enabled() {
		t.Error("positive capacity should enable the layer")
	}
}

func TestBucketKeys(t *testing.T) {
	if got := GlobalBucketKey("rag_query"); got != "global_limit:rag_query" {
		t.Errorf("unexpected global key: %s", got)
	}
	if got := ClientBucketKey("rag_query", "1.2.3.4"); got != "rag_query:1.2.3.4" {
		t.Errorf("unexpected client key: %s", got)
	}
}
