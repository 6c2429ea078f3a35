package services

import (
	"context"
	"errors"
	"testing"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven/mocks"
	"github.com/vectoria-labs/vectoria-core/internal/runtime"
)

// createTestServices creates runtime services for testing
func createTestServices(embeddingService *mocks.MockEmbeddingService) *runtime.Services {
	services := runtime.NewServices(domain.NewRuntimeConfig())
	if embeddingService != nil {
		services.SetEmbeddingService(embeddingService)
	}
	return services
}

func ptr(v int64) *int64 { return &v }

// seedDocument inserts a document with an explicit embedding
func seedDocument(t *testing.T, store *mocks.MockDocumentStore, userID int64, groupID *int64, content string, embedding []float32) int64 {
	t.Helper()
	doc, err := domain.NewDocument(userID, content, nil, embedding, groupID)
	if err != nil {
		t.Fatalf("failed to build document: %v", err)
	}
	id, err := store.Insert(context.Background(), doc)
	if err != nil {
		t.Fatalf("failed to insert document: %v", err)
	}
	return id
}

func TestSearchService_TenantIsolation(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	embedding := mocks.NewMockEmbeddingService()
	svc := NewSearchService(store, createTestServices(embedding), nil)

	// Same direction, different owners: similarity alone must not leak
	// another tenant's document
	catVec := []float32{1, 0, 0, 0}
	embedding.SetVector("cat", catVec)

	id1 := seedDocument(t, store, 7, nil, "cat", catVec)
	seedDocument(t, store, 7, ptr(5), "dog", []float32{0, 1, 0, 0})
	seedDocument(t, store, 9, nil, "cat", catVec)

	result, err := svc.Search(context.Background(), 7, "cat", domain.SearchOptions{Similarity: 0.8, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Total != 1 || len(result.Hits) != 1 {
		t.Fatalf("expected exactly 1 hit, got %d (total %d)", len(result.Hits), result.Total)
	}
	if result.Hits[0].ID != id1 {
		t.Errorf("expected document %d, got %d", id1, result.Hits[0].ID)
	}
}

func TestSearchService_GroupScoping(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	embedding := mocks.NewMockEmbeddingService()
	svc := NewSearchService(store, createTestServices(embedding), nil)

	queryVec := []float32{1, 0}
	embedding.SetVector("query", queryVec)

	grouped := seedDocument(t, store, 7, ptr(5), "in group", queryVec)
	ungrouped := seedDocument(t, store, 7, nil, "no group", queryVec)

	// Scoped search sees only the group
	result, err := svc.SearchByGroup(context.Background(), 7, 5, "query", domain.SearchOptions{Similarity: 0.5, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Hits) != 1 || result.Hits[0].ID != grouped {
		t.Errorf("expected only grouped document, got %+v", result.Hits)
	}

	// Unscoped search sees grouped and ungrouped alike
	result, err = svc.Search(context.Background(), 7, "query", domain.SearchOptions{Similarity: 0.5, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(result.Hits))
	}
	ids := map[int64]bool{result.Hits[0].ID: true, result.Hits[1].ID: true}
	if !ids[grouped] || !ids[ungrouped] {
		t.Errorf("expected both documents, got %+v", result.Hits)
	}
}

func TestSearchService_Determinism(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	embedding := mocks.NewMockEmbeddingService()
	svc := NewSearchService(store, createTestServices(embedding), nil)

	queryVec := []float32{1, 0}
	embedding.SetVector("query", queryVec)

	// Three documents at identical distance: ordering must fall back to
	// ascending id and stay stable across runs
	for i := 0; i < 3; i++ {
		seedDocument(t, store, 7, nil, "same", queryVec)
	}
	seedDocument(t, store, 7, nil, "closer is not possible", []float32{0.9, 0.1})

	first, err := svc.Search(context.Background(), 7, "query", domain.SearchOptions{Similarity: 0.5, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := svc.Search(context.Background(), 7, "query", domain.SearchOptions{Similarity: 0.5, Limit: 10})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(again.Hits) != len(first.Hits) {
			t.Fatalf("result size changed between runs: %d vs %d", len(again.Hits), len(first.Hits))
		}
		for i := range first.Hits {
			if again.Hits[i].ID != first.Hits[i].ID {
				t.Fatalf("ordering changed between runs at position %d", i)
			}
		}
	}

	// Equal distances tie-break ascending by id
	for i := 1; i < 3; i++ {
		if first.Hits[i-1].Distance == first.Hits[i].Distance && first.Hits[i-1].ID > first.Hits[i].ID {
			t.Errorf("tie not broken by ascending id: %d before %d", first.Hits[i-1].ID, first.Hits[i].ID)
		}
	}
}

func TestSearchService_ThresholdMonotonicity(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	embedding := mocks.NewMockEmbeddingService()
	svc := NewSearchService(store, createTestServices(embedding), nil)

	queryVec := []float32{1, 0}
	embedding.SetVector("query", queryVec)

	// Spread of distances from 0 to ~1
	seedDocument(t, store, 7, nil, "exact", []float32{1, 0})
	seedDocument(t, store, 7, nil, "close", []float32{0.9, 0.2})
	seedDocument(t, store, 7, nil, "mid", []float32{0.5, 0.5})
	seedDocument(t, store, 7, nil, "far", []float32{0, 1})

	var previous map[int64]bool
	for _, similarity := range []float64{0.99, 0.7, 0.3, 0.01} {
		result, err := svc.Search(context.Background(), 7, "query", domain.SearchOptions{Similarity: similarity, Limit: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		current := make(map[int64]bool, len(result.Hits))
		for _, hit := range result.Hits {
			current[hit.ID] = true
		}
		// Looser thresholds must be supersets of stricter ones
		for id := range previous {
			if !current[id] {
				t.Errorf("similarity %v lost document %d present at a stricter threshold", similarity, id)
			}
		}
		previous = current
	}
}

func TestSearchService_PaginationConsistency(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	embedding := mocks.NewMockEmbeddingService()
	svc := NewSearchService(store, createTestServices(embedding), nil)

	queryVec := []float32{1, 0, 0}
	embedding.SetVector("query", queryVec)

	vectors := [][]float32{
		{1, 0, 0}, {0.9, 0.1, 0}, {0.9, 0.1, 0}, {0.8, 0.3, 0},
		{0.7, 0.4, 0}, {0.7, 0.4, 0}, {0.6, 0.5, 0},
	}
	for i, v := range vectors {
		seedDocument(t, store, 7, nil, "doc", v)
		_ = i
	}

	full, err := svc.Search(context.Background(), 7, "query", domain.SearchOptions{Similarity: 0.1, Limit: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full.Total != len(vectors) {
		t.Fatalf("expected total %d, got %d", len(vectors), full.Total)
	}

	// Concatenating pages must reproduce the unpaginated list exactly
	const pageSize = 3
	var paged []domain.SearchHit
	for offset := 0; offset < full.Total; offset += pageSize {
		page, err := svc.Search(context.Background(), 7, "query", domain.SearchOptions{Similarity: 0.1, Limit: pageSize, Offset: offset})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Total != full.Total {
			t.Errorf("page at offset %d reported total %d, want %d", offset, page.Total, full.Total)
		}
		paged = append(paged, page.Hits...)
	}

	if len(paged) != len(full.Hits) {
		t.Fatalf("paged concatenation has %d hits, want %d", len(paged), len(full.Hits))
	}
	for i := range full.Hits {
		if paged[i].ID != full.Hits[i].ID {
			t.Errorf("position %d: paged %d, unpaginated %d", i, paged[i].ID, full.Hits[i].ID)
		}
	}
}

func TestSearchService_EmbeddingFailureDegrades(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	embedding := mocks.NewMockEmbeddingService()
	svc := NewSearchService(store, createTestServices(embedding), nil)

	seedDocument(t, store, 7, nil, "content", []float32{1, 0})

	embedding.SetFailNext(true)
	result, err := svc.Search(context.Background(), 7, "query", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("expected graceful degradation, got error: %v", err)
	}
	if result.Total != 0 || len(result.Hits) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestSearchService_NoEmbeddingGateway(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	svc := NewSearchService(store, createTestServices(nil), nil)

	result, err := svc.Search(context.Background(), 7, "query", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("expected graceful degradation, got error: %v", err)
	}
	if result.Total != 0 || len(result.Hits) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestSearchService_ValidationFailsFast(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	embedding := mocks.NewMockEmbeddingService()
	svc := NewSearchService(store, createTestServices(embedding), nil)

	if _, err := svc.Search(context.Background(), 7, "q", domain.SearchOptions{Limit: -1}); !errors.Is(err, domain.ErrInvalidPagination) {
		t.Errorf("expected ErrInvalidPagination, got %v", err)
	}
	if _, err := svc.Search(context.Background(), 7, "q", domain.SearchOptions{Offset: -5, Limit: 10}); !errors.Is(err, domain.ErrInvalidPagination) {
		t.Errorf("expected ErrInvalidPagination, got %v", err)
	}
	if _, err := svc.Search(context.Background(), 7, "q", domain.SearchOptions{Similarity: 2, Limit: 10}); !errors.Is(err, domain.ErrInvalidThreshold) {
		t.Errorf("expected ErrInvalidThreshold, got %v", err)
	}
}

func TestSearchService_DistanceThresholdBoundary(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	embedding := mocks.NewMockEmbeddingService()
	svc := NewSearchService(store, createTestServices(embedding), nil)

	queryVec := []float32{1, 0}
	embedding.SetVector("cat", queryVec)

	inRange := seedDocument(t, store, 7, nil, "cat", queryVec)
	seedDocument(t, store, 7, ptr(5), "dog", []float32{0, 1}) // distance 1.0

	// similarity 0.8 -> distance threshold 0.2: only the identical
	// vector qualifies
	result, err := svc.Search(context.Background(), 7, "cat", domain.SearchOptions{Similarity: 0.8, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Hits) != 1 || result.Hits[0].ID != inRange {
		t.Fatalf("expected only the identical document, got %+v", result.Hits)
	}
	if result.Hits[0].Distance > 0.2 {
		t.Errorf("hit distance %v exceeds the 0.2 threshold", result.Hits[0].Distance)
	}
}
