package domain

import (
	"errors"
	"math"
	"testing"
)

func TestNewSearchQuery_ThresholdInversion(t *testing.T) {
	testCases := []struct {
		similarity float64
		distance   float64
	}{
		{0.0, 1.0},
		{0.8, 0.2},
		{1.0, 0.0},
		{0.5, 0.5},
	}

	for _, tc := range testCases {
		q, err := NewSearchQuery(1, "query", []float32{1, 0}, SearchOptions{
			Similarity: tc.similarity,
			Limit:      10,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(q.DistanceThreshold-tc.distance) > 1e-9 {
			t.Errorf("similarity %v: expected distance %v, got %v", tc.similarity, tc.distance, q.DistanceThreshold)
		}
	}
}

func TestNewSearchQuery_Defaults(t *testing.T) {
	q, err := NewSearchQuery(1, "query", nil, SearchOptions{Similarity: -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit != DefaultSearchLimit {
		t.Errorf("expected default limit %d, got %d", DefaultSearchLimit, q.Limit)
	}
	if q.DistanceThreshold != 1-DefaultSimilarity {
		t.Errorf("expected default threshold %v, got %v", 1-DefaultSimilarity, q.DistanceThreshold)
	}
}

func TestNewSearchQuery_LimitCap(t *testing.T) {
	q, err := NewSearchQuery(1, "query", nil, SearchOptions{Limit: 10000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit != MaxSearchLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxSearchLimit, q.Limit)
	}
}

func TestNewSearchQuery_InvalidPagination(t *testing.T) {
	if _, err := NewSearchQuery(1, "q", nil, SearchOptions{Limit: -1}); !errors.Is(err, ErrInvalidPagination) {
		t.Errorf("expected ErrInvalidPagination for negative limit, got %v", err)
	}
	if _, err := NewSearchQuery(1, "q", nil, SearchOptions{Limit: 10, Offset: -1}); !errors.Is(err, ErrInvalidPagination) {
		t.Errorf("expected ErrInvalidPagination for negative offset, got %v", err)
	}
}

func TestNewSearchQuery_InvalidThreshold(t *testing.T) {
	if _, err := NewSearchQuery(1, "q", nil, SearchOptions{Similarity: 1.5}); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("expected ErrInvalidThreshold, got %v", err)
	}
}

func TestEmptySearchResult(t *testing.T) {
	r := EmptySearchResult()
	if r.Total != 0 || len(r.Hits) != 0 {
		t.Errorf("expected empty result, got %+v", r)
	}
	if r.Hits == nil {
		t.Error("expected non-nil hits slice for JSON rendering")
	}
}
