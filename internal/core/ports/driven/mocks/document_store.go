package mocks

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// MockDocumentStore is an in-memory DocumentStore for testing. Its
// SearchSimilar is an exact brute-force cosine ranking with the same
// ordering contract as the real store: ascending distance, ties broken
// by ascending id.
type MockDocumentStore struct {
	mu     sync.Mutex
	nextID int64
	docs   map[int64]*domain.Document

	failNext error
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		nextID: 1,
		docs:   make(map[int64]*domain.Document),
	}
}

func (m *MockDocumentStore) Insert(ctx context.Context, doc *domain.Document) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeErr(); err != nil {
		return 0, err
	}

	stored := *doc
	stored.ID = m.nextID
	m.nextID++
	m.docs[stored.ID] = &stored
	return stored.ID, nil
}

func (m *MockDocumentStore) Get(ctx context.Context, userID, id int64) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok || doc.UserID != userID {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *MockDocumentStore) List(ctx context.Context, userID int64, limit, offset int, groupID *int64) ([]*domain.Document, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := m.filter(userID, groupID)
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *MockDocumentStore) ListByGroup(ctx context.Context, userID, groupID int64, includeEmbeddings bool) ([]*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := m.filter(userID, &groupID)
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	if !includeEmbeddings {
		for _, d := range matched {
			d.Embedding = nil
		}
	}
	return matched, nil
}

func (m *MockDocumentStore) Update(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.docs[doc.ID]
	if !ok || existing.UserID != doc.UserID {
		return domain.ErrNotFound
	}
	copied := *doc
	copied.UpdatedAt = time.Now()
	m.docs[doc.ID] = &copied
	return nil
}

func (m *MockDocumentStore) SetGroup(ctx context.Context, userID int64, groupID *int64, ids []int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	moved := 0
	for _, id := range ids {
		doc, ok := m.docs[id]
		if !ok || doc.UserID != userID {
			continue
		}
		doc.GroupID = groupID
		moved++
	}
	return moved, nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok || doc.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *MockDocumentStore) DeleteBatch(ctx context.Context, userID int64, ids []int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if doc, ok := m.docs[id]; ok && doc.UserID == userID {
			delete(m.docs, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MockDocumentStore) Count(ctx context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, doc := range m.docs {
		if doc.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *MockDocumentStore) SearchSimilar(ctx context.Context, q *domain.SearchQuery) ([]domain.SearchHit, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeErr(); err != nil {
		return nil, 0, err
	}

	var eligible []domain.SearchHit
	for _, doc := range m.docs {
		if doc.UserID != q.UserID {
			continue
		}
		if q.GroupID != nil && (doc.GroupID == nil || *doc.GroupID != *q.GroupID) {
			continue
		}
		dist := CosineDistance(q.Vector, doc.Embedding)
		if dist > q.DistanceThreshold {
			continue
		}
		eligible = append(eligible, domain.SearchHit{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
			Distance: dist,
		})
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Distance != eligible[j].Distance {
			return eligible[i].Distance < eligible[j].Distance
		}
		return eligible[i].ID < eligible[j].ID
	})

	total := len(eligible)
	if q.Offset >= len(eligible) {
		return []domain.SearchHit{}, total, nil
	}
	eligible = eligible[q.Offset:]
	if q.Limit < len(eligible) {
		eligible = eligible[:q.Limit]
	}
	return eligible, total, nil
}

// Helper methods for testing

// SetFailNext makes the next Insert or SearchSimilar return err
func (m *MockDocumentStore) SetFailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *MockDocumentStore) takeErr() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *MockDocumentStore) filter(userID int64, groupID *int64) []*domain.Document {
	var matched []*domain.Document
	for _, doc := range m.docs {
		if doc.UserID != userID {
			continue
		}
		if groupID != nil && (doc.GroupID == nil || *doc.GroupID != *groupID) {
			continue
		}
		copied := *doc
		matched = append(matched, &copied)
	}
	return matched
}

// CosineDistance computes 1 - cosine similarity, the same metric the
// pgvector <=> operator uses.
func CosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 2
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
