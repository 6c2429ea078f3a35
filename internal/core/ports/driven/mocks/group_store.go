package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// MockGroupStore is an in-memory GroupStore for testing. It shares the
// document store so derived counts behave like the real schema.
type MockGroupStore struct {
	mu     sync.Mutex
	nextID int64
	groups map[int64]*domain.DocumentGroup
	docs   *MockDocumentStore
}

// NewMockGroupStore creates a new MockGroupStore backed by docs
func NewMockGroupStore(docs *MockDocumentStore) *MockGroupStore {
	return &MockGroupStore{
		nextID: 1,
		groups: make(map[int64]*domain.DocumentGroup),
		docs:   docs,
	}
}

func (m *MockGroupStore) Create(ctx context.Context, userID int64, name string) (*domain.DocumentGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, g := range m.groups {
		if g.UserID == userID && g.Name == name {
			return nil, domain.ErrGroupNameTaken
		}
	}

	group := &domain.DocumentGroup{
		ID:        m.nextID,
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.groups[group.ID] = group
	copied := *group
	return &copied, nil
}

func (m *MockGroupStore) Get(ctx context.Context, userID, id int64) (*domain.DocumentGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, ok := m.groups[id]
	if !ok || group.UserID != userID {
		return nil, domain.ErrNotFound
	}
	copied := *group
	return &copied, nil
}

func (m *MockGroupStore) GetByName(ctx context.Context, userID int64, name string) (*domain.DocumentGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, g := range m.groups {
		if g.UserID == userID && g.Name == name {
			copied := *g
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockGroupStore) List(ctx context.Context, userID int64) ([]domain.GroupWithCount, error) {
	m.mu.Lock()
	var matched []domain.DocumentGroup
	for _, g := range m.groups {
		if g.UserID == userID {
			matched = append(matched, *g)
		}
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	result := make([]domain.GroupWithCount, 0, len(matched))
	for _, g := range matched {
		count, _ := m.countDocuments(g.ID)
		result = append(result, domain.GroupWithCount{DocumentGroup: g, DocumentCount: count})
	}
	return result, nil
}

func (m *MockGroupStore) Rename(ctx context.Context, userID, id int64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, ok := m.groups[id]
	if !ok || group.UserID != userID {
		return domain.ErrNotFound
	}
	for _, g := range m.groups {
		if g.UserID == userID && g.Name == name && g.ID != id {
			return domain.ErrGroupNameTaken
		}
	}
	group.Name = name
	return nil
}

func (m *MockGroupStore) Delete(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, ok := m.groups[id]
	if !ok || group.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.groups, id)
	return nil
}

func (m *MockGroupStore) DeleteCascade(ctx context.Context, userID, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, ok := m.groups[id]
	if !ok || group.UserID != userID {
		return 0, domain.ErrNotFound
	}

	removed := 0
	if m.docs != nil {
		m.docs.mu.Lock()
		for docID, doc := range m.docs.docs {
			if doc.UserID == userID && doc.GroupID != nil && *doc.GroupID == id {
				delete(m.docs.docs, docID)
				removed++
			}
		}
		m.docs.mu.Unlock()
	}
	delete(m.groups, id)
	return removed, nil
}

func (m *MockGroupStore) countDocuments(groupID int64) (int, error) {
	if m.docs == nil {
		return 0, nil
	}
	m.docs.mu.Lock()
	defer m.docs.mu.Unlock()

	count := 0
	for _, doc := range m.docs.docs {
		if doc.GroupID != nil && *doc.GroupID == groupID {
			count++
		}
	}
	return count, nil
}
