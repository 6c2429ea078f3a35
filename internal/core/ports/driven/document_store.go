package driven

import (
	"context"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// DocumentStore handles document persistence and vector ranking
// (PostgreSQL + pgvector). Every operation is tenant-scoped: rows owned
// by other users behave as if they do not exist.
type DocumentStore interface {
	// Insert stores a document with its embedding and returns the new id
	Insert(ctx context.Context, doc *domain.Document) (int64, error)

	// Get retrieves a document by id within the user's scope
	Get(ctx context.Context, userID, id int64) (*domain.Document, error)

	// List returns a page of the user's documents (newest id first) plus
	// the exact total under the same filter
	List(ctx context.Context, userID int64, limit, offset int, groupID *int64) ([]*domain.Document, int, error)

	// ListByGroup returns every document in a group ordered by ascending
	// id, optionally including embeddings (used by group export)
	ListByGroup(ctx context.Context, userID, groupID int64, includeEmbeddings bool) ([]*domain.Document, error)

	// Update rewrites content, metadata and embedding together. A nil
	// embedding is rejected when content changes: the two never drift.
	Update(ctx context.Context, doc *domain.Document) error

	// SetGroup moves documents into a group (nil detaches) and returns
	// how many rows the user actually owned
	SetGroup(ctx context.Context, userID int64, groupID *int64, ids []int64) (int, error)

	// Delete deletes one document within the user's scope
	Delete(ctx context.Context, userID, id int64) error

	// DeleteBatch deletes documents by id within the user's scope and
	// returns the number removed
	DeleteBatch(ctx context.Context, userID int64, ids []int64) (int, error)

	// Count returns the user's total document count
	Count(ctx context.Context, userID int64) (int, error)

	// SearchSimilar ranks the user's documents by cosine distance to the
	// query vector. Only rows with distance <= threshold are eligible;
	// ordering is ascending distance with ties broken by ascending id.
	// The int return is the exact total across the whole filtered set.
	SearchSimilar(ctx context.Context, q *domain.SearchQuery) ([]domain.SearchHit, int, error)
}

// GroupStore handles document group persistence (PostgreSQL).
type GroupStore interface {
	// Create inserts a group; domain.ErrGroupNameTaken on (user, name) conflict
	Create(ctx context.Context, userID int64, name string) (*domain.DocumentGroup, error)

	// Get retrieves a group by id within the user's scope
	Get(ctx context.Context, userID, id int64) (*domain.DocumentGroup, error)

	// GetByName retrieves a group by name within the user's scope
	GetByName(ctx context.Context, userID int64, name string) (*domain.DocumentGroup, error)

	// List returns the user's groups with derived document counts,
	// newest first
	List(ctx context.Context, userID int64) ([]domain.GroupWithCount, error)

	// Rename changes a group's name; domain.ErrGroupNameTaken on conflict
	Rename(ctx context.Context, userID, id int64, name string) error

	// Delete removes the group row only; detached member documents keep
	// existing with a cleared group id
	Delete(ctx context.Context, userID, id int64) error

	// DeleteCascade removes the group and every member document in one
	// atomic operation, returning the number of documents removed
	DeleteCascade(ctx context.Context, userID, id int64) (int, error)
}
