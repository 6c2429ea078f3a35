package driving

import (
	"context"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
)

// UpdateDocumentRequest carries a partial document update. Nil fields are
// left untouched; a content change always forces re-embedding.
type UpdateDocumentRequest struct {
	Content  *string
	Metadata map[string]string
	GroupID  *int64
	// MoveGroup must be set for GroupID to be applied, so "no group
	// change" and "detach from group" stay distinguishable.
	MoveGroup bool
}

// DocumentService handles the document and group lifecycle for a tenant.
type DocumentService interface {
	// Add embeds content and stores document plus vector together.
	// groupName, when non-empty, is resolved with find-or-create.
	Add(ctx context.Context, userID int64, content string, metadata map[string]string, groupName string) (*domain.Document, error)

	// Get retrieves one document
	Get(ctx context.Context, userID, id int64) (*domain.Document, error)

	// List returns a page of documents plus the exact total
	List(ctx context.Context, userID int64, limit, offset int, groupID *int64) ([]*domain.Document, int, error)

	// Update applies a partial update, re-embedding on content change
	Update(ctx context.Context, userID, id int64, req UpdateDocumentRequest) (*domain.Document, error)

	// Delete removes one document
	Delete(ctx context.Context, userID, id int64) error

	// DeleteBatch removes documents by id, returning how many were removed
	DeleteBatch(ctx context.Context, userID int64, ids []int64) (int, error)

	// Count returns the user's total document count
	Count(ctx context.Context, userID int64) (int, error)

	// CreateGroup creates a named group
	CreateGroup(ctx context.Context, userID int64, name string) (*domain.DocumentGroup, error)

	// FindOrCreateGroup resolves a group by name, creating it if absent
	FindOrCreateGroup(ctx context.Context, userID int64, name string) (*domain.DocumentGroup, error)

	// ListGroups returns the user's groups with derived document counts
	ListGroups(ctx context.Context, userID int64) ([]domain.GroupWithCount, error)

	// RenameGroup renames a group; domain.ErrGroupNameTaken on conflict
	RenameGroup(ctx context.Context, userID, id int64, name string) (*domain.DocumentGroup, error)

	// DeleteGroup deletes a group, cascading to or detaching its
	// documents per mode. Returns the number of documents deleted.
	DeleteGroup(ctx context.Context, userID, id int64, mode domain.GroupDeleteMode) (int, error)

	// AssignToGroup moves documents into a group; nil groupID detaches.
	// Returns the number of owned documents that were moved.
	AssignToGroup(ctx context.Context, userID int64, groupID *int64, ids []int64) (int, error)

	// ExportGroup bundles a group's documents, optionally with vectors
	ExportGroup(ctx context.Context, userID, groupID int64, includeVectors bool) (*domain.GroupExport, error)

	// ImportGroup recreates a bundle under a fresh uniquely-named group.
	// Vectors are reused when useExistingVectors is set and present,
	// otherwise content is re-embedded. Returns the group and the
	// imported/failed counts.
	ImportGroup(ctx context.Context, userID int64, bundle *domain.GroupExport, useExistingVectors bool) (*domain.DocumentGroup, int, int, error)
}
