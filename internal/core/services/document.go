package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driving"
	"github.com/vectoria-labs/vectoria-core/internal/runtime"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService owns the document and group lifecycle. It is the only
// writer of documents, which is how the content/embedding sync invariant
// and the group ownership invariant are enforced on every mutation.
type documentService struct {
	documentStore driven.DocumentStore
	groupStore    driven.GroupStore
	services      *runtime.Services
	logger        *slog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documentStore driven.DocumentStore,
	groupStore driven.GroupStore,
	services *runtime.Services,
	logger *slog.Logger,
) driving.DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{
		documentStore: documentStore,
		groupStore:    groupStore,
		services:      services,
		logger:        logger,
	}
}

// Add embeds content and stores document plus vector together
func (s *documentService) Add(ctx context.Context, userID int64, content string, metadata map[string]string, groupName string) (*domain.Document, error) {
	var groupID *int64
	if groupName != "" {
		group, err := s.FindOrCreateGroup(ctx, userID, groupName)
		if err != nil {
			return nil, err
		}
		groupID = &group.ID
	}

	embedding, err := s.embed(ctx, content)
	if err != nil {
		return nil, err
	}

	doc, err := domain.NewDocument(userID, content, metadata, embedding, groupID)
	if err != nil {
		return nil, err
	}

	id, err := s.documentStore.Insert(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = id
	return doc, nil
}

// Get retrieves one document
func (s *documentService) Get(ctx context.Context, userID, id int64) (*domain.Document, error) {
	return s.documentStore.Get(ctx, userID, id)
}

// List returns a page of documents plus the exact total
func (s *documentService) List(ctx context.Context, userID int64, limit, offset int, groupID *int64) ([]*domain.Document, int, error) {
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	if limit > domain.MaxSearchLimit {
		limit = domain.MaxSearchLimit
	}
	if offset < 0 {
		return nil, 0, domain.ErrInvalidPagination
	}
	return s.documentStore.List(ctx, userID, limit, offset, groupID)
}

// Update applies a partial update; a content change re-embeds before the
// row is written so content and embedding never drift apart.
func (s *documentService) Update(ctx context.Context, userID, id int64, req driving.UpdateDocumentRequest) (*domain.Document, error) {
	doc, err := s.documentStore.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Content != nil && strings.TrimSpace(*req.Content) != doc.Content {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, domain.ErrInvalidInput
		}
		embedding, err := s.embed(ctx, content)
		if err != nil {
			return nil, err
		}
		doc.Content = content
		doc.Embedding = embedding
	}

	if req.Metadata != nil {
		doc.Metadata = req.Metadata
	}

	if req.MoveGroup {
		if req.GroupID != nil {
			// Group must belong to the same user
			if _, err := s.groupStore.Get(ctx, userID, *req.GroupID); err != nil {
				return nil, err
			}
		}
		doc.GroupID = req.GroupID
	}

	doc.UpdatedAt = time.Now()
	if err := s.documentStore.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes one document
func (s *documentService) Delete(ctx context.Context, userID, id int64) error {
	return s.documentStore.Delete(ctx, userID, id)
}

// DeleteBatch removes documents by id, returning how many were removed
func (s *documentService) DeleteBatch(ctx context.Context, userID int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.documentStore.DeleteBatch(ctx, userID, ids)
}

// Count returns the user's total document count
func (s *documentService) Count(ctx context.Context, userID int64) (int, error) {
	return s.documentStore.Count(ctx, userID)
}

// CreateGroup creates a named group
func (s *documentService) CreateGroup(ctx context.Context, userID int64, name string) (*domain.DocumentGroup, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateGroupName(name); err != nil {
		return nil, err
	}
	return s.groupStore.Create(ctx, userID, name)
}

// FindOrCreateGroup resolves a group by name, creating it if absent
func (s *documentService) FindOrCreateGroup(ctx context.Context, userID int64, name string) (*domain.DocumentGroup, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateGroupName(name); err != nil {
		return nil, err
	}

	group, err := s.groupStore.GetByName(ctx, userID, name)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	group, err = s.groupStore.Create(ctx, userID, name)
	if errors.Is(err, domain.ErrGroupNameTaken) {
		// Lost a create race; the group exists now
		return s.groupStore.GetByName(ctx, userID, name)
	}
	return group, err
}

// ListGroups returns the user's groups with derived document counts
func (s *documentService) ListGroups(ctx context.Context, userID int64) ([]domain.GroupWithCount, error) {
	return s.groupStore.List(ctx, userID)
}

// RenameGroup renames a group; domain.ErrGroupNameTaken on conflict
func (s *documentService) RenameGroup(ctx context.Context, userID, id int64, name string) (*domain.DocumentGroup, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateGroupName(name); err != nil {
		return nil, err
	}
	if err := s.groupStore.Rename(ctx, userID, id, name); err != nil {
		return nil, err
	}
	return s.groupStore.Get(ctx, userID, id)
}

// DeleteGroup deletes a group, cascading to or detaching its documents
func (s *documentService) DeleteGroup(ctx context.Context, userID, id int64, mode domain.GroupDeleteMode) (int, error) {
	// Ownership check before any document mutation
	if _, err := s.groupStore.Get(ctx, userID, id); err != nil {
		return 0, err
	}

	if mode == domain.GroupDeleteCascade {
		// Documents and group go together or not at all
		return s.groupStore.DeleteCascade(ctx, userID, id)
	}

	// Detach: member documents survive with a cleared group id
	docs, err := s.documentStore.ListByGroup(ctx, userID, id, false)
	if err != nil {
		return 0, err
	}
	if len(docs) > 0 {
		ids := make([]int64, len(docs))
		for i, d := range docs {
			ids[i] = d.ID
		}
		if _, err := s.documentStore.SetGroup(ctx, userID, nil, ids); err != nil {
			return 0, err
		}
	}

	if err := s.groupStore.Delete(ctx, userID, id); err != nil {
		return 0, err
	}
	return 0, nil
}

// AssignToGroup moves documents into a group; nil groupID detaches
func (s *documentService) AssignToGroup(ctx context.Context, userID int64, groupID *int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if groupID != nil {
		if _, err := s.groupStore.Get(ctx, userID, *groupID); err != nil {
			return 0, err
		}
	}
	return s.documentStore.SetGroup(ctx, userID, groupID, ids)
}

// ExportGroup bundles a group's documents, optionally with vectors
func (s *documentService) ExportGroup(ctx context.Context, userID, groupID int64, includeVectors bool) (*domain.GroupExport, error) {
	group, err := s.groupStore.Get(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	docs, err := s.documentStore.ListByGroup(ctx, userID, groupID, includeVectors)
	if err != nil {
		return nil, err
	}

	export := &domain.GroupExport{
		Version:         domain.ExportVersion,
		GroupName:       group.Name,
		ExportedAt:      time.Now().UTC(),
		IncludesVectors: includeVectors,
		Documents:       make([]domain.ExportedDocument, 0, len(docs)),
	}

	for _, doc := range docs {
		exported := domain.ExportedDocument{
			Content:  doc.Content,
			Metadata: doc.Metadata,
		}
		if includeVectors {
			exported.Embedding = doc.Embedding
		}
		export.Documents = append(export.Documents, exported)
	}

	if includeVectors {
		if embeddingService := s.services.EmbeddingService(); embeddingService != nil {
			export.EmbeddingModel = embeddingService.Model()
			export.VectorDimension = embeddingService.Dimensions()
		}
	}

	return export, nil
}

// ImportGroup recreates a bundle under a fresh uniquely-named group
func (s *documentService) ImportGroup(ctx context.Context, userID int64, bundle *domain.GroupExport, useExistingVectors bool) (*domain.DocumentGroup, int, int, error) {
	if bundle == nil || bundle.Version != domain.ExportVersion {
		return nil, 0, 0, domain.ErrUnsupportedExport
	}
	if len(bundle.Documents) == 0 {
		return nil, 0, 0, domain.ErrInvalidInput
	}

	baseName := bundle.GroupName
	if strings.TrimSpace(baseName) == "" {
		baseName = "Imported Group"
	}
	name, err := s.uniqueGroupName(ctx, userID, baseName)
	if err != nil {
		return nil, 0, 0, err
	}

	group, err := s.groupStore.Create(ctx, userID, name)
	if err != nil {
		return nil, 0, 0, err
	}

	imported, failed := 0, 0
	for _, docData := range bundle.Documents {
		if strings.TrimSpace(docData.Content) == "" {
			failed++
			continue
		}

		embedding := docData.Embedding
		if !useExistingVectors || len(embedding) == 0 {
			embedding, err = s.embed(ctx, docData.Content)
			if err != nil {
				s.logger.Warn("skipping document during import, embedding failed",
					"group_id", group.ID,
					"error", err,
				)
				failed++
				continue
			}
		}

		doc, err := domain.NewDocument(userID, docData.Content, docData.Metadata, embedding, &group.ID)
		if err != nil {
			failed++
			continue
		}
		if _, err := s.documentStore.Insert(ctx, doc); err != nil {
			failed++
			continue
		}
		imported++
	}

	return group, imported, failed, nil
}

// uniqueGroupName suffixes "(n)" onto base until the name is free for
// this user.
func (s *documentService) uniqueGroupName(ctx context.Context, userID int64, base string) (string, error) {
	if _, err := s.groupStore.GetByName(ctx, userID, base); errors.Is(err, domain.ErrNotFound) {
		return base, nil
	} else if err != nil {
		return "", err
	}

	for counter := 1; counter <= 1000; counter++ {
		candidate := fmt.Sprintf("%s (%d)", base, counter)
		if _, err := s.groupStore.GetByName(ctx, userID, candidate); errors.Is(err, domain.ErrNotFound) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("too many groups named %q: %w", base, domain.ErrGroupNameTaken)
}

// embed resolves a content vector through the dynamic gateway. Document
// writes never proceed without one.
func (s *documentService) embed(ctx context.Context, content string) ([]float32, error) {
	embeddingService := s.services.EmbeddingService()
	if embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	embedding, err := embeddingService.EmbedQuery(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(embedding) == 0 {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return embedding, nil
}
