package services

import (
	"context"
	"errors"
	"testing"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven/mocks"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driving"
)

type documentFixture struct {
	docs      *mocks.MockDocumentStore
	groups    *mocks.MockGroupStore
	embedding *mocks.MockEmbeddingService
	svc       driving.DocumentService
}

func newDocumentFixture() *documentFixture {
	docs := mocks.NewMockDocumentStore()
	groups := mocks.NewMockGroupStore(docs)
	embedding := mocks.NewMockEmbeddingService()
	return &documentFixture{
		docs:      docs,
		groups:    groups,
		embedding: embedding,
		svc:       NewDocumentService(docs, groups, createTestServices(embedding), nil),
	}
}

func strptr(s string) *string { return &s }

func TestDocumentService_AddEmbedsContent(t *testing.T) {
	f := newDocumentFixture()
	f.embedding.SetVector("hello world", []float32{1, 0, 0})

	doc, err := f.svc.Add(context.Background(), 7, "hello world", map[string]string{"source": "test"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID == 0 {
		t.Error("expected assigned id")
	}

	stored, err := f.docs.Get(context.Background(), 7, doc.ID)
	if err != nil {
		t.Fatalf("document not stored: %v", err)
	}
	if len(stored.Embedding) == 0 {
		t.Error("document stored without embedding")
	}
	if stored.Embedding[0] != 1 {
		t.Errorf("stored embedding does not match the embedded content: %v", stored.Embedding)
	}
}

func TestDocumentService_AddWithGroupCreatesGroup(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Add(context.Background(), 7, "content", nil, "notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.GroupID == nil {
		t.Fatal("expected document assigned to a group")
	}

	group, err := f.groups.GetByName(context.Background(), 7, "notes")
	if err != nil {
		t.Fatalf("group was not created: %v", err)
	}
	if group.ID != *doc.GroupID {
		t.Errorf("document group %d does not match created group %d", *doc.GroupID, group.ID)
	}

	// A second add reuses the group instead of erroring on the name
	doc2, err := f.svc.Add(context.Background(), 7, "more content", nil, "notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *doc2.GroupID != group.ID {
		t.Errorf("expected reuse of group %d, got %d", group.ID, *doc2.GroupID)
	}
}

func TestDocumentService_AddFailsWithoutEmbedding(t *testing.T) {
	f := newDocumentFixture()
	f.embedding.SetFailNext(true)

	// Writes never proceed without a vector
	if _, err := f.svc.Add(context.Background(), 7, "content", nil, ""); err == nil {
		t.Fatal("expected error when embedding fails")
	}
	if count, _ := f.docs.Count(context.Background(), 7); count != 0 {
		t.Errorf("no document should be stored, got %d", count)
	}
}

func TestDocumentService_UpdateContentReembeds(t *testing.T) {
	f := newDocumentFixture()
	f.embedding.SetVector("old content", []float32{1, 0})
	f.embedding.SetVector("new content", []float32{0, 1})

	doc, err := f.svc.Add(context.Background(), 7, "old content", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := f.svc.Update(context.Background(), 7, doc.ID, driving.UpdateDocumentRequest{
		Content: strptr("new content"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Content != "new content" {
		t.Errorf("content not updated: %q", updated.Content)
	}
	if updated.Embedding[0] != 0 || updated.Embedding[1] != 1 {
		t.Errorf("embedding not refreshed with the new content: %v", updated.Embedding)
	}
}

func TestDocumentService_UpdateSameContentSkipsEmbed(t *testing.T) {
	f := newDocumentFixture()
	f.embedding.SetVector("content", []float32{1, 0})

	doc, err := f.svc.Add(context.Background(), 7, "content", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Unchanged content must not require the gateway
	f.embedding.SetFailNext(true)
	if _, err := f.svc.Update(context.Background(), 7, doc.ID, driving.UpdateDocumentRequest{
		Content:  strptr("content"),
		Metadata: map[string]string{"tag": "x"},
	}); err != nil {
		t.Fatalf("metadata-only update should not embed: %v", err)
	}
}

func TestDocumentService_UpdateRejectsForeignGroup(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Add(context.Background(), 7, "content", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other, err := f.groups.Create(context.Background(), 9, "their group")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.svc.Update(context.Background(), 7, doc.ID, driving.UpdateDocumentRequest{
		GroupID:   &other.ID,
		MoveGroup: true,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign group must surface as not found, got %v", err)
	}
}

func TestDocumentService_TenantScopedReads(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Add(context.Background(), 7, "content", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Another user's lookup of the same id is indistinguishable from absence
	if _, err := f.svc.Get(context.Background(), 9, doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign tenant, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), 9, doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), 7, doc.ID); err != nil {
		t.Errorf("document should survive a foreign delete attempt: %v", err)
	}
}

func TestDocumentService_DeleteBatch(t *testing.T) {
	f := newDocumentFixture()

	var ids []int64
	for i := 0; i < 3; i++ {
		doc, err := f.svc.Add(context.Background(), 7, "content", nil, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, doc.ID)
	}
	foreign, err := f.svc.Add(context.Background(), 9, "content", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Foreign ids are silently skipped, not an error
	removed, err := f.svc.DeleteBatch(context.Background(), 7, append(ids, foreign.ID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 removals, got %d", removed)
	}
	if _, err := f.svc.Get(context.Background(), 9, foreign.ID); err != nil {
		t.Errorf("foreign document must survive the batch: %v", err)
	}
}

func TestDocumentService_CreateGroupDuplicateName(t *testing.T) {
	f := newDocumentFixture()

	if _, err := f.svc.CreateGroup(context.Background(), 7, "notes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.CreateGroup(context.Background(), 7, "notes"); !errors.Is(err, domain.ErrGroupNameTaken) {
		t.Errorf("expected ErrGroupNameTaken, got %v", err)
	}

	// The same name is free for a different user
	if _, err := f.svc.CreateGroup(context.Background(), 9, "notes"); err != nil {
		t.Errorf("name uniqueness is per user, got %v", err)
	}
}

func TestDocumentService_RenameGroupConflict(t *testing.T) {
	f := newDocumentFixture()

	a, _ := f.svc.CreateGroup(context.Background(), 7, "alpha")
	if _, err := f.svc.CreateGroup(context.Background(), 7, "beta"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.RenameGroup(context.Background(), 7, a.ID, "beta"); !errors.Is(err, domain.ErrGroupNameTaken) {
		t.Errorf("expected ErrGroupNameTaken, got %v", err)
	}
	renamed, err := f.svc.RenameGroup(context.Background(), 7, a.ID, "gamma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if renamed.Name != "gamma" {
		t.Errorf("expected renamed group, got %q", renamed.Name)
	}
}

func TestDocumentService_DeleteGroupDetach(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Add(context.Background(), 7, "content", nil, "notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deleted, err := f.svc.DeleteGroup(context.Background(), 7, *doc.GroupID, domain.GroupDeleteDetach)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("detach should delete no documents, got %d", deleted)
	}

	survivor, err := f.svc.Get(context.Background(), 7, doc.ID)
	if err != nil {
		t.Fatalf("document should survive detach: %v", err)
	}
	if survivor.GroupID != nil {
		t.Errorf("expected cleared group id, got %v", *survivor.GroupID)
	}
}

func TestDocumentService_DeleteGroupCascade(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Add(context.Background(), 7, "content", nil, "notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outside, err := f.svc.Add(context.Background(), 7, "other", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deleted, err := f.svc.DeleteGroup(context.Background(), 7, *doc.GroupID, domain.GroupDeleteCascade)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 cascaded deletion, got %d", deleted)
	}
	if _, err := f.svc.Get(context.Background(), 7, doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("member document should be gone, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), 7, outside.ID); err != nil {
		t.Errorf("ungrouped document must survive the cascade: %v", err)
	}

	groups, err := f.svc.ListGroups(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("group should be gone after cascade, got %d groups", len(groups))
	}
}

func TestDocumentService_AssignToGroup(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Add(context.Background(), 7, "content", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	group, err := f.svc.CreateGroup(context.Background(), 7, "notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	moved, err := f.svc.AssignToGroup(context.Background(), 7, &group.ID, []int64{doc.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved != 1 {
		t.Errorf("expected 1 moved, got %d", moved)
	}

	// nil group detaches
	moved, err = f.svc.AssignToGroup(context.Background(), 7, nil, []int64{doc.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved != 1 {
		t.Errorf("expected 1 detached, got %d", moved)
	}
	got, _ := f.svc.Get(context.Background(), 7, doc.ID)
	if got.GroupID != nil {
		t.Errorf("expected detached document, got group %v", *got.GroupID)
	}
}

func TestDocumentService_ExportImportRoundTrip(t *testing.T) {
	f := newDocumentFixture()
	f.embedding.SetVector("first", []float32{1, 0})
	f.embedding.SetVector("second", []float32{0, 1})

	doc, err := f.svc.Add(context.Background(), 7, "first", map[string]string{"k": "v"}, "notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Add(context.Background(), 7, "second", nil, "notes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bundle, err := f.svc.ExportGroup(context.Background(), 7, *doc.GroupID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Version != domain.ExportVersion {
		t.Errorf("expected version %q, got %q", domain.ExportVersion, bundle.Version)
	}
	if len(bundle.Documents) != 2 {
		t.Fatalf("expected 2 exported documents, got %d", len(bundle.Documents))
	}
	if !bundle.IncludesVectors || len(bundle.Documents[0].Embedding) == 0 {
		t.Error("expected vectors in the bundle")
	}

	// Import for another user with the stored vectors
	group, imported, failed, err := f.svc.ImportGroup(context.Background(), 9, bundle, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if imported != 2 || failed != 0 {
		t.Errorf("expected 2 imported / 0 failed, got %d / %d", imported, failed)
	}
	if group.Name != "notes" {
		t.Errorf("expected imported group name %q, got %q", "notes", group.Name)
	}

	docs, err := f.docs.ListByGroup(context.Background(), 9, group.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents under the imported group, got %d", len(docs))
	}
	for _, d := range docs {
		if len(d.Embedding) == 0 {
			t.Error("imported document lost its embedding")
		}
	}
}

func TestDocumentService_ImportSuffixesTakenName(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Add(context.Background(), 7, "content", nil, "notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bundle, err := f.svc.ExportGroup(context.Background(), 7, *doc.GroupID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Importing into the same user collides with the original name
	group, _, _, err := f.svc.ImportGroup(context.Background(), 7, bundle, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if group.Name != "notes (1)" {
		t.Errorf("expected suffixed name %q, got %q", "notes (1)", group.Name)
	}

	group, _, _, err = f.svc.ImportGroup(context.Background(), 7, bundle, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if group.Name != "notes (2)" {
		t.Errorf("expected suffixed name %q, got %q", "notes (2)", group.Name)
	}
}

func TestDocumentService_ImportRejectsUnknownVersion(t *testing.T) {
	f := newDocumentFixture()

	bundle := &domain.GroupExport{Version: "2.0", GroupName: "notes", Documents: []domain.ExportedDocument{{Content: "x"}}}
	if _, _, _, err := f.svc.ImportGroup(context.Background(), 7, bundle, false); !errors.Is(err, domain.ErrUnsupportedExport) {
		t.Errorf("expected ErrUnsupportedExport, got %v", err)
	}
	if _, _, _, err := f.svc.ImportGroup(context.Background(), 7, nil, false); !errors.Is(err, domain.ErrUnsupportedExport) {
		t.Errorf("expected ErrUnsupportedExport for nil bundle, got %v", err)
	}
}

func TestDocumentService_ImportReembedsWithoutVectors(t *testing.T) {
	f := newDocumentFixture()

	bundle := &domain.GroupExport{
		Version:   domain.ExportVersion,
		GroupName: "restored",
		Documents: []domain.ExportedDocument{
			{Content: "keep me"},
			{Content: "   "}, // blank content is counted as failed
		},
	}

	group, imported, failed, err := f.svc.ImportGroup(context.Background(), 7, bundle, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if imported != 1 || failed != 1 {
		t.Errorf("expected 1 imported / 1 failed, got %d / %d", imported, failed)
	}

	docs, err := f.docs.ListByGroup(context.Background(), 7, group.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || len(docs[0].Embedding) == 0 {
		t.Fatalf("expected 1 re-embedded document, got %+v", docs)
	}
}

func TestDocumentService_ListGroupsCounts(t *testing.T) {
	f := newDocumentFixture()

	if _, err := f.svc.Add(context.Background(), 7, "a", nil, "notes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Add(context.Background(), 7, "b", nil, "notes"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.CreateGroup(context.Background(), 7, "empty"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	groups, err := f.svc.ListGroups(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	counts := map[string]int{}
	for _, g := range groups {
		counts[g.Name] = g.DocumentCount
	}
	if counts["notes"] != 2 || counts["empty"] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
