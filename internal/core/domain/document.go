package domain

import (
	"strings"
	"time"
)

// Document is an immutable content unit owned by exactly one user.
// Content and embedding are always written together: the embedding is
// derived data and is never settable independently of the content.
type Document struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	GroupID   *int64            `json:"group_id,omitempty"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata"`
	Embedding []float32         `json:"embedding,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewDocument builds a document with its freshly computed embedding and
// validates the ownership invariants.
func NewDocument(userID int64, content string, metadata map[string]string, embedding []float32, groupID *int64) (*Document, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}
	if len(embedding) == 0 {
		return nil, ErrEmbeddingUnavailable
	}
	if metadata == nil {
		metadata = make(map[string]string)
	}
	now := time.Now()
	return &Document{
		UserID:    userID,
		GroupID:   groupID,
		Content:   content,
		Metadata:  metadata,
		Embedding: embedding,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DocumentGroup is a named partition of a user's documents.
// (UserID, Name) is unique; the document count is derived, never stored.
type DocumentGroup struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupWithCount pairs a group with its derived document count for listings.
type GroupWithCount struct {
	DocumentGroup
	DocumentCount int `json:"document_count"`
}

// ValidateGroupName checks a group name for emptiness and length.
func ValidateGroupName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return ErrInvalidInput
	}
	return nil
}

// GroupDeleteMode selects what happens to member documents when a group
// is deleted.
type GroupDeleteMode int

const (
	// GroupDeleteDetach keeps the documents and clears their group id
	GroupDeleteDetach GroupDeleteMode = iota

	// GroupDeleteCascade deletes all member documents with the group
	GroupDeleteCascade
)

// GroupExport is the portable bundle produced by a group export.
type GroupExport struct {
	Version         string             `json:"version"`
	GroupName       string             `json:"groupName"`
	ExportedAt      time.Time          `json:"exportedAt"`
	IncludesVectors bool               `json:"includesVectors"`
	EmbeddingModel  string             `json:"embeddingModel,omitempty"`
	VectorDimension int                `json:"vectorDimension,omitempty"`
	Documents       []ExportedDocument `json:"documents"`
}

// ExportedDocument is a single document inside a GroupExport.
type ExportedDocument struct {
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata"`
	Embedding []float32         `json:"embedding,omitempty"`
}

// ExportVersion is the only bundle version the importer accepts.
const ExportVersion = "1.0"
