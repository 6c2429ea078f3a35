package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL with
// the pgvector extension. Every statement carries the user_id filter so
// tenant scoping is enforced at the row level, not in the service.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Insert stores a document with its embedding in a single statement
func (s *DocumentStore) Insert(ctx context.Context, doc *domain.Document) (int64, error) {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO documents (user_id, group_id, content, metadata, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err = s.db.QueryRowContext(ctx, query,
		doc.UserID,
		NullInt64(doc.GroupID),
		doc.Content,
		metadataJSON,
		pgvector.NewVector(doc.Embedding),
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get retrieves a document by ID within the user's scope
func (s *DocumentStore) Get(ctx context.Context, userID, id int64) (*domain.Document, error) {
	query := `
		SELECT id, user_id, group_id, content, metadata, embedding, created_at, updated_at
		FROM documents
		WHERE user_id = $1 AND id = $2
	`

	return s.scanDocument(s.db.QueryRowContext(ctx, query, userID, id))
}

// List returns a page of the user's documents plus the exact total
func (s *DocumentStore) List(ctx context.Context, userID int64, limit, offset int, groupID *int64) ([]*domain.Document, int, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}
	if groupID != nil {
		where += " AND group_id = $2"
		args = append(args, *groupID)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM documents " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, group_id, content, metadata, embedding, created_at, updated_at
		FROM documents
		%s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs, err := s.scanDocuments(rows)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// ListByGroup returns every document in a group ordered by ascending id
func (s *DocumentStore) ListByGroup(ctx context.Context, userID, groupID int64, includeEmbeddings bool) ([]*domain.Document, error) {
	query := `
		SELECT id, user_id, group_id, content, metadata, embedding, created_at, updated_at
		FROM documents
		WHERE user_id = $1 AND group_id = $2
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs, err := s.scanDocuments(rows)
	if err != nil {
		return nil, err
	}
	if !includeEmbeddings {
		for _, doc := range docs {
			doc.Embedding = nil
		}
	}
	return docs, nil
}

// Update rewrites content, metadata and embedding together
func (s *DocumentStore) Update(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET content = $3, metadata = $4, embedding = $5, group_id = $6, updated_at = $7
		WHERE user_id = $1 AND id = $2
	`

	result, err := s.db.ExecContext(ctx, query,
		doc.UserID,
		doc.ID,
		doc.Content,
		metadataJSON,
		pgvector.NewVector(doc.Embedding),
		NullInt64(doc.GroupID),
		doc.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRows(result)
}

// SetGroup moves documents into a group (nil groupID detaches)
func (s *DocumentStore) SetGroup(ctx context.Context, userID int64, groupID *int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE documents
		SET group_id = $2, updated_at = now()
		WHERE user_id = $1 AND id = ANY($3)
	`

	result, err := s.db.ExecContext(ctx, query, userID, NullInt64(groupID), pq.Array(ids))
	if err != nil {
		return 0, err
	}
	moved, err := result.RowsAffected()
	return int(moved), err
}

// Delete deletes one document within the user's scope
func (s *DocumentStore) Delete(ctx context.Context, userID, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	return requireRows(result)
}

// DeleteBatch deletes documents by id within the user's scope
func (s *DocumentStore) DeleteBatch(ctx context.Context, userID int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE user_id = $1 AND id = ANY($2)`, userID, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	removed, err := result.RowsAffected()
	return int(removed), err
}

// Count returns the user's total document count
func (s *DocumentStore) Count(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// SearchSimilar ranks the user's documents by cosine distance to the
// query vector. The ordering is part of the contract: ascending
// distance, ties broken by ascending id, so pagination is stable.
func (s *DocumentStore) SearchSimilar(ctx context.Context, q *domain.SearchQuery) ([]domain.SearchHit, int, error) {
	vec := pgvector.NewVector(q.Vector)

	where := "WHERE user_id = $1 AND (embedding <=> $2) <= $3"
	args := []any{q.UserID, vec, q.DistanceThreshold}
	if q.GroupID != nil {
		where += " AND group_id = $4"
		args = append(args, *q.GroupID)
	}

	// Exact total over the whole eligible set, not just this page
	var total int
	countQuery := "SELECT COUNT(*) FROM documents " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, content, metadata, embedding <=> $2 AS distance
		FROM documents
		%s
		ORDER BY distance ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	hits := []domain.SearchHit{}
	for rows.Next() {
		var hit domain.SearchHit
		var metadataJSON []byte

		if err := rows.Scan(&hit.ID, &hit.Content, &metadataJSON, &hit.Distance); err != nil {
			return nil, 0, err
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &hit.Metadata); err != nil {
				return nil, 0, err
			}
		}
		if hit.Metadata == nil {
			hit.Metadata = make(map[string]string)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return hits, total, nil
}

func (s *DocumentStore) scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var metadataJSON []byte
	var groupID sql.NullInt64
	var embedding pgvector.Vector

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&groupID,
		&doc.Content,
		&metadataJSON,
		&embedding,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc.GroupID = Int64Ptr(groupID)
	doc.Embedding = embedding.Slice()

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return nil, err
		}
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string)
	}

	return &doc, nil
}

func (s *DocumentStore) scanDocuments(rows *sql.Rows) ([]*domain.Document, error) {
	var docs []*domain.Document
	for rows.Next() {
		var doc domain.Document
		var metadataJSON []byte
		var groupID sql.NullInt64
		var embedding pgvector.Vector

		err := rows.Scan(
			&doc.ID,
			&doc.UserID,
			&groupID,
			&doc.Content,
			&metadataJSON,
			&embedding,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		doc.GroupID = Int64Ptr(groupID)
		doc.Embedding = embedding.Slice()

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
				return nil, err
			}
		}
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]string)
		}

		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// requireRows maps a zero-row write to domain.ErrNotFound
func requireRows(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
