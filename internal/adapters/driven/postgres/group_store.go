package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven"
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations, raised by the (user_id, name) constraint.
const uniqueViolation = "23505"

// Verify interface compliance
var _ driven.GroupStore = (*GroupStore)(nil)

// GroupStore implements driven.GroupStore using PostgreSQL
type GroupStore struct {
	db *DB
}

// NewGroupStore creates a new GroupStore
func NewGroupStore(db *DB) *GroupStore {
	return &GroupStore{db: db}
}

// Create inserts a group; domain.ErrGroupNameTaken on name conflict
func (s *GroupStore) Create(ctx context.Context, userID int64, name string) (*domain.DocumentGroup, error) {
	group := &domain.DocumentGroup{
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now(),
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO document_groups (user_id, name, created_at) VALUES ($1, $2, $3) RETURNING id`,
		userID, name, group.CreatedAt,
	).Scan(&group.ID)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return group, nil
}

// Get retrieves a group by ID within the user's scope
func (s *GroupStore) Get(ctx context.Context, userID, id int64) (*domain.DocumentGroup, error) {
	return s.scanGroup(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM document_groups WHERE user_id = $1 AND id = $2`,
		userID, id))
}

// GetByName retrieves a group by name within the user's scope
func (s *GroupStore) GetByName(ctx context.Context, userID int64, name string) (*domain.DocumentGroup, error) {
	return s.scanGroup(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM document_groups WHERE user_id = $1 AND name = $2`,
		userID, name))
}

// List returns the user's groups with derived document counts
func (s *GroupStore) List(ctx context.Context, userID int64) ([]domain.GroupWithCount, error) {
	query := `
		SELECT g.id, g.user_id, g.name, g.created_at, COUNT(d.id)
		FROM document_groups g
		LEFT JOIN documents d ON d.group_id = g.id
		WHERE g.user_id = $1
		GROUP BY g.id
		ORDER BY g.id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []domain.GroupWithCount{}
	for rows.Next() {
		var g domain.GroupWithCount
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.CreatedAt, &g.DocumentCount); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// Rename changes a group's name; domain.ErrGroupNameTaken on conflict
func (s *GroupStore) Rename(ctx context.Context, userID, id int64, name string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE document_groups SET name = $3 WHERE user_id = $1 AND id = $2`,
		userID, id, name)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return requireRows(result)
}

// Delete removes the group row only. The documents.group_id foreign key
// is ON DELETE SET NULL, so members are detached by the database.
func (s *GroupStore) Delete(ctx context.Context, userID, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM document_groups WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	return requireRows(result)
}

// DeleteCascade removes the group's documents and then the group row in
// a single transaction, so a failure leaves both intact.
func (s *GroupStore) DeleteCascade(ctx context.Context, userID, id int64) (int, error) {
	deleted := 0
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE user_id = $1 AND group_id = $2`, userID, id)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		deleted = int(n)

		result, err = tx.ExecContext(ctx,
			`DELETE FROM document_groups WHERE user_id = $1 AND id = $2`, userID, id)
		if err != nil {
			return err
		}
		return requireRows(result)
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *GroupStore) scanGroup(row *sql.Row) (*domain.DocumentGroup, error) {
	var group domain.DocumentGroup
	err := row.Scan(&group.ID, &group.UserID, &group.Name, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrGroupNameTaken
	}
	return err
}
