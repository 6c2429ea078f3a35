package postgres

import (
	"context"
	"database/sql"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore implements driven.SettingsStore using PostgreSQL.
// The configuration is a single row; the id = 1 check in the schema
// keeps it that way.
type SettingsStore struct {
	db *DB
}

// NewSettingsStore creates a new SettingsStore
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// GetSettings loads the stored settings
func (s *SettingsStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	query := `
		SELECT embedding_provider, embedding_model, embedding_api_key, embedding_base_url,
			   llm_provider, llm_model, llm_api_key, llm_base_url,
			   vector_dimension, default_similarity, system_prompt, updated_at
		FROM system_settings
		WHERE id = 1
	`

	var settings domain.Settings
	err := s.db.QueryRowContext(ctx, query).Scan(
		&settings.Embedding.Provider,
		&settings.Embedding.Model,
		&settings.Embedding.APIKey,
		&settings.Embedding.BaseURL,
		&settings.LLM.Provider,
		&settings.LLM.Model,
		&settings.LLM.APIKey,
		&settings.LLM.BaseURL,
		&settings.VectorDimension,
		&settings.DefaultSimilarity,
		&settings.SystemPrompt,
		&settings.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings upserts the settings row
func (s *SettingsStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	query := `
		INSERT INTO system_settings (id, embedding_provider, embedding_model, embedding_api_key, embedding_base_url,
									 llm_provider, llm_model, llm_api_key, llm_base_url,
									 vector_dimension, default_similarity, system_prompt, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			embedding_provider = EXCLUDED.embedding_provider,
			embedding_model = EXCLUDED.embedding_model,
			embedding_api_key = EXCLUDED.embedding_api_key,
			embedding_base_url = EXCLUDED.embedding_base_url,
			llm_provider = EXCLUDED.llm_provider,
			llm_model = EXCLUDED.llm_model,
			llm_api_key = EXCLUDED.llm_api_key,
			llm_base_url = EXCLUDED.llm_base_url,
			vector_dimension = EXCLUDED.vector_dimension,
			default_similarity = EXCLUDED.default_similarity,
			system_prompt = EXCLUDED.system_prompt,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		settings.Embedding.Provider,
		settings.Embedding.Model,
		settings.Embedding.APIKey,
		settings.Embedding.BaseURL,
		settings.LLM.Provider,
		settings.LLM.Model,
		settings.LLM.APIKey,
		settings.LLM.BaseURL,
		settings.VectorDimension,
		settings.DefaultSimilarity,
		settings.SystemPrompt,
		settings.UpdatedAt,
	)
	return err
}
