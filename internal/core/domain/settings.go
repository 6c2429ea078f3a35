package domain

import "time"

// DefaultVectorDimension is the system-wide embedding dimension.
// Changing it requires a full reindex and is an administrative
// operation, never part of the hot path.
const DefaultVectorDimension = 1024

// GatewaySettings configures one OpenAI-compatible AI gateway.
type GatewaySettings struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"-"` // never serialized back to clients
	BaseURL  string `json:"base_url"`
}

// IsConfigured returns true if enough is present to build the gateway
func (g GatewaySettings) IsConfigured() bool {
	return g.Provider != "" && g.APIKey != ""
}

// Settings is the persisted runtime configuration: AI gateway wiring and
// the retrieval defaults applied when a caller states no preference.
type Settings struct {
	Embedding GatewaySettings `json:"embedding"`
	LLM       GatewaySettings `json:"llm"`

	VectorDimension   int     `json:"vector_dimension"`
	DefaultSimilarity float64 `json:"default_similarity"`
	SystemPrompt      string  `json:"system_prompt"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings returns the baseline configuration
func DefaultSettings() *Settings {
	return &Settings{
		VectorDimension:   DefaultVectorDimension,
		DefaultSimilarity: DefaultSimilarity,
		SystemPrompt:      DefaultRAGSystemPrompt,
	}
}

// Validate checks the tunable ranges.
func (s *Settings) Validate() error {
	if s.VectorDimension <= 0 {
		return ErrInvalidInput
	}
	if s.DefaultSimilarity < 0 || s.DefaultSimilarity > 1 {
		return ErrInvalidThreshold
	}
	return nil
}
