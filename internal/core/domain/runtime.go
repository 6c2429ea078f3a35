package domain

import "sync"

// RuntimeConfig tracks which gateways are available at runtime.
// AI services can be reconfigured through the settings API while the
// process is running, so the flags are dynamic. Thread-safe.
type RuntimeConfig struct {
	mu sync.RWMutex

	embeddingAvailable bool
	llmAvailable       bool
	defaultSimilarity  float64
}

// NewRuntimeConfig creates a new RuntimeConfig with no gateways available
func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{defaultSimilarity: DefaultSimilarity}
}

// DefaultSimilarity returns the similarity threshold applied when a
// caller states no preference. Reconfigurable through settings.
func (c *RuntimeConfig) DefaultSimilarity() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultSimilarity
}

// SetDefaultSimilarity updates the fallback similarity threshold
func (c *RuntimeConfig) SetDefaultSimilarity(similarity float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultSimilarity = similarity
}

// EmbeddingAvailable returns whether the embedding gateway is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// LLMAvailable returns whether the LLM gateway is available
func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llmAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetLLMAvailable updates the LLM availability flag
func (c *RuntimeConfig) SetLLMAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llmAvailable = available
}

// CanAnswer returns true if RAG completion is possible: both retrieval
// and generation need their gateways.
func (c *RuntimeConfig) CanAnswer() bool {
	return c.EmbeddingAvailable() && c.LLMAvailable()
}
