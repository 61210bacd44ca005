package config

import (
	"fmt"
	"time"
)

// EmbeddingConfig defines configuration for the text embedding provider.
type EmbeddingConfig struct {
	Provider   string        `mapstructure:"provider"`   // Provider type: "openai", "jina"
	Model      string        `mapstructure:"model"`      // Model name/ID
	APIKey     string        `mapstructure:"api_key"`    // API key (set directly or via OPENAI_API_KEY)
	BaseURL    string        `mapstructure:"base_url"`   // Base URL for OpenAI-compatible APIs
	Dimensions int           `mapstructure:"dimensions"` // Embedding vector dimensions
	Timeout    time.Duration `mapstructure:"timeout"`
	CacheSize  int           `mapstructure:"cache_size"` // Label-text embedding LRU size; 0 disables
}

// Validate checks that the embedding configuration has all required fields.
// Returns an error describing the first validation failure, or nil if valid.
func (c *EmbeddingConfig) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("embedding: provider is required")
	}
	if c.Model == "" {
		return fmt.Errorf("embedding %q: model is required", c.Provider)
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("embedding %q: dimensions must be positive", c.Provider)
	}

	switch c.Provider {
	case "openai", "jina":
	default:
		return fmt.Errorf("embedding: unknown provider %q", c.Provider)
	}

	return nil
}

// Enabled reports whether embedding calls can be made at all.
// Without an API key the evaluation falls back to lexical scoring.
func (c *EmbeddingConfig) Enabled() bool {
	return c.APIKey != ""
}
