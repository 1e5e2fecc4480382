package embedding

import (
	"fmt"
	"time"

	"ragagent/config"
	"ragagent/internal/domain"
	"ragagent/internal/port"
)

// FromConfig builds the embedder selected by cfg.Provider. Ingestion and
// querying must both go through here so they share one embedding space.
func FromConfig(cfg config.EmbeddingConfig) (port.Embedder, error) {
	ec := Config{
		BaseURL:   cfg.BaseURL,
		APIKeyEnv: cfg.APIKeyEnv,
		Model:     cfg.Model,
		Dimension: cfg.Dimension,
		BatchSize: cfg.BatchSize,
		Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(ec)
	case "jina":
		return NewJinaEmbedder(ec)
	case "ollama":
		return NewOllamaEmbedder(ec)
	case "hash":
		return NewHashEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrModelUnavailable, cfg.Provider)
	}
}
