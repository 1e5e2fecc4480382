package llm

import (
	"time"

	"ragagent/config"
	"ragagent/internal/port"
)

// FromConfig builds the LLM adapter named by cfg.Provider.
func FromConfig(cfg config.LLMConfig) (port.LLM, error) {
	c := Config{
		BaseURL:     cfg.BaseURL,
		APIKeyEnv:   cfg.APIKeyEnv,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
	}

	switch cfg.Provider {
	case "", "gemini":
		return NewGemini(c)
	default:
		return NewOpenAI(cfg.Provider, c)
	}
}
