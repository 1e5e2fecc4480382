package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the agent.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Reflect   ReflectConfig   `yaml:"reflect"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds ingestion and index storage configuration.
type IndexConfig struct {
	PersistDir   string   `yaml:"persist_dir"`
	DataDir      string   `yaml:"data_dir"`
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkSize    int      `yaml:"chunk_size"`    // characters
	ChunkOverlap int      `yaml:"chunk_overlap"` // characters
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK         int `yaml:"top_k"`
	CacheSize    int `yaml:"cache_size"` // 0 disables the query cache
	CacheTTLSecs int `yaml:"cache_ttl_secs"`
}

type ReflectConfig struct {
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`    // "openai", "jina", "ollama", "hash"
	Model       string `yaml:"model"`       // e.g., "all-minilm"
	BaseURL     string `yaml:"base_url"`    // optional override
	APIKeyEnv   string `yaml:"api_key_env"` // Environment variable for API key
	Dimension   int    `yaml:"dimension"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig holds language model configuration.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "gemini", "openai", "deepseek", "ollama"
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"` // empty uses the provider's default variable
	TimeoutSecs int     `yaml:"timeout_secs"`
	Temperature float64 `yaml:"temperature"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			PersistDir:   "chroma_store",
			DataDir:      "data",
			Includes:     []string{"**/*.txt", "**/*.md"},
			Excludes:     []string{"**/.git/**", "**/node_modules/**", "**/vendor/**"},
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Retrieve: RetrieveConfig{
			TopK:         5,
			CacheSize:    64,
			CacheTTLSecs: 300,
		},
		Reflect: ReflectConfig{
			RelevanceThreshold: 0.12,
		},
		Embedding: EmbeddingConfig{
			Provider:    "ollama",
			Model:       "all-minilm",
			Dimension:   384,
			BatchSize:   64,
			TimeoutSecs: 60,
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			TimeoutSecs: 120,
			Temperature: 0.2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragagent.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragagent.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragagent", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// applyDefaults refills zero values that an explicit YAML null or 0 left behind.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Index.PersistDir == "" {
		cfg.Index.PersistDir = def.Index.PersistDir
	}
	if cfg.Index.DataDir == "" {
		cfg.Index.DataDir = def.Index.DataDir
	}
	if len(cfg.Index.Includes) == 0 {
		cfg.Index.Includes = def.Index.Includes
	}
	if cfg.Index.ChunkSize == 0 {
		cfg.Index.ChunkSize = def.Index.ChunkSize
	}
	if cfg.Retrieve.TopK == 0 {
		cfg.Retrieve.TopK = def.Retrieve.TopK
	}
	if cfg.Retrieve.CacheTTLSecs == 0 {
		cfg.Retrieve.CacheTTLSecs = def.Retrieve.CacheTTLSecs
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = def.Embedding.BatchSize
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = def.Embedding.TimeoutSecs
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = def.LLM.TimeoutSecs
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
}

// Validate checks option combinations that would make ingestion or
// retrieval meaningless.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be in [0, %d), got %d", c.Index.ChunkSize, c.Index.ChunkOverlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Reflect.RelevanceThreshold < 0 || c.Reflect.RelevanceThreshold > 1 {
		return fmt.Errorf("reflect.relevance_threshold must be in [0, 1], got %g", c.Reflect.RelevanceThreshold)
	}
	if c.Embedding.Provider == "hash" && c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive for the hash provider")
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolvePersistDir returns the index directory, resolved against root when relative.
func (c *Config) ResolvePersistDir(root string) string {
	if filepath.IsAbs(c.Index.PersistDir) {
		return c.Index.PersistDir
	}
	return filepath.Join(root, c.Index.PersistDir)
}

// IndexDBPath returns the path to the index database inside persistDir.
func IndexDBPath(persistDir string) string {
	return filepath.Join(persistDir, "index.db")
}

// EnsureDir ensures the index directory exists.
func EnsureDir(persistDir string) error {
	return os.MkdirAll(persistDir, 0755)
}
