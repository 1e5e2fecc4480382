package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ragagent/internal/domain"
	"ragagent/internal/port"
)

var _ port.Embedder = (*OpenAIEmbedder)(nil)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultJinaBaseURL   = "https://api.jina.ai/v1"
	DefaultOllamaBaseURL = "http://localhost:11434/v1"
	DefaultBatchSize     = 64
	DefaultTimeout       = 60 * time.Second
)

// OpenAIEmbedder talks to any OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	batchSize int
	client    *http.Client
}

// Config configures an OpenAI-compatible embedder.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Dimension int // 0 uses the known dimension for Model
	BatchSize int
	Timeout   time.Duration
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// knownDimensions maps model names to their output dimension.
var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"jina-embeddings-v3":     1024,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"all-MiniLM-L6-v2":       384,
}

func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	return newCompatibleEmbedder(cfg, true)
}

func NewJinaEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultJinaBaseURL
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "JINA_API_KEY"
	}
	return newCompatibleEmbedder(cfg, true)
}

// NewOllamaEmbedder uses Ollama's OpenAI-compatible endpoint; no key is needed.
func NewOllamaEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	return newCompatibleEmbedder(cfg, false)
}

func newCompatibleEmbedder(cfg Config, keyRequired bool) (*OpenAIEmbedder, error) {
	apiKey := "ollama"
	if keyRequired {
		apiKey = os.Getenv(cfg.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("%w: API key not found in environment variable %s", domain.ErrModelUnavailable, cfg.APIKeyEnv)
		}
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: embedding model name is empty", domain.ErrModelUnavailable)
	}

	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = knownDimensions[cfg.Model]
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: unknown dimension for model %s, set embedding.dimension", domain.ErrModelUnavailable, cfg.Model)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &OpenAIEmbedder{
		apiKey:    apiKey,
		model:     cfg.Model,
		baseURL:   cfg.BaseURL,
		dimension: dimension,
		batchSize: cfg.BatchSize,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	allEmbeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	jsonData, err := json.Marshal(embeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding request failed: %v", domain.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API returned status %d: %s", domain.ErrModelUnavailable, resp.StatusCode, preview(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("%w: API error: %s", domain.ErrModelUnavailable, embResp.Error.Message)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index >= 0 && data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}

	for i, vec := range embeddings {
		if len(vec) != e.dimension {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, expected %d", domain.ErrDimensionMismatch, i, len(vec), e.dimension)
		}
	}

	return embeddings, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
