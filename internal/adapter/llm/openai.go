package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"ragagent/internal/domain"
	"ragagent/internal/port"
)

var _ port.LLM = (*OpenAI)(nil)

// Provider configurations for OpenAI-compatible APIs.
var providers = map[string]struct {
	baseURL   string
	keyEnvVar string
	model     string
}{
	"openai":   {"https://api.openai.com/v1", "OPENAI_API_KEY", "gpt-4o-mini"},
	"deepseek": {"https://api.deepseek.com/v1", "DEEPSEEK_API_KEY", "deepseek-chat"},
	"ollama":   {"http://localhost:11434/v1", "", "llama3.2"},
}

// OpenAI talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAI struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		Text         string      `json:"text"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAI creates a client for provider ("openai", "deepseek" or "ollama").
// BaseURL in cfg overrides the provider default.
func NewOpenAI(provider string, cfg Config) (*OpenAI, error) {
	p, ok := providers[provider]
	if !ok && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: unknown provider %s (set llm.base_url for custom endpoints)", domain.ErrModelUnavailable, provider)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = p.baseURL
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = p.keyEnvVar
	}
	if cfg.Model == "" {
		cfg.Model = p.model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	var apiKey string
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("%w: API key not found in environment variable %s", domain.ErrModelUnavailable, cfg.APIKeyEnv)
		}
	}

	return &OpenAI{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      apiKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (c *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	jsonBody, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: chat request: %w", domain.ErrGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", domain.ErrGeneration, err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrGeneration, resp.StatusCode, preview(body))
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: API error: %s", domain.ErrGeneration, chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrGeneration, resp.StatusCode, preview(body))
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices returned", domain.ErrGeneration)
	}

	choice := chatResp.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		text = strings.TrimSpace(choice.Text)
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty completion (finish reason %q)", domain.ErrGeneration, choice.FinishReason)
	}
	return text, nil
}

func (c *OpenAI) ModelName() string {
	return c.model
}
