// Package llm provides text generation adapters for hosted and local models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"ragagent/internal/domain"
	"ragagent/internal/port"
)

var _ port.LLM = (*Gemini)(nil)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultTimeout       = 120 * time.Second
)

// Config configures an LLM adapter.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Gemini calls the Generative Language generateContent REST endpoint.
type Gemini struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig *struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func NewGemini(cfg Config) (*Gemini, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GOOGLE_API_KEY"
	}
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key not found in environment variable %s", domain.ErrModelUnavailable, cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Gemini{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      apiKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	if g.temperature > 0 {
		reqBody.GenerationConfig = &struct {
			Temperature float64 `json:"temperature"`
		}{Temperature: g.temperature}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: gemini request: %w", domain.ErrGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", domain.ErrGeneration, err)
	}

	var genResp geminiResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("%w: gemini status %d: %s", domain.ErrGeneration, resp.StatusCode, preview(body))
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("%w: gemini error %s: %s", domain.ErrGeneration, genResp.Error.Status, genResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: gemini status %d: %s", domain.ErrGeneration, resp.StatusCode, preview(body))
	}

	return extractGeminiText(genResp)
}

// extractGeminiText joins the text parts of the first candidate. If that is
// blank it falls back to the first non-empty part of any candidate.
func extractGeminiText(resp geminiResponse) (string, error) {
	if len(resp.Candidates) > 0 {
		var sb strings.Builder
		for _, p := range resp.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text, nil
		}
	}

	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			if text := strings.TrimSpace(p.Text); text != "" {
				return text, nil
			}
		}
	}

	reason := "empty response"
	switch {
	case resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "":
		reason = "prompt blocked: " + resp.PromptFeedback.BlockReason
	case len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "":
		reason = "finish reason " + resp.Candidates[0].FinishReason
	}
	return "", fmt.Errorf("%w: gemini returned no text (%s)", domain.ErrGeneration, reason)
}

func (g *Gemini) ModelName() string {
	return g.model
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
