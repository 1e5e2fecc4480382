package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"ragagent/internal/domain"
	"ragagent/internal/port"
)

// FallbackAnswer is returned without calling the model when retrieval found
// no usable context.
const FallbackAnswer = "No relevant data found in documents."

const contextSeparator = "\n\n"

//go:embed templates/answer_prompt.txt
var answerPromptText string

var answerPrompt = template.Must(template.New("answer").Parse(answerPromptText))

// Generation is the output of the answer stage.
type Generation struct {
	Text     string
	Fallback bool
	Latency  time.Duration
}

// AnswerUseCase composes retrieved chunks into a prompt and asks the model
// once for an answer.
type AnswerUseCase struct {
	llm     port.LLM
	timeout time.Duration
}

func NewAnswerUseCase(llm port.LLM, timeout time.Duration) *AnswerUseCase {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &AnswerUseCase{llm: llm, timeout: timeout}
}

// Answer returns FallbackAnswer when chunks carry no text. Otherwise it makes
// a single model call bounded by the configured timeout; backend failures and
// blank completions are reported as ErrGeneration.
func (u *AnswerUseCase) Answer(ctx context.Context, question string, chunks []domain.ScoredChunk) (Generation, error) {
	contextText := ComposeContext(chunks)
	if contextText == "" {
		return Generation{Text: FallbackAnswer, Fallback: true}, nil
	}

	prompt, err := BuildPrompt(contextText, question)
	if err != nil {
		return Generation{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	start := time.Now()
	text, err := u.llm.Generate(ctx, prompt)
	latency := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return Generation{Latency: latency}, fmt.Errorf("%w: no answer within %s: %w", domain.ErrGeneration, u.timeout, err)
		}
		return Generation{Latency: latency}, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Generation{Latency: latency}, fmt.Errorf("%w: model %s returned no text", domain.ErrGeneration, u.llm.ModelName())
	}
	return Generation{Text: text, Latency: latency}, nil
}

// ComposeContext joins chunk texts in retrieval order, skipping empty ones.
func ComposeContext(chunks []domain.ScoredChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Chunk.Text) == "" {
			continue
		}
		parts = append(parts, c.Chunk.Text)
	}
	return strings.Join(parts, contextSeparator)
}

func BuildPrompt(contextText, question string) (string, error) {
	var buf bytes.Buffer
	err := answerPrompt.Execute(&buf, struct {
		Context  string
		Question string
	}{contextText, question})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
