package chunker

import (
	"strings"
	"unicode/utf8"

	"ragagent/internal/domain"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// defaultSeparators are tried in order: paragraph, line, word, character.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits text on the largest boundary that keeps pieces
// under chunkSize and merges the pieces back into overlapping windows.
// Sizes are measured in characters (runes).
type RecursiveChunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the chunker.
type Option func(*RecursiveChunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *RecursiveChunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *RecursiveChunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

func NewRecursiveChunker(opts ...Option) *RecursiveChunker {
	c := &RecursiveChunker{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: defaultSeparators,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

func (c *RecursiveChunker) ChunkSize() int { return c.chunkSize }

func (c *RecursiveChunker) Overlap() int { return c.overlap }

// Chunk splits a single document. Empty text yields no chunks.
func (c *RecursiveChunker) Chunk(doc domain.Document) []domain.Chunk {
	trimmed := strings.TrimSpace(doc.Text)
	if trimmed == "" {
		return nil
	}

	var texts []string
	if runeLen(trimmed) <= c.chunkSize {
		texts = []string{trimmed}
	} else {
		texts = c.split(doc.Text, c.separators)
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			DocID:    doc.ID,
			Source:   doc.Path,
			Position: i,
			Text:     text,
		})
	}
	return chunks
}

// ChunkAll chunks documents in order; chunks never span two documents.
func (c *RecursiveChunker) ChunkAll(docs []domain.Document) []domain.Chunk {
	var all []domain.Chunk
	for _, doc := range docs {
		all = append(all, c.Chunk(doc)...)
	}
	return all
}

func (c *RecursiveChunker) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var next []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			next = separators[i+1:]
			break
		}
	}

	var splits []string
	if separator == "" {
		splits = make([]string, 0, len(text))
		for _, r := range text {
			splits = append(splits, string(r))
		}
	} else {
		splits = strings.Split(text, separator)
	}

	var final, good []string
	for _, s := range splits {
		if s == "" {
			continue
		}
		if runeLen(s) < c.chunkSize {
			good = append(good, s)
			continue
		}
		if len(good) > 0 {
			final = append(final, c.merge(good, separator)...)
			good = nil
		}
		if len(next) == 0 {
			final = append(final, s)
		} else {
			final = append(final, c.split(s, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, c.merge(good, separator)...)
	}
	return final
}

// merge packs splits into windows of at most chunkSize, carrying the tail of
// each emitted window (up to overlap characters) into the next one.
func (c *RecursiveChunker) merge(splits []string, separator string) []string {
	sepLen := runeLen(separator)
	var (
		docs    []string
		current []string
		total   int
	)

	joinedSep := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	for _, s := range splits {
		n := runeLen(s)
		if total+n+joinedSep(len(current)) > c.chunkSize && len(current) > 0 {
			if doc := joinTrimmed(current, separator); doc != "" {
				docs = append(docs, doc)
			}
			for total > c.overlap || (total+n+joinedSep(len(current)) > c.chunkSize && total > 0) {
				total -= runeLen(current[0]) + joinedSep(len(current)-1)
				current = current[1:]
			}
		}
		current = append(current, s)
		total += n + joinedSep(len(current)-1)
	}

	if doc := joinTrimmed(current, separator); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func joinTrimmed(parts []string, separator string) string {
	return strings.TrimSpace(strings.Join(parts, separator))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
