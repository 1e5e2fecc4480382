// Package observe carries structured events out of the core. The core emits
// events through a Sink; what happens to them is decided by the caller.
package observe

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Event is implemented by every event type.
type Event interface {
	Name() string
	Attrs() []slog.Attr
}

type IndexBuilt struct {
	Entries   int
	Model     string
	Dimension int
	Duration  time.Duration
}

func (IndexBuilt) Name() string { return "index_built" }

func (e IndexBuilt) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("entries", e.Entries),
		slog.String("model", e.Model),
		slog.Int("dimension", e.Dimension),
		slog.Duration("duration", e.Duration),
	}
}

type IndexLoaded struct {
	Entries int
	Model   string
}

func (IndexLoaded) Name() string { return "index_loaded" }

func (e IndexLoaded) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("entries", e.Entries),
		slog.String("model", e.Model),
	}
}

// ChunksEmbedded reports embedding progress: N chunks in this batch, Done of Total so far.
type ChunksEmbedded struct {
	N     int
	Done  int
	Total int
}

func (ChunksEmbedded) Name() string { return "chunks_embedded" }

func (e ChunksEmbedded) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("batch", e.N),
		slog.Int("done", e.Done),
		slog.Int("total", e.Total),
	}
}

type QueryCompleted struct {
	RunID   string
	TopK    int
	Results int
	Latency time.Duration
}

func (QueryCompleted) Name() string { return "query_completed" }

func (e QueryCompleted) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("run_id", e.RunID),
		slog.Int("top_k", e.TopK),
		slog.Int("results", e.Results),
		slog.Duration("latency", e.Latency),
	}
}

type AnswerGenerated struct {
	RunID    string
	Fallback bool
	Latency  time.Duration
	Err      error
}

func (AnswerGenerated) Name() string { return "answer_generated" }

func (e AnswerGenerated) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("run_id", e.RunID),
		slog.Bool("fallback", e.Fallback),
		slog.Duration("latency", e.Latency),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	return attrs
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}

// LogSink writes events to a slog.Logger. Events carrying an error are
// logged at warn level, the rest at debug.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, e Event) {
	level := slog.LevelDebug
	if ag, ok := e.(AnswerGenerated); ok && ag.Err != nil {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, e.Name(), e.Attrs()...)
}

// Recorder keeps every emitted event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the event names in emission order.
func (r *Recorder) Names() []string {
	events := r.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name()
	}
	return names
}

// NewLogger builds a logger writing to w. Unknown levels fall back to info
// and unknown formats to text.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
