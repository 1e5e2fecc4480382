package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Emit(context.Background(), IndexLoaded{Entries: 3, Model: "m"})
	r.Emit(context.Background(), QueryCompleted{RunID: "x", TopK: 5, Results: 3})

	assert.Equal(t, []string{"index_loaded", "query_completed"}, r.Names())
	events := r.Events()
	require.Len(t, events, 2)
	assert.Equal(t, 3, events[0].(IndexLoaded).Entries)
}

func TestLogSink_JSON(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(NewLogger("debug", "json", &buf))

	sink.Emit(context.Background(), IndexBuilt{Entries: 4, Model: "hash-bow-384", Dimension: 384, Duration: time.Second})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "index_built", line["msg"])
	assert.Equal(t, "DEBUG", line["level"])
	assert.Equal(t, float64(4), line["entries"])
	assert.Equal(t, "hash-bow-384", line["model"])
}

func TestLogSink_ErrorsAtWarn(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(NewLogger("warn", "json", &buf))

	sink.Emit(context.Background(), AnswerGenerated{RunID: "r1"})
	assert.Zero(t, buf.Len(), "debug events should be filtered at warn level")

	sink.Emit(context.Background(), AnswerGenerated{RunID: "r1", Err: errors.New("boom")})
	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("info", "text", &buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}
