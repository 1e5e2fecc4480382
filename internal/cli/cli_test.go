package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragagent/internal/agent"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	cfgFile, rootDir, verbose = "", "", false

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func setupProject(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"The sky is blue."}]}}]}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("GOOGLE_API_KEY", "test-key")

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "sky.txt"), []byte("The sky is blue."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "grass.txt"), []byte("Grass is green."), 0644))

	yaml := fmt.Sprintf(`embedding:
  provider: hash
  dimension: 384
llm:
  provider: gemini
  base_url: %s
retrieve:
  top_k: 2
`, srv.URL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ragagent.yaml"), []byte(yaml), 0644))
	return dir
}

func TestCLI_IngestInfoQueryAsk(t *testing.T) {
	dir := setupProject(t)

	out, err := execute(t, "", "ingest", "--dir", dir, "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents loaded: 2")
	assert.Contains(t, out, "Chunks indexed:   2")
	assert.FileExists(t, filepath.Join(dir, "chroma_store", "index.db"))

	out, err = execute(t, "", "info", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Entries:          2")
	assert.Contains(t, out, "hash-bow-384")
	assert.Contains(t, out, "compatible with configured embedder")

	out, err = execute(t, "", "query", "--dir", dir, "-q", "What color is the sky?", "--json")
	require.NoError(t, err)
	var res agent.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "The sky is blue.", res.Answer)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, "The sky is blue.", res.Sources[0].Text)
	assert.True(t, res.Reflection.Relevant)

	out, err = execute(t, "What color is the sky?\n\nWhat color is the sky?\nquit\n", "ask", "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "RELEVANT (score=0.40)"))
	assert.Contains(t, out, "Question>")
}

func TestCLI_QueryWithoutIndex(t *testing.T) {
	dir := setupProject(t)

	_, err := execute(t, "", "query", "--dir", dir, "-q", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ragagent ingest")
}

func TestCLI_ConfigInit(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "", "config", "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "ragagent.yaml")
	assert.FileExists(t, filepath.Join(dir, "ragagent.yaml"))

	_, err = execute(t, "", "config", "init", "--dir", dir)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short text", truncate("short\n\ntext", 200))
	long := strings.Repeat("é", 250)
	got := truncate(long, 200)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 203, len([]rune(got)))
}
