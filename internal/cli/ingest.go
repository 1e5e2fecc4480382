package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragagent/internal/adapter/chunker"
	"ragagent/internal/adapter/fs"
	"ragagent/internal/observe"
	"ragagent/internal/usecase"
)

var ingestNoProgress bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Build the vector index from a document directory",
	Long: `Load every text document under dir (default index.data_dir), split it into
overlapping chunks, embed the chunks and replace the stored index with them.
The index is written to <index.persist_dir>/index.db.

Examples:
  ragagent ingest              # Index ./data
  ragagent ingest ~/notes      # Index a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestNoProgress, "no-progress", false, "disable the progress bar")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	dataDir := resolve(cfg.Index.DataDir)
	if len(args) > 0 {
		dataDir = resolve(args[0])
	}

	info, err := os.Stat(dataDir)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dataDir)
	}

	idx, emb, err := openIndex(cfg, true)
	if err != nil {
		return err
	}
	defer idx.Close()

	loader := fs.NewLoader(fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes))
	chk := chunker.NewRecursiveChunker(
		chunker.WithChunkSize(cfg.Index.ChunkSize),
		chunker.WithOverlap(cfg.Index.ChunkOverlap),
	)
	ingestUC := usecase.NewIngestUseCase(loader, chk, emb, idx, cfg.Embedding.BatchSize, observe.NewLogSink(logger), logger)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning %s...\n", dataDir)

	var progress usecase.ProgressFunc
	if !ingestNoProgress {
		progress = newProgressBar(cmd)
	}

	result, err := ingestUC.Ingest(cmd.Context(), dataDir, progress)
	if result != nil && len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  - %v\n", e)
		}
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(out, "\nIngestion complete:\n")
	fmt.Fprintf(out, "  Documents loaded: %d\n", result.DocumentsLoaded)
	fmt.Fprintf(out, "  Documents failed: %d\n", result.DocumentsFailed)
	fmt.Fprintf(out, "  Chunks indexed:   %d\n", result.Chunks)
	fmt.Fprintf(out, "  Embedding model:  %s (%d dims)\n", result.Model, result.Dimension)
	fmt.Fprintf(out, "  Duration:         %s\n", formatDuration(result.Duration))
	fmt.Fprintf(out, "\nIndex stored at: %s\n", idx.Path())
	return nil
}

// newProgressBar returns a progress callback that lazily creates the bar
// once the total number of chunks is known.
func newProgressBar(cmd *cobra.Command) usecase.ProgressFunc {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)

	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
		}

		_ = bar.Set(done)

		if done > 0 && done < total {
			rate := float64(done) / time.Since(startTime).Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
