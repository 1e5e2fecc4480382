package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Answer a single question",
	Long: `Retrieve the chunks most similar to the question, generate an answer from
them and score the answer's relevance.

Examples:
  ragagent query -q "What color is the sky?"
  ragagent query -q "What is the capital of France?" --top-k 3 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question to answer (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if queryTopK > 0 {
		cfg.Retrieve.TopK = queryTopK
	}

	a, closeIndex, err := newAgent(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer closeIndex()

	res, err := a.Ask(cmd.Context(), queryText)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		for i := range res.Sources {
			res.Sources[i].Text = truncate(res.Sources[i].Text, sourcePreviewChars)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printResult(out, res)
	return nil
}
