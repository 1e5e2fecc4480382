package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragagent/internal/adapter/store"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the stored index fingerprint",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	idx, emb, err := openIndex(cfg, false)
	if err != nil {
		return err
	}
	defer idx.Close()

	fp, err := idx.StoredFingerprint()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Index:            %s\n", idx.Path())
	if fp == nil {
		fmt.Fprintln(out, "Status:           empty, run 'ragagent ingest' first")
		return nil
	}

	fmt.Fprintf(out, "Entries:          %d\n", fp.Entries)
	fmt.Fprintf(out, "Embedding model:  %s (%d dims)\n", fp.Model, fp.Dimension)
	fmt.Fprintf(out, "Schema version:   %d\n", fp.SchemaVersion)
	fmt.Fprintf(out, "Built at:         %s\n", fp.BuiltAt.Local().Format("2006-01-02 15:04:05"))

	if res := store.CheckCompatibility(*fp, emb); res.Compatible {
		fmt.Fprintf(out, "Status:           %s\n", boldGreen("compatible with configured embedder"))
	} else {
		fmt.Fprintf(out, "Status:           %s\n", boldYellow("rebuild required: "+res.Reason))
	}
	return nil
}
