package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask questions interactively",
	Long: `Start an interactive loop that answers one question per line. Type 'exit'
or 'quit' to leave. Repeated questions are served from the query cache when
retrieve.cache_size is positive.`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, closeIndex, err := newAgent(ctx, GetConfig(), true)
	if err != nil {
		return err
	}
	defer closeIndex()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, boldGreen("RAG agent ready."))
	fmt.Fprintln(out, "Type your question and press Enter. Type 'exit' or 'quit' to leave.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, boldGreen("\nQuestion> "))
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		res, err := a.Ask(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "%s %v\n", red("Error:"), err)
			continue
		}
		printResult(out, res)
	}

	return scanner.Err()
}
