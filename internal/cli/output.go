package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"ragagent/internal/agent"
)

const sourcePreviewChars = 200

var (
	boldGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	boldYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	red        = color.New(color.FgRed).SprintFunc()
	faint      = color.New(color.Faint).SprintFunc()
)

// truncate shortens s to at most n characters, appending "..." when cut.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func printResult(w io.Writer, res agent.Result) {
	fmt.Fprintln(w, boldCyan("Answer:"))
	if res.Degraded {
		fmt.Fprintln(w, red("Answer generation failed: "+res.Error))
	} else {
		fmt.Fprintln(w, res.Answer)
	}
	fmt.Fprintln(w)

	reflection := res.Reflection.String()
	if res.Reflection.Relevant {
		fmt.Fprintf(w, "%s %s\n", boldCyan("Reflection:"), boldGreen(reflection))
	} else {
		fmt.Fprintf(w, "%s %s\n", boldCyan("Reflection:"), boldYellow(reflection))
	}

	if len(res.Sources) == 0 {
		fmt.Fprintln(w, faint("No sources retrieved."))
		return
	}

	fmt.Fprintf(w, "\n%s\n", boldCyan(fmt.Sprintf("Sources (%d):", len(res.Sources))))
	for i, s := range res.Sources {
		fmt.Fprintf(w, "--- [%d] %s (id: %d, score: %.3f) ---\n", i+1, s.Source, s.ID, s.Score)
		fmt.Fprintln(w, truncate(s.Text, sourcePreviewChars))
	}
}
