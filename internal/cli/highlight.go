package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cardmark/internal/highlight"
)

var (
	snippets     []string
	highlightOut string
)

// highlightCmd represents the highlight command
var highlightCmd = &cobra.Command{
	Use:   "highlight <file>",
	Short: "Wrap support snippets of a markdown file in highlight tags",
	Long: `Highlight locates each snippet in the file, merges overlapping ranges
and wraps them in <highlight> tags without crossing table cells or list
items. Use "-" to read stdin.

Example:
  cardmark highlight page.md --snippet "grew 38%" --snippet "in 2023"`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

func init() {
	rootCmd.AddCommand(highlightCmd)

	highlightCmd.Flags().StringArrayVarP(&snippets, "snippet", "s", nil, "support snippet to highlight (repeatable)")
	highlightCmd.Flags().StringVarP(&highlightOut, "out", "o", "", "output file (default stdout)")
	_ = highlightCmd.MarkFlagRequired("snippet")
}

func runHighlight(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	text := string(data)
	if verbose {
		for _, s := range snippets {
			if _, ok := highlight.Locate(text, s); !ok {
				fmt.Fprintf(os.Stderr, "⚠ snippet not found: %q\n", s)
			}
		}
	}

	return writeOutput(highlightOut, func(w io.Writer) error {
		_, err := io.WriteString(w, highlight.Apply(text, snippets))
		return err
	})
}
