package cli

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cardmark/internal/highlight"
	"github.com/ppiankov/cardmark/internal/model"
)

var extractOut string

// bodyExtraction is one card body's top-level extraction
type bodyExtraction struct {
	CardID     string           `json:"card_id"`
	Body       string           `json:"body"`
	Extraction model.Extraction `json:"extraction"`
}

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <source>",
	Short: "Print the annotation side tables of every card body as JSON",
	Long: `Extract runs only the annotation extractor over each card body and
prints the substituted text with its citation, excerpt and highlight tables.

Example:
  cardmark extract deck.yaml
  cardmark extract note.md --out extraction.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "output file (default stdout)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	p, logger, err := newPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	deck, err := p.LoadDeck(ctx, args[0])
	if err != nil {
		return err
	}

	out := []bodyExtraction{}
	for _, card := range deck.Cards {
		for _, b := range highlight.ApplyCard(card).Bodies() {
			ext, _ := p.Extract(b.Text)
			out = append(out, bodyExtraction{CardID: card.ID, Body: b.Name, Extraction: ext})
		}
	}

	return writeOutput(extractOut, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	})
}
