package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cardmark/internal/model"
	"github.com/ppiankov/cardmark/internal/render"
)

var (
	renderFormat  string
	renderOut     string
	renderCardID  string
	renderTimeout time.Duration
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render <source>",
	Short: "Render a card deck or annotated markdown file",
	Long: `Render loads a card deck (YAML or JSON) or a bare annotated markdown
file and prints the rehydrated cards. The source may be a path, "-" for
stdin, or an http(s) URL.

Example:
  cardmark render deck.yaml
  cardmark render note.md --format text
  cardmark render deck.yaml --card w1 --format json --out w1.json
  cat note.md | cardmark render - --format text`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "output format: html, json, text (default from config)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default stdout)")
	renderCmd.Flags().StringVar(&renderCardID, "card", "", "render only the card with this id")
	renderCmd.Flags().DurationVar(&renderTimeout, "timeout", 2*time.Minute, "overall render timeout")
}

func runRender(cmd *cobra.Command, args []string) error {
	src := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
	defer cancel()

	p, logger, err := newPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	name := renderFormat
	if name == "" {
		name = p.Config().Output.Format
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		return err
	}

	deck, err := p.LoadDeck(ctx, src)
	if err != nil {
		return err
	}

	cards := deck.Cards
	if renderCardID != "" {
		card, ok := deck.Lookup(renderCardID)
		if !ok {
			return fmt.Errorf("card %q not found in %s", renderCardID, src)
		}
		cards = []model.Card{card}
	}

	rendered, err := p.RenderDeck(ctx, model.NewDeck(cards))
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	for i := range rendered {
		rendered[i].Source = src
	}

	renderer, err := render.New(format, deck)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Rendered %d cards from %s\n", len(rendered), src)
	}

	return writeOutput(renderOut, func(w io.Writer) error {
		return renderer.Render(w, rendered)
	})
}

// writeOutput writes to path, or stdout when path is empty
func writeOutput(path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output: %w", closeErr)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	}
	return nil
}
