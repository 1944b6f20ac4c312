package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cardmark/internal/model"
	"github.com/ppiankov/cardmark/internal/pipeline"
	"github.com/ppiankov/cardmark/internal/render"
	"github.com/ppiankov/cardmark/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchFormat  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Render many sources from a list file in parallel",
	Long: `Batch renders every source listed in a file (one path or URL per line,
# for comments) with a worker pool, and writes one output file per source.
URL sources are throttled per host.

Example:
  cardmark batch sources.txt
  cardmark batch sources.txt --concurrency 8 --output-dir ./rendered --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./cardmark-out", "output directory for rendered files")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "", "output format: html, json, text (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	p, logger, err := newPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg := p.Config()
	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	name := batchFormat
	if name == "" {
		name = cfg.Output.Format
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Format:       %s\n", format)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(p, workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	used := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Source, result.Error)
			continue
		}

		slug := uniqueSlug(used, pipeline.CardIDFromName(result.Source))
		outPath := filepath.Join(outputDir, slug+render.Extension(format))

		if err := writeRendered(outPath, format, result.Cards); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Source, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d cards) -> %s\n", result.Source, len(result.Cards), outPath)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d sources\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d sources failed", failureCount, len(results))
	}
	return nil
}

// writeRendered writes one source's cards, labelled by the cards themselves
func writeRendered(path string, format render.Format, rendered []model.Rendered) error {
	cards := make([]model.Card, len(rendered))
	for i, r := range rendered {
		cards[i] = r.Card
	}

	renderer, err := render.New(format, model.NewDeck(cards))
	if err != nil {
		return err
	}

	return writeOutput(path, func(w io.Writer) error {
		return renderer.Render(w, rendered)
	})
}

// uniqueSlug suffixes repeated slugs with a counter
func uniqueSlug(used map[string]int, slug string) string {
	slug = strings.ToLower(slug)
	n := used[slug]
	used[slug] = n + 1
	if n == 0 {
		return slug
	}
	return fmt.Sprintf("%s-%d", slug, n+1)
}
