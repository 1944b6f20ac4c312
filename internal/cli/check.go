package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cardmark/internal/validate"
)

var (
	checkJSON       bool
	checkUndeclared bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <deck>",
	Short: "Report citations whose targets are missing from the deck",
	Long: `Check renders every card of a deck and reports citation findings:
targets absent from the deck, identifiers that cleaned to nothing, cards
citing themselves, and citations not listed in card_ref_explicit.

Exits non-zero when any warning is found.

Example:
  cardmark check deck.yaml
  cardmark check deck.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the report as JSON")
	checkCmd.Flags().BoolVar(&checkUndeclared, "undeclared", true, "report citations missing from card_ref_explicit")
}

func runCheck(cmd *cobra.Command, args []string) error {
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
	rendered, err := p.RenderDeck(ctx, deck)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	checker := validate.NewChecker(deck)
	checker.Undeclared = checkUndeclared
	report := checker.Check(rendered)

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		fmt.Printf("Cards: %d  Citations: %d  Findings: %d\n", report.Cards, report.Citations, len(report.Findings))
		for _, f := range report.Findings {
			fmt.Printf("  [%s] %s: %s\n", f.Severity, f.CardID, f.Message)
		}
	}

	if n := report.Warnings(); n > 0 {
		return fmt.Errorf("%d citation warnings", n)
	}
	return nil
}
