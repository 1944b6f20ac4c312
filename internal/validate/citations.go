// Package validate checks citation integrity of rendered cards against
// the deck they belong to.
package validate

import (
	"fmt"

	"github.com/ppiankov/cardmark/internal/model"
)

// Checker reports citation problems. The renderer never enforces target
// existence; this is where callers opt in.
type Checker struct {
	deck *model.Deck

	// Undeclared enables findings for targets missing from card_ref_explicit
	Undeclared bool
}

// NewChecker creates a checker for deck
func NewChecker(deck *model.Deck) *Checker {
	return &Checker{deck: deck, Undeclared: true}
}

type findingKey struct {
	card   string
	kind   model.FindingKind
	target string
}

// Check inspects every citation of rendered and summarizes the findings.
// Each (card, kind, target) is reported once.
func (c *Checker) Check(rendered []model.Rendered) model.CheckReport {
	report := model.CheckReport{Cards: len(rendered), Findings: []model.Finding{}}
	seen := make(map[findingKey]bool)

	add := func(f model.Finding) {
		key := findingKey{f.CardID, f.Kind, f.TargetID}
		if seen[key] {
			return
		}
		seen[key] = true
		report.Findings = append(report.Findings, f)
	}

	for _, r := range rendered {
		declared := make(map[string]bool, len(r.Card.RefsExplicit))
		for _, id := range r.Card.RefsExplicit {
			declared[id] = true
		}

		for _, body := range r.Bodies {
			for _, ref := range body.Citations {
				report.Citations++
				c.checkRef(r.Card, body.Name, ref, declared, add)
			}
		}
	}

	return report
}

func (c *Checker) checkRef(card model.Card, body string, ref model.CitationRef, declared map[string]bool, add func(model.Finding)) {
	switch {
	case ref.TargetID == "":
		add(model.Finding{
			CardID:   card.ID,
			Kind:     model.FindingEmptyTarget,
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("citation [%d] in %s has no usable target id", ref.Number, body),
		})
		return

	case ref.TargetID == card.ID:
		add(model.Finding{
			CardID:   card.ID,
			Kind:     model.FindingSelfReference,
			Severity: model.SeverityInfo,
			TargetID: ref.TargetID,
			Message:  "card cites itself",
		})
	}

	if _, ok := c.deck.Lookup(ref.TargetID); !ok {
		add(model.Finding{
			CardID:   card.ID,
			Kind:     model.FindingMissingTarget,
			Severity: model.SeverityWarning,
			TargetID: ref.TargetID,
			Message:  fmt.Sprintf("cited card %q is not in the deck", ref.TargetID),
		})
	}

	if c.Undeclared && len(declared) > 0 && !declared[ref.TargetID] {
		add(model.Finding{
			CardID:   card.ID,
			Kind:     model.FindingUndeclaredRef,
			Severity: model.SeverityInfo,
			TargetID: ref.TargetID,
			Message:  fmt.Sprintf("cited card %q is not listed in card_ref_explicit", ref.TargetID),
		})
	}
}
