package model

// CitationRef is one numbered citation as it appears in a rendered document
type CitationRef struct {
	TargetID string `json:"target_id"`
	Number   int    `json:"number"`
	Body     string `json:"body,omitempty"` // Which card body it came from
}

// FindingKind classifies a citation check finding
type FindingKind string

const (
	FindingMissingTarget FindingKind = "missing_target" // Target not present in the deck
	FindingEmptyTarget   FindingKind = "empty_target"   // Identifier cleaned to ""
	FindingSelfReference FindingKind = "self_reference" // Card cites itself
	FindingUndeclaredRef FindingKind = "undeclared_ref" // Cited but absent from card_ref_explicit
)

// Severity of a finding
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Finding is a diagnostic produced by the citation check
type Finding struct {
	CardID   string      `json:"card_id"`
	Kind     FindingKind `json:"kind"`
	Severity Severity    `json:"severity"`
	TargetID string      `json:"target_id,omitempty"`
	Message  string      `json:"message"`
}

// CheckReport summarizes citation integrity for a deck
type CheckReport struct {
	Cards     int       `json:"cards"`
	Citations int       `json:"citations"`
	Findings  []Finding `json:"findings"`
}

// Warnings counts warning-level findings
func (r CheckReport) Warnings() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityWarning {
			n++
		}
	}
	return n
}
