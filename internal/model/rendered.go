package model

import "github.com/ppiankov/cardmark/internal/markdown"

// RenderedBody is one rehydrated card body
type RenderedBody struct {
	Name      string         `json:"name"`
	Tree      *markdown.Node `json:"tree"`
	Citations []CitationRef  `json:"citations"` // Every occurrence, document order
	CacheHit  bool           `json:"cache_hit"` // Extraction came from the memo
}

// Rendered is a card with its bodies rehydrated
type Rendered struct {
	Source string         `json:"source,omitempty"`
	Card   Card           `json:"card"`
	Bodies []RenderedBody `json:"bodies"`
}

// Targets returns the distinct cited targets across all bodies, in first
// appearance order
func (r Rendered) Targets() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range r.Bodies {
		for _, c := range b.Citations {
			if !seen[c.TargetID] {
				seen[c.TargetID] = true
				out = append(out, c.TargetID)
			}
		}
	}
	return out
}
