package model

// AnnotationKind names one of the three inline annotation families
type AnnotationKind string

const (
	KindCitation  AnnotationKind = "CITATION"  // Reference to another card
	KindExcerpt   AnnotationKind = "EXCERPT"   // Quoted sub-block, itself markdown
	KindHighlight AnnotationKind = "HIGHLIGHT" // Evidentiary span
)

// Citation is a reference to another unit of content by identifier
type Citation struct {
	TargetID    string `json:"target_id"`   // Cleaned identifier, [a-zA-Z0-9]* only
	Placeholder string `json:"placeholder"` // e.g. %%CITATION_0%%
}

// Excerpt is a quoted block. Content is the raw, still-annotated text
// between the excerpt tags.
type Excerpt struct {
	Content     string     `json:"content"`
	Placeholder string     `json:"placeholder"`
	Citations   []Citation `json:"citations,omitempty"` // Citations found inside Content
}

// Highlight is a span called out as evidentiary support. Content is the
// resolved innermost text with citations already replaced by placeholders.
type Highlight struct {
	Content     string `json:"content"`
	Placeholder string `json:"placeholder"`
}

// Counters holds the next unused placeholder index per kind
type Counters struct {
	Citation  int `json:"citation"`
	Excerpt   int `json:"excerpt"`
	Highlight int `json:"highlight"`
}

// Extraction is the output of one extractor invocation
type Extraction struct {
	Text       string      `json:"substituted_text"`
	Citations  []Citation  `json:"citations"`
	Excerpts   []Excerpt   `json:"excerpts"`
	Highlights []Highlight `json:"highlights"`

	// Next is the counter state after this invocation. Continuing from it
	// keeps placeholders unique across recursive invocations.
	Next Counters `json:"next"`
}

// Placeholders returns every placeholder allocated by the extraction,
// including those recorded inside excerpts
func (e Extraction) Placeholders() []string {
	var out []string
	for _, c := range e.Citations {
		out = append(out, c.Placeholder)
	}
	for _, ex := range e.Excerpts {
		out = append(out, ex.Placeholder)
		for _, c := range ex.Citations {
			out = append(out, c.Placeholder)
		}
	}
	for _, h := range e.Highlights {
		out = append(out, h.Placeholder)
	}
	return out
}
