package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/cardmark/internal/model"
)

// DefaultMaxDepth bounds highlight nesting
const DefaultMaxDepth = 32

// AnnotationExtractor decomposes annotated text into placeholder-substituted
// text plus citation, excerpt and highlight side tables. It holds no state
// between calls and is safe for concurrent use.
type AnnotationExtractor struct {
	maxDepth int
}

// Option configures an AnnotationExtractor
type Option func(*AnnotationExtractor)

// WithMaxDepth sets the highlight nesting guard. Values <= 0 keep the default.
func WithMaxDepth(n int) Option {
	return func(e *AnnotationExtractor) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// NewAnnotationExtractor creates a new annotation extractor
func NewAnnotationExtractor(opts ...Option) *AnnotationExtractor {
	e := &AnnotationExtractor{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDepth returns the configured nesting guard
func (e *AnnotationExtractor) MaxDepth() int {
	return e.maxDepth
}

// Extract runs a fresh invocation with counters starting at zero
func (e *AnnotationExtractor) Extract(text string) model.Extraction {
	return e.ExtractWith(text, NewSequence(model.Counters{}))
}

// ExtractWith runs an invocation that allocates placeholders from seq.
// Recursive invocations belonging to one render share a Sequence so no
// placeholder is ever issued twice.
func (e *AnnotationExtractor) ExtractWith(text string, seq *Sequence) model.Extraction {
	resolver := newHighlightResolver(seq, e.maxDepth)
	outer := resolver.resolve(text, 0)
	highlights := resolver.highlights

	var excerpts []model.Excerpt
	outer = replaceMatches(outer, excerptPattern, func(groups []string) string {
		placeholder := seq.Next(model.KindExcerpt)
		excerpts = append(excerpts, model.Excerpt{
			Content:     groups[1],
			Placeholder: placeholder,
		})
		return placeholder
	})

	var citations []model.Citation
	outer = extractCitations(outer, citationPattern, cardIDCapture, seq, &citations)

	// Excerpt content stays raw; its citations are recorded on the excerpt
	for i := range excerpts {
		extractCitations(excerpts[i].Content, citationPattern, cardIDCapture, seq, &excerpts[i].Citations)
	}

	outer = extractCitations(outer, legacyCitationPattern, legacyCapture, seq, &citations)
	for i := range excerpts {
		extractCitations(excerpts[i].Content, legacyCitationPattern, legacyCapture, seq, &excerpts[i].Citations)
	}

	// Bold parity was fixed during resolution, so a citation id made of **
	// leaves an odd count once the citation is substituted below.
	reachable := reachableHighlights(outer, excerpts, highlights)
	for i := range highlights {
		// Entries left behind by a direct-nesting collapse get no citations
		if !reachable[highlights[i].Placeholder] {
			continue
		}
		content := extractCitations(highlights[i].Content, citationPattern, cardIDCapture, seq, &citations)
		highlights[i].Content = extractCitations(content, legacyCitationPattern, legacyCapture, seq, &citations)
	}

	return model.Extraction{
		Text:       outer,
		Citations:  citations,
		Excerpts:   excerpts,
		Highlights: highlights,
		Next:       seq.State(),
	}
}

// reachableHighlights returns the highlight placeholders referenced from the
// outer text or excerpt content, directly or through other highlights
func reachableHighlights(outer string, excerpts []model.Excerpt, highlights []model.Highlight) map[string]bool {
	content := make(map[string]string, len(highlights))
	for _, h := range highlights {
		content[h.Placeholder] = h.Content
	}

	pending := []string{outer}
	for _, e := range excerpts {
		pending = append(pending, e.Content)
	}

	reachable := make(map[string]bool)
	for len(pending) > 0 {
		text := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		for _, token := range PlaceholderPattern.FindAllString(text, -1) {
			c, ok := content[token]
			if !ok || reachable[token] {
				continue
			}
			reachable[token] = true
			pending = append(pending, c)
		}
	}
	return reachable
}

// cardIDCapture picks whichever quote alternative matched
func cardIDCapture(groups []string) string {
	for _, g := range groups[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// legacyCapture discards the agent id and keeps the card id
func legacyCapture(groups []string) string {
	return groups[2]
}

func extractCitations(text string, re *regexp.Regexp, capture func([]string) string, seq *Sequence, into *[]model.Citation) string {
	return replaceMatches(text, re, func(groups []string) string {
		placeholder := seq.Next(model.KindCitation)
		*into = append(*into, model.Citation{
			TargetID:    CleanTargetID(capture(groups)),
			Placeholder: placeholder,
		})
		return placeholder
	})
}

// replaceMatches substitutes each left-to-right match of re with fn's result
func replaceMatches(text string, re *regexp.Regexp, fn func(groups []string) string) string {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))

	last := 0
	for _, loc := range locs {
		groups := make([]string, len(loc)/2)
		for g := range groups {
			if loc[2*g] >= 0 {
				groups[g] = text[loc[2*g]:loc[2*g+1]]
			}
		}
		out.WriteString(text[last:loc[0]])
		out.WriteString(fn(groups))
		last = loc[1]
	}
	out.WriteString(text[last:])

	return out.String()
}
