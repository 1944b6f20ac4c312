package extract

import (
	"strings"

	"github.com/ppiankov/cardmark/internal/model"
)

// highlightResolver resolves nested <highlight> tags for one invocation
type highlightResolver struct {
	seq        *Sequence
	maxDepth   int
	highlights []model.Highlight
	index      map[string]int
}

func newHighlightResolver(seq *Sequence, maxDepth int) *highlightResolver {
	return &highlightResolver{
		seq:      seq,
		maxDepth: maxDepth,
		index:    make(map[string]int),
	}
}

// resolve replaces every matched highlight in text with its placeholder.
// An unmatched open tag, or nesting deeper than maxDepth, leaves the rest of
// text untouched and stops the scan.
func (r *highlightResolver) resolve(text string, depth int) string {
	var out strings.Builder
	out.Grow(len(text))

	i := 0
	for i < len(text) {
		rel := strings.Index(text[i:], highlightOpen)
		if rel < 0 {
			out.WriteString(text[i:])
			break
		}

		openPos := i + rel
		out.WriteString(text[i:openPos])

		bodyStart := openPos + len(highlightOpen)
		closePos, closeEnd, ok := matchHighlightClose(text, bodyStart)
		if !ok || depth >= r.maxDepth {
			out.WriteString(text[openPos:])
			break
		}

		processed := r.resolve(text[bodyStart:closePos], depth+1)
		placeholder := r.seq.Next(model.KindHighlight)

		if loc := highlightPlaceholderPattern.FindStringIndex(processed); loc != nil {
			if inner, found := r.index[processed[loc[0]:loc[1]]]; found {
				// Direct nesting: the outer span takes over the inner span's
				// content and position. The inner entry stays unreferenced.
				r.add(placeholder, r.highlights[inner].Content)
				out.WriteString(processed[:loc[0]])
				out.WriteString(placeholder)
				out.WriteString(processed[loc[1]:])
				i = closeEnd
				continue
			}
		}

		tightLeft := openPos >= len(boldMarker) && text[openPos-len(boldMarker):openPos] == boldMarker
		tightRight := strings.HasPrefix(text[closeEnd:], boldMarker)
		split := rebalanceBold(processed, tightLeft, tightRight)

		r.add(placeholder, split.inner)
		out.WriteString(split.prefix)
		out.WriteString(placeholder)
		out.WriteString(split.suffix)

		i = closeEnd
	}

	return out.String()
}

func (r *highlightResolver) add(placeholder, content string) {
	r.index[placeholder] = len(r.highlights)
	r.highlights = append(r.highlights, model.Highlight{
		Content:     content,
		Placeholder: placeholder,
	})
}

// matchHighlightClose finds the close tag that returns the depth to zero,
// starting just after an open tag. Both </highlight> and <highlight/> close.
func matchHighlightClose(text string, from int) (closeStart, closeEnd int, ok bool) {
	depth := 1
	for j := from; j < len(text); {
		rel := strings.IndexByte(text[j:], '<')
		if rel < 0 {
			break
		}
		j += rel
		rest := text[j:]

		switch {
		case strings.HasPrefix(rest, highlightOpen):
			depth++
			j += len(highlightOpen)
		case strings.HasPrefix(rest, highlightClose):
			depth--
			if depth == 0 {
				return j, j + len(highlightClose), true
			}
			j += len(highlightClose)
		case strings.HasPrefix(rest, highlightAltClose):
			depth--
			if depth == 0 {
				return j, j + len(highlightAltClose), true
			}
			j += len(highlightAltClose)
		default:
			j++
		}
	}
	return 0, 0, false
}
