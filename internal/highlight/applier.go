// Package highlight wraps support snippets found in a card body with
// <highlight> tags before the body is rendered.
package highlight

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/cardmark/internal/model"
)

const (
	openTag  = "<highlight>"
	closeTag = "</highlight>"
)

// separatorPattern matches a table pipe or a list item marker at the start
// of a line. Highlight tags never span one of these.
var separatorPattern = regexp.MustCompile(`\||(?:^|\n)- `)

// Span is a half-open byte range of a body
type Span struct {
	Start, End int
}

// Apply wraps every snippet located in text. Snippets that cannot be found
// are skipped; overlapping or adjacent matches merge into one range.
func Apply(text string, snippets []string) string {
	var spans []Span
	for _, snippet := range snippets {
		if s, ok := Locate(text, snippet); ok {
			spans = append(spans, s)
		}
	}
	if len(spans) == 0 {
		return text
	}

	merged := merge(spans)

	var out strings.Builder
	out.Grow(len(text) + len(merged)*(len(openTag)+len(closeTag)))
	last := 0
	for _, s := range merged {
		out.WriteString(text[last:s.Start])
		out.WriteString(wrap(text[s.Start:s.End]))
		last = s.End
	}
	out.WriteString(text[last:])
	return out.String()
}

// Locate finds snippet in text, first exactly and then ignoring differences
// in whitespace runs. Blank snippets never match.
func Locate(text, snippet string) (Span, bool) {
	if strings.TrimSpace(snippet) == "" {
		return Span{}, false
	}
	if i := strings.Index(text, snippet); i >= 0 {
		return Span{i, i + len(snippet)}, true
	}
	return locateNormalized(text, strings.TrimSpace(snippet))
}

// locateNormalized collapses whitespace runs to one space on both sides and
// maps the match back to byte offsets of the original text
func locateNormalized(text, snippet string) (Span, bool) {
	normText, offsets := collapse(text)
	normSnippet, _ := collapse(snippet)

	i := strings.Index(normText, normSnippet)
	if i < 0 {
		return Span{}, false
	}

	end := i + len(normSnippet)
	startByte := offsets[i]
	endByte := len(text)
	if end < len(offsets) {
		endByte = offsets[end]
	}
	// Keep trailing whitespace of the original outside the match
	for endByte > startByte {
		r := rune(text[endByte-1])
		if r >= 0x80 || !unicode.IsSpace(r) {
			break
		}
		endByte--
	}
	return Span{startByte, endByte}, true
}

// collapse returns s with each whitespace run reduced to one space, plus the
// byte offset in s of every byte of the result
func collapse(s string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, 0, len(s))
	inSpace := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				offsets = append(offsets, i)
			}
			inSpace = true
			i += size
			continue
		}
		inSpace = false
		b.WriteString(s[i : i+size])
		for j := 0; j < size; j++ {
			offsets = append(offsets, i+j)
		}
		i += size
	}
	return b.String(), offsets
}

func merge(spans []Span) []Span {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})

	out := []Span{spans[0]}
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// wrap tags each separator-free segment of text, leaving separators and
// surrounding whitespace untagged
func wrap(text string) string {
	locs := separatorPattern.FindAllStringIndex(text, -1)

	var out strings.Builder
	last := 0
	for _, loc := range locs {
		out.WriteString(wrapSegment(text[last:loc[0]]))
		out.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	out.WriteString(wrapSegment(text[last:]))
	return out.String()
}

func wrapSegment(part string) string {
	content := strings.TrimSpace(part)
	if content == "" {
		return part
	}
	lead := part[:len(part)-len(strings.TrimLeftFunc(part, unicode.IsSpace))]
	trail := part[len(strings.TrimRightFunc(part, unicode.IsSpace)):]
	return lead + openTag + content + closeTag + trail
}

// ApplyCard returns a copy of card with its Support snippets highlighted in
// the main content. Search result cards are highlighted per snippet.
func ApplyCard(card model.Card) model.Card {
	if len(card.Support) == 0 {
		return card
	}

	if card.Type == model.CardTypeWebSearchResult {
		results := make([]model.SearchResult, len(card.Results))
		for i, r := range card.Results {
			r.Snippet = Apply(r.Snippet, card.Support)
			results[i] = r
		}
		card.Results = results
		return card
	}

	card.Content = Apply(card.Content, card.Support)
	return card
}
