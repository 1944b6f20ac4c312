package extract

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/ppiankov/cardmark/internal/model"
)

const (
	highlightOpen     = "<highlight>"
	highlightClose    = "</highlight>"
	highlightAltClose = "<highlight/>"

	boldMarker = "**"
)

var (
	// excerptPattern matches to the nearest terminator; excerpts do not nest.
	excerptPattern = regexp.MustCompile(`(?s)<excerpt>(.*?)(?:</excerpt>|<excerpt/>)`)

	// citationPattern is the <cardId> form. RE2 has no backreferences, so the
	// matching-quote rule is spelled out as three alternatives.
	citationPattern = regexp.MustCompile(`<cardId>(?:'([^'"<>]+)'|"([^'"<>]+)"|([^'"<>]+))(?:</cardId/?>|<cardId/>)`)

	// legacyCitationPattern is the <cite><agent_id>..<card_id>..</cite> form.
	legacyCitationPattern = regexp.MustCompile(`<cite><agent_id>'?([^'<>]+?)'?(?:</agent_id>|<agent_id/>)<card_id>'?([^'<>]+?)'?(?:</card_id>|<card_id/>)(?:</cite>|<cite/>)`)

	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

	highlightPlaceholderPattern = regexp.MustCompile(`%%HIGHLIGHT_\d+%%`)

	// PlaceholderPattern matches any placeholder token
	PlaceholderPattern = regexp.MustCompile(`%%(CITATION|EXCERPT|HIGHLIGHT)_(\d+)%%`)
)

// CleanTargetID strips every character outside [a-zA-Z0-9]
func CleanTargetID(raw string) string {
	return nonAlphanumeric.ReplaceAllString(raw, "")
}

// Placeholder formats the token for kind and index
func Placeholder(kind model.AnnotationKind, n int) string {
	return fmt.Sprintf("%%%%%s_%d%%%%", kind, n)
}

// ParsePlaceholder reports the kind and index of a placeholder token
func ParsePlaceholder(token string) (model.AnnotationKind, int, bool) {
	m := PlaceholderPattern.FindStringSubmatch(token)
	if m == nil || m[0] != token {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return model.AnnotationKind(m[1]), n, true
}

// Sequence allocates placeholders. One Sequence is shared by a top-level
// invocation and all of its recursive descendants.
type Sequence struct {
	next model.Counters
}

// NewSequence starts a sequence at the given counter state
func NewSequence(start model.Counters) *Sequence {
	return &Sequence{next: start}
}

// Next allocates the next placeholder of kind
func (s *Sequence) Next(kind model.AnnotationKind) string {
	var n int
	switch kind {
	case model.KindCitation:
		n = s.next.Citation
		s.next.Citation++
	case model.KindExcerpt:
		n = s.next.Excerpt
		s.next.Excerpt++
	case model.KindHighlight:
		n = s.next.Highlight
		s.next.Highlight++
	}
	return Placeholder(kind, n)
}

// State returns the counters that the next allocation will use
func (s *Sequence) State() model.Counters {
	return s.next
}
