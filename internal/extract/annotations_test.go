package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/cardmark/internal/model"
)

func TestExtract_PlainTextRoundTrip(t *testing.T) {
	extractor := NewAnnotationExtractor()

	inputs := []string{
		"",
		"Just **bold** and _italic_ text.",
		"| a | b |\n|---|---|\n| 1 | 2 |\n",
		"A lone < and a > and 100% sure.",
	}

	for _, input := range inputs {
		result := extractor.Extract(input)
		if result.Text != input {
			t.Errorf("Expected text %q unchanged, got %q", input, result.Text)
		}
		if len(result.Citations) != 0 || len(result.Excerpts) != 0 || len(result.Highlights) != 0 {
			t.Errorf("Expected empty side tables for %q, got %+v", input, result)
		}
	}
}

func TestExtract_CitationNewForm(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract(`A <cardId>abc-123</cardId> B <cardId>'x_1'<cardId/> C <cardId>"y"</cardId/>`)

	wantText := "A %%CITATION_0%% B %%CITATION_1%% C %%CITATION_2%%"
	if result.Text != wantText {
		t.Errorf("Expected text %q, got %q", wantText, result.Text)
	}

	want := []model.Citation{
		{TargetID: "abc123", Placeholder: "%%CITATION_0%%"},
		{TargetID: "x1", Placeholder: "%%CITATION_1%%"},
		{TargetID: "y", Placeholder: "%%CITATION_2%%"},
	}
	if diff := cmp.Diff(want, result.Citations); diff != "" {
		t.Errorf("Citations mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_CitationMismatchedQuotesStayLiteral(t *testing.T) {
	extractor := NewAnnotationExtractor()

	input := `See <cardId>'abc"</cardId> here`
	result := extractor.Extract(input)

	if result.Text != input {
		t.Errorf("Expected literal text, got %q", result.Text)
	}
	if len(result.Citations) != 0 {
		t.Errorf("Expected no citations, got %d", len(result.Citations))
	}
}

func TestExtract_CitationLegacyForm(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract(
		`One <cite><agent_id>'agent-1'</agent_id><card_id>'card-9'</card_id></cite> ` +
			`two <cite><agent_id>a<agent_id/><card_id>b<card_id/><cite/>`)

	wantText := "One %%CITATION_0%% two %%CITATION_1%%"
	if result.Text != wantText {
		t.Errorf("Expected text %q, got %q", wantText, result.Text)
	}
	if len(result.Citations) != 2 {
		t.Fatalf("Expected 2 citations, got %d", len(result.Citations))
	}
	if result.Citations[0].TargetID != "card9" {
		t.Errorf("Expected agent id discarded and target 'card9', got %q", result.Citations[0].TargetID)
	}
	if result.Citations[1].TargetID != "b" {
		t.Errorf("Expected target 'b', got %q", result.Citations[1].TargetID)
	}
}

func TestExtract_NewFormBeforeLegacy(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract(`<cardId>a</cardId> <cite><agent_id>z</agent_id><card_id>b</card_id></cite> <cardId>c</cardId>`)

	wantText := "%%CITATION_0%% %%CITATION_2%% %%CITATION_1%%"
	if result.Text != wantText {
		t.Errorf("Expected text %q, got %q", wantText, result.Text)
	}
	got := []string{result.Citations[0].TargetID, result.Citations[1].TargetID, result.Citations[2].TargetID}
	if diff := cmp.Diff([]string{"a", "c", "b"}, got); diff != "" {
		t.Errorf("Citation order mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_EmptyTargetStillRecorded(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("x <cardId>---</cardId> y")

	if len(result.Citations) != 1 {
		t.Fatalf("Expected 1 citation, got %d", len(result.Citations))
	}
	if result.Citations[0].TargetID != "" {
		t.Errorf("Expected empty target id, got %q", result.Citations[0].TargetID)
	}
	if result.Text != "x %%CITATION_0%% y" {
		t.Errorf("Unexpected text: %q", result.Text)
	}
}

func TestExtract_ExcerptKeepsOwnCitations(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract(`Intro <excerpt>Quote <cardId>c1</cardId></excerpt> outro <cardId>c2</cardId>`)

	if result.Text != "Intro %%EXCERPT_0%% outro %%CITATION_0%%" {
		t.Errorf("Unexpected text: %q", result.Text)
	}

	want := []model.Citation{{TargetID: "c2", Placeholder: "%%CITATION_0%%"}}
	if diff := cmp.Diff(want, result.Citations); diff != "" {
		t.Errorf("Outer citations mismatch (-want +got):\n%s", diff)
	}

	if len(result.Excerpts) != 1 {
		t.Fatalf("Expected 1 excerpt, got %d", len(result.Excerpts))
	}
	excerpt := result.Excerpts[0]
	if excerpt.Content != "Quote <cardId>c1</cardId>" {
		t.Errorf("Expected raw excerpt content, got %q", excerpt.Content)
	}
	wantInner := []model.Citation{{TargetID: "c1", Placeholder: "%%CITATION_1%%"}}
	if diff := cmp.Diff(wantInner, excerpt.Citations); diff != "" {
		t.Errorf("Excerpt citations mismatch (-want +got):\n%s", diff)
	}

	// Re-running on the excerpt content reproduces the same targets
	rerun := extractor.Extract(excerpt.Content)
	if len(rerun.Citations) != 1 || rerun.Citations[0].TargetID != "c1" {
		t.Errorf("Expected re-run to find c1, got %+v", rerun.Citations)
	}
}

func TestExtract_ExcerptTerminators(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("<excerpt>a<excerpt/> and <excerpt>b</excerpt>")

	if result.Text != "%%EXCERPT_0%% and %%EXCERPT_1%%" {
		t.Errorf("Unexpected text: %q", result.Text)
	}
	if len(result.Excerpts) != 2 {
		t.Fatalf("Expected 2 excerpts, got %d", len(result.Excerpts))
	}
	if result.Excerpts[0].Content != "a" || result.Excerpts[1].Content != "b" {
		t.Errorf("Unexpected excerpt contents: %+v", result.Excerpts)
	}
}

func TestExtract_ExcerptMultiline(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("<excerpt>line one\n\nline two</excerpt>")

	if len(result.Excerpts) != 1 {
		t.Fatalf("Expected 1 excerpt, got %d", len(result.Excerpts))
	}
	if result.Excerpts[0].Content != "line one\n\nline two" {
		t.Errorf("Unexpected content: %q", result.Excerpts[0].Content)
	}
}

func TestExtract_UnclosedExcerptIsLiteral(t *testing.T) {
	extractor := NewAnnotationExtractor()

	input := "before <excerpt>never closed"
	result := extractor.Extract(input)

	if result.Text != input {
		t.Errorf("Expected literal text, got %q", result.Text)
	}
	if len(result.Excerpts) != 0 {
		t.Errorf("Expected no excerpts, got %d", len(result.Excerpts))
	}
}

func TestExtract_HighlightWithCitation(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("See <highlight>big <cardId>x</cardId> news</highlight>.")

	if result.Text != "See %%HIGHLIGHT_0%%." {
		t.Errorf("Unexpected text: %q", result.Text)
	}
	want := []model.Highlight{{Content: "big %%CITATION_0%% news", Placeholder: "%%HIGHLIGHT_0%%"}}
	if diff := cmp.Diff(want, result.Highlights); diff != "" {
		t.Errorf("Highlights mismatch (-want +got):\n%s", diff)
	}
	if len(result.Citations) != 1 || result.Citations[0].TargetID != "x" {
		t.Errorf("Expected citation x in outer table, got %+v", result.Citations)
	}
}

func TestExtract_HighlightLegacyCitation(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("<highlight><cite><agent_id>a</agent_id><card_id>k1</card_id></cite> fact</highlight>")

	if len(result.Highlights) != 1 {
		t.Fatalf("Expected 1 highlight, got %d", len(result.Highlights))
	}
	if result.Highlights[0].Content != "%%CITATION_0%% fact" {
		t.Errorf("Unexpected highlight content: %q", result.Highlights[0].Content)
	}
	if result.Citations[0].TargetID != "k1" {
		t.Errorf("Expected target k1, got %q", result.Citations[0].TargetID)
	}
}

func TestExtract_NestedHighlightCollapse(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("<highlight><highlight>X</highlight></highlight>")

	referenced := PlaceholderPattern.FindAllString(result.Text, -1)
	if len(referenced) != 1 {
		t.Fatalf("Expected exactly one placeholder in text, got %v", referenced)
	}

	var found *model.Highlight
	for i := range result.Highlights {
		if result.Highlights[i].Placeholder == referenced[0] {
			found = &result.Highlights[i]
		}
	}
	if found == nil {
		t.Fatalf("Placeholder %s not in highlight table", referenced[0])
	}
	if found.Content != "X" {
		t.Errorf("Expected collapsed content 'X', got %q", found.Content)
	}
	if referenced[0] != "%%HIGHLIGHT_1%%" {
		t.Errorf("Expected outer placeholder to replace inner, got %s", referenced[0])
	}
}

func TestExtract_CollapsedHighlightLeavesNoOrphanCitation(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("<highlight><highlight>X <cardId>a</cardId></highlight></highlight>")

	want := []model.Citation{{TargetID: "a", Placeholder: "%%CITATION_0%%"}}
	if diff := cmp.Diff(want, result.Citations); diff != "" {
		t.Errorf("Citations mismatch (-want +got):\n%s", diff)
	}
	if result.Text != "%%HIGHLIGHT_1%%" {
		t.Fatalf("Expected outer placeholder only, got %q", result.Text)
	}
	for _, h := range result.Highlights {
		if h.Placeholder == "%%HIGHLIGHT_1%%" && h.Content != "X %%CITATION_0%%" {
			t.Errorf("Expected reachable highlight to hold the citation, got %q", h.Content)
		}
	}
}

func TestExtract_HighlightInsideExcerptKeepsCitations(t *testing.T) {
	result := NewAnnotationExtractor().Extract("<excerpt>see <highlight>h <cardId>b</cardId></highlight></excerpt>")

	if len(result.Citations) != 1 || result.Citations[0].TargetID != "b" {
		t.Errorf("Expected citation b from highlight inside excerpt, got %+v", result.Citations)
	}
}

func TestExtract_BoldCitationIDInsideHighlight(t *testing.T) {
	result := NewAnnotationExtractor().Extract("<highlight>a <cardId>**</cardId> **b</highlight>")

	if result.Text != "%%HIGHLIGHT_0%%" {
		t.Errorf("Expected no relocated marker, got %q", result.Text)
	}
	if len(result.Highlights) != 1 || result.Highlights[0].Content != "a %%CITATION_0%% **b" {
		t.Errorf("Expected citation substituted after rebalancing, got %+v", result.Highlights)
	}
	if len(result.Citations) != 1 || result.Citations[0].TargetID != "" {
		t.Errorf("Expected one citation with an empty target, got %+v", result.Citations)
	}
}

func TestExtract_TripleNestedHighlight(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("<highlight><highlight><highlight>X</highlight></highlight></highlight>")

	if result.Text != "%%HIGHLIGHT_2%%" {
		t.Errorf("Unexpected text: %q", result.Text)
	}
	if len(result.Highlights) != 3 {
		t.Fatalf("Expected 3 allocated highlights, got %d", len(result.Highlights))
	}
	if result.Highlights[2].Content != "X" {
		t.Errorf("Expected innermost content, got %q", result.Highlights[2].Content)
	}
}

func TestExtract_NestedHighlightWithSurroundingText(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("<highlight>a <highlight>b</highlight> c</highlight>")

	if result.Text != "a %%HIGHLIGHT_1%% c" {
		t.Errorf("Unexpected text: %q", result.Text)
	}
	if result.Highlights[1].Content != "b" {
		t.Errorf("Expected outer to carry inner content, got %q", result.Highlights[1].Content)
	}
}

func TestExtract_SiblingHighlights(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("<highlight>a</highlight> and <highlight>b<highlight/>")

	if result.Text != "%%HIGHLIGHT_0%% and %%HIGHLIGHT_1%%" {
		t.Errorf("Unexpected text: %q", result.Text)
	}
	want := []model.Highlight{
		{Content: "a", Placeholder: "%%HIGHLIGHT_0%%"},
		{Content: "b", Placeholder: "%%HIGHLIGHT_1%%"},
	}
	if diff := cmp.Diff(want, result.Highlights); diff != "" {
		t.Errorf("Highlights mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_UnmatchedHighlightIsLiteral(t *testing.T) {
	extractor := NewAnnotationExtractor()

	tests := []string{
		"before <highlight>after <highlight>x</highlight>",
		"a </highlight> b",
		"<highlight>open forever",
	}

	for _, input := range tests {
		result := extractor.Extract(input)
		if result.Text != input {
			t.Errorf("Expected %q unchanged, got %q", input, result.Text)
		}
		if len(result.Highlights) != 0 {
			t.Errorf("Expected no highlights for %q, got %d", input, len(result.Highlights))
		}
	}
}

func TestExtract_HighlightStopsScanAfterUnmatched(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("<highlight>ok</highlight> then <highlight>broken")

	if result.Text != "%%HIGHLIGHT_0%% then <highlight>broken" {
		t.Errorf("Unexpected text: %q", result.Text)
	}
}

func TestExtract_ExcerptNotRunOverHighlightContent(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("<highlight>x <excerpt>q</excerpt></highlight>")

	if len(result.Excerpts) != 0 {
		t.Errorf("Expected no excerpts, got %d", len(result.Excerpts))
	}
	if result.Highlights[0].Content != "x <excerpt>q</excerpt>" {
		t.Errorf("Unexpected highlight content: %q", result.Highlights[0].Content)
	}
}

func TestExtract_HighlightInsideExcerpt(t *testing.T) {
	extractor := NewAnnotationExtractor()

	result := extractor.Extract("<excerpt>see <highlight>h</highlight></excerpt>")

	if result.Text != "%%EXCERPT_0%%" {
		t.Errorf("Unexpected text: %q", result.Text)
	}
	if result.Excerpts[0].Content != "see %%HIGHLIGHT_0%%" {
		t.Errorf("Unexpected excerpt content: %q", result.Excerpts[0].Content)
	}
	if result.Highlights[0].Content != "h" {
		t.Errorf("Unexpected highlight content: %q", result.Highlights[0].Content)
	}
}

func TestExtract_PlaceholdersUniqueAndBalanced(t *testing.T) {
	extractor := NewAnnotationExtractor()

	input := `# Report <cardId>a</cardId>

**<highlight>**bold start <cardId>b</cardId></highlight>** and <highlight>x **y** z</highlight>

<excerpt>quoted <cardId>c</cardId> <cite><agent_id>q</agent_id><card_id>d</card_id></cite>
<highlight>inside **quote</highlight></excerpt>

<highlight><highlight>deep <cardId>e</cardId></highlight></highlight> <cardId>a</cardId>`

	result := extractor.Extract(input)

	seen := make(map[string]bool)
	for _, p := range result.Placeholders() {
		if seen[p] {
			t.Errorf("Placeholder %s issued twice", p)
		}
		seen[p] = true
	}

	for _, h := range result.Highlights {
		if n := strings.Count(h.Content, "**"); n%2 != 0 {
			t.Errorf("Highlight %s has odd ** count %d in %q", h.Placeholder, n, h.Content)
		}
	}

	if strings.Contains(result.Text, "<highlight>") || strings.Contains(result.Text, "<excerpt>") || strings.Contains(result.Text, "<cardId>") {
		t.Errorf("Expected all tags extracted, got %q", result.Text)
	}
}

func TestExtract_MaxDepthGuard(t *testing.T) {
	extractor := NewAnnotationExtractor(WithMaxDepth(1))

	result := extractor.Extract("<highlight><highlight>X</highlight></highlight>")

	if result.Text != "%%HIGHLIGHT_0%%" {
		t.Errorf("Unexpected text: %q", result.Text)
	}
	if len(result.Highlights) != 1 {
		t.Fatalf("Expected 1 highlight, got %d", len(result.Highlights))
	}
	if result.Highlights[0].Content != "<highlight>X</highlight>" {
		t.Errorf("Expected nested tag kept literal past the guard, got %q", result.Highlights[0].Content)
	}
}

func TestExtract_PathologicalNestingDoesNotRecurseForever(t *testing.T) {
	extractor := NewAnnotationExtractor(WithMaxDepth(8))

	depth := 5000
	input := strings.Repeat("<highlight>", depth) + "core" + strings.Repeat("</highlight>", depth)
	result := extractor.Extract(input)

	if len(result.Highlights) == 0 {
		t.Fatal("Expected at least one highlight")
	}
	if len(result.Highlights) > 8 {
		t.Errorf("Expected at most 8 resolved levels, got %d", len(result.Highlights))
	}
}

func TestExtractWith_ContinuesSequence(t *testing.T) {
	extractor := NewAnnotationExtractor()

	seq := NewSequence(model.Counters{Citation: 5, Highlight: 2})
	result := extractor.ExtractWith("<highlight>h</highlight> <cardId>z</cardId>", seq)

	if result.Text != "%%HIGHLIGHT_2%% %%CITATION_5%%" {
		t.Errorf("Unexpected text: %q", result.Text)
	}
	want := model.Counters{Citation: 6, Excerpt: 0, Highlight: 3}
	if result.Next != want {
		t.Errorf("Expected next counters %+v, got %+v", want, result.Next)
	}
}

func TestCleanTargetID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123", "abc123"},
		{" card-42 ", "card42"},
		{"'quoted'", "quoted"},
		{"a_b.c/d", "abcd"},
		{"中文id7", "id7"},
		{"---", ""},
	}

	for _, tt := range tests {
		if got := CleanTargetID(tt.in); got != tt.want {
			t.Errorf("CleanTargetID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsePlaceholder(t *testing.T) {
	kind, n, ok := ParsePlaceholder("%%EXCERPT_12%%")
	if !ok || kind != model.KindExcerpt || n != 12 {
		t.Errorf("Expected EXCERPT 12, got %s %d %v", kind, n, ok)
	}

	for _, bad := range []string{"%%EXCERPT_%%", "x%%CITATION_1%%", "%%QUOTE_1%%", ""} {
		if _, _, ok := ParsePlaceholder(bad); ok {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}

	if got := Placeholder(model.KindCitation, 3); got != "%%CITATION_3%%" {
		t.Errorf("Expected %%%%CITATION_3%%%%, got %s", got)
	}
}
