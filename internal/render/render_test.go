package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/cardmark/internal/extract"
	"github.com/ppiankov/cardmark/internal/markdown"
	"github.com/ppiankov/cardmark/internal/model"
	"github.com/ppiankov/cardmark/internal/rehydrate"
)

func renderedCard(t *testing.T, card model.Card) model.Rendered {
	t.Helper()
	r := rehydrate.New(extract.NewAnnotationExtractor(), markdown.NewEngine(markdown.Options{}))

	out := model.Rendered{Card: card}
	for _, b := range card.Bodies() {
		doc, err := r.Rehydrate(b.Text)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		out.Bodies = append(out.Bodies, model.RenderedBody{Name: b.Name, Tree: doc.Root, Citations: doc.Citations})
	}
	return out
}

func testDeck() *model.Deck {
	return model.NewDeck([]model.Card{
		{ID: "n1", Type: model.CardTypeNote, Title: "Findings"},
		{ID: "w1", Type: model.CardTypeWebpage, Title: "Annual Report"},
	})
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"html": FormatHTML, " JSON ": FormatJSON, "text": FormatText, "txt": FormatText} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
	if _, err := New("pdf", nil); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat from New, got %v", err)
	}
}

func TestHTMLRenderer(t *testing.T) {
	card := renderedCard(t, model.Card{
		ID:      "n1",
		Type:    model.CardTypeNote,
		Title:   "Findings",
		Content: "Revenue grew <highlight>38% in 2023</highlight> <cardId>w1</cardId>.\n\n<excerpt>Quoted & cited <cardId>ghost</cardId></excerpt>",
	})

	var buf bytes.Buffer
	if err := (&HTMLRenderer{Labels: testDeck(), Standalone: true}).Render(&buf, []model.Rendered{card}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Findings</title>",
		`<article class="card" data-card-id="n1">`,
		`<mark class="highlight">38% in 2023</mark>`,
		`<sup class="citation" data-target="w1" title="Annual Report" style="color:#2563eb">[1]</sup>`,
		`<blockquote class="excerpt">`,
		"Quoted &amp; cited",
		`data-target="ghost" title="ghost"`,
		`<ol class="references">`,
		`<li value="2" data-target="ghost" style="color:#6b7280">ghost</li>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected HTML to contain %q\n%s", want, out)
		}
	}
}

func TestHTMLRenderer_Fragment(t *testing.T) {
	card := renderedCard(t, model.Card{ID: "x", Type: model.CardTypeNote, Content: "| a | b |\n|---|:-:|\n| **1** | 2 |\n\n---\n"})

	var buf bytes.Buffer
	if err := (&HTMLRenderer{}).Render(&buf, []model.Rendered{card}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "<html>") {
		t.Error("Expected no page wrapper for a fragment")
	}
	for _, want := range []string{"<table>", "<thead>", "<th>a</th>", `<td style="text-align:center">2</td>`, "<strong>1</strong>", "<hr/>"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected HTML to contain %q\n%s", want, out)
		}
	}
}

func TestHTMLRenderer_DropsDangerousLinks(t *testing.T) {
	card := renderedCard(t, model.Card{
		ID:      "n1",
		Type:    model.CardTypeNote,
		Content: "[click](javascript:alert(1)) and [safe](https://example.com/a)",
	})

	var buf bytes.Buffer
	r := &HTMLRenderer{}
	if err := r.Render(&buf, []model.Rendered{card}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "javascript:") {
		t.Errorf("Expected javascript: link dropped, got %s", out)
	}
	if !strings.Contains(out, "<a>click</a>") {
		t.Errorf("Expected link text kept without href, got %s", out)
	}
	if !strings.Contains(out, `<a href="https://example.com/a">safe</a>`) {
		t.Errorf("Expected safe link kept, got %s", out)
	}
}

func TestTextRenderer(t *testing.T) {
	card := renderedCard(t, model.Card{
		ID:      "n1",
		Type:    model.CardTypeNote,
		Title:   "Findings",
		Content: "Revenue grew <highlight>38%</highlight> <cardId>w1</cardId> last year.\n\n<excerpt>Quoted text</excerpt>\n\n- one\n- two",
	})

	var buf bytes.Buffer
	if err := (&TextRenderer{Labels: testDeck()}).Render(&buf, []model.Rendered{card}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := "Findings\n" +
		"========\n" +
		"\n" +
		"Revenue grew ==38%== [1] last year.\n" +
		"\n" +
		"> Quoted text\n" +
		"\n" +
		"- one\n" +
		"- two\n" +
		"\n" +
		"[1] Annual Report (w1)\n"
	if got := buf.String(); got != want {
		t.Errorf("Unexpected text output.\nwant:\n%q\ngot:\n%q", want, got)
	}
}

func TestTextRenderer_CitationSpacing(t *testing.T) {
	card := renderedCard(t, model.Card{ID: "n", Type: model.CardTypeNote, Content: "see <cardId>a</cardId> now and end <cardId>b</cardId>."})

	got := (&TextRenderer{}).Document(card.Bodies[0].Tree)
	if got != "see[1] now and end[2]." {
		t.Errorf("Unexpected text: %q", got)
	}
}

func TestJSONRenderer(t *testing.T) {
	card := renderedCard(t, model.Card{ID: "n1", Type: model.CardTypeNote, Content: "a <cardId>w1</cardId>"})

	var buf bytes.Buffer
	if err := (&JSONRenderer{}).Render(&buf, []model.Rendered{card}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var doc struct {
		Cards []struct {
			Card   model.Card `json:"card"`
			Bodies []struct {
				Name      string              `json:"name"`
				Tree      *markdown.Node      `json:"tree"`
				Citations []model.CitationRef `json:"citations"`
			} `json:"bodies"`
		} `json:"cards"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if len(doc.Cards) != 1 || doc.Cards[0].Card.ID != "n1" {
		t.Fatalf("Unexpected cards: %+v", doc.Cards)
	}
	body := doc.Cards[0].Bodies[0]
	if body.Name != "content" || len(body.Citations) != 1 || body.Citations[0].TargetID != "w1" {
		t.Errorf("Unexpected body: %+v", body)
	}
	if body.Tree.Kind != markdown.KindDocument {
		t.Errorf("Expected document tree, got %s", body.Tree.Kind)
	}

	buf.Reset()
	_ = (&JSONRenderer{}).Render(&buf, nil)
	if !strings.Contains(buf.String(), `"cards":[]`) {
		t.Errorf("Expected empty card list, got %s", buf.String())
	}
}
