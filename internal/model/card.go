package model

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CardType classifies a card by the agent that produced it
type CardType string

const (
	CardTypeNote            CardType = "note"              // Research note, markdown with citations
	CardTypeWebpage         CardType = "webpage"           // Scraped page converted to markdown
	CardTypeWebSearchResult CardType = "web_search_result" // Search query plus result snippets
	CardTypeUserRequirement CardType = "user_requirement"  // The user's request
)

// DisplayName returns the label shown for the card type
func (t CardType) DisplayName() string {
	switch t {
	case CardTypeNote:
		return "Research Note"
	case CardTypeWebpage:
		return "Webpage"
	case CardTypeWebSearchResult:
		return "Search Result"
	case CardTypeUserRequirement:
		return "User Information"
	default:
		return "Card"
	}
}

// Color returns the accent color used for citations pointing at this type
func (t CardType) Color() string {
	switch t {
	case CardTypeNote:
		return "#7c3aed"
	case CardTypeWebpage:
		return "#2563eb"
	case CardTypeWebSearchResult:
		return "#059669"
	case CardTypeUserRequirement:
		return "#d97706"
	default:
		return "#6b7280"
	}
}

// SearchResult is one entry of a web search result card
type SearchResult struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// Card is a unit of researcher-facing content
type Card struct {
	ID      string         `json:"card_id" yaml:"card_id"`
	Type    CardType       `json:"card_type" yaml:"card_type"`
	Title   string         `json:"card_title,omitempty" yaml:"card_title,omitempty"`
	Status  string         `json:"status,omitempty" yaml:"status,omitempty"`
	Content string         `json:"content,omitempty" yaml:"content,omitempty"` // Annotated markdown body
	URL     string         `json:"url,omitempty" yaml:"url,omitempty"`
	Summary string         `json:"summary,omitempty" yaml:"summary,omitempty"`
	Query   string         `json:"search_query,omitempty" yaml:"search_query,omitempty"`
	Results []SearchResult `json:"search_result_list,omitempty" yaml:"search_result_list,omitempty"`

	// Support lists snippets to wrap in highlight tags before rendering
	Support []string `json:"support_content_list,omitempty" yaml:"support_content_list,omitempty"`

	RefsExplicit []string `json:"card_ref_explicit,omitempty" yaml:"card_ref_explicit,omitempty"`
	RefsImplicit []string `json:"card_ref_implicit,omitempty" yaml:"card_ref_implicit,omitempty"`
}

// Body is one annotated text block belonging to a card
type Body struct {
	Name string // "content", "summary", "result[0]"...
	Text string
}

// Bodies returns the annotated text blocks of the card in display order
func (c Card) Bodies() []Body {
	var bodies []Body
	switch c.Type {
	case CardTypeWebSearchResult:
		for i, r := range c.Results {
			if strings.TrimSpace(r.Snippet) == "" {
				continue
			}
			bodies = append(bodies, Body{Name: fmt.Sprintf("result[%d]", i), Text: r.Snippet})
		}
	default:
		if c.Content != "" {
			bodies = append(bodies, Body{Name: "content", Text: c.Content})
		}
		if c.Summary != "" {
			bodies = append(bodies, Body{Name: "summary", Text: c.Summary})
		}
	}
	return bodies
}

// DisplayTitle returns the best human label for the card
func (c Card) DisplayTitle() string {
	switch {
	case c.Title != "":
		return c.Title
	case c.Query != "":
		return c.Query
	case c.URL != "":
		return c.URL
	default:
		return c.ID
	}
}

// Deck is an ordered set of cards addressable by ID
type Deck struct {
	Cards []Card `json:"cards" yaml:"cards"`

	index map[string]int
}

// NewDeck builds a deck from cards
func NewDeck(cards []Card) *Deck {
	d := &Deck{Cards: cards}
	d.reindex()
	return d
}

func (d *Deck) reindex() {
	d.index = make(map[string]int, len(d.Cards))
	for i, c := range d.Cards {
		d.index[c.ID] = i
	}
}

// Lookup returns the card with the given ID
func (d *Deck) Lookup(id string) (Card, bool) {
	if d == nil {
		return Card{}, false
	}
	if d.index == nil {
		d.reindex()
	}
	i, ok := d.index[id]
	if !ok {
		return Card{}, false
	}
	return d.Cards[i], true
}

// Label satisfies the presentation layer's target lookup
func (d *Deck) Label(targetID string) (label string, color string, ok bool) {
	card, found := d.Lookup(targetID)
	if !found {
		return "", "", false
	}
	return card.DisplayTitle(), card.Type.Color(), true
}

// ParseDeck decodes a deck from YAML or JSON. A bare list of cards is
// accepted as well as a {cards: [...]} document.
func ParseDeck(data []byte) (*Deck, error) {
	var doc struct {
		Cards []Card `yaml:"cards"`
	}
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Cards) > 0 {
		return NewDeck(doc.Cards), nil
	}

	var cards []Card
	if err := yaml.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("decode deck: %w", err)
	}
	return NewDeck(cards), nil
}

// LoadDeck reads a deck file from disk
func LoadDeck(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	return ParseDeck(data)
}
