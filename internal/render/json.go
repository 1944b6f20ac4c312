package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/cardmark/internal/model"
)

// JSONRenderer writes the rehydrated trees as JSON
type JSONRenderer struct {
	Indent string
}

// Render writes cards as one JSON document
func (r *JSONRenderer) Render(w io.Writer, cards []model.Rendered) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if r.Indent != "" {
		enc.SetIndent("", r.Indent)
	}

	doc := struct {
		Cards []model.Rendered `json:"cards"`
	}{Cards: cards}
	if doc.Cards == nil {
		doc.Cards = []model.Rendered{}
	}

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
