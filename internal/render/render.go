// Package render presents rehydrated cards as HTML, JSON or plain text.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/cardmark/internal/model"
)

// ErrUnknownFormat is returned for an unsupported output format
var ErrUnknownFormat = errors.New("unknown output format")

// Format names an output format
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Labeler resolves a citation target to its display label and color
type Labeler interface {
	Label(targetID string) (label string, color string, ok bool)
}

// Renderer writes rendered cards to w
type Renderer interface {
	Render(w io.Writer, cards []model.Rendered) error
}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatHTML, FormatJSON, FormatText:
		return f, nil
	case "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%q: %w", name, ErrUnknownFormat)
	}
}

// New returns the renderer for format. labels may be nil.
func New(format Format, labels Labeler) (Renderer, error) {
	switch format {
	case FormatHTML:
		return &HTMLRenderer{Labels: labels, Standalone: true}, nil
	case FormatJSON:
		return &JSONRenderer{Indent: "  "}, nil
	case FormatText:
		return &TextRenderer{Labels: labels}, nil
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
}

// Extension returns the file extension for format
func Extension(format Format) string {
	switch format {
	case FormatHTML:
		return ".html"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

const defaultColor = "#6b7280"

// label falls back to the bare target id when labels cannot resolve it
func label(labels Labeler, targetID string) (string, string) {
	if labels != nil {
		if name, color, ok := labels.Label(targetID); ok {
			return name, color
		}
	}
	return targetID, defaultColor
}

// reference is one entry of a body's numbered reference list
type reference struct {
	Number   int
	TargetID string
}

// references lists the distinct citations of a body in number order
func references(body model.RenderedBody) []reference {
	seen := make(map[int]bool)
	var out []reference
	for _, c := range body.Citations {
		if seen[c.Number] {
			continue
		}
		seen[c.Number] = true
		out = append(out, reference{Number: c.Number, TargetID: c.TargetID})
	}
	return out
}
