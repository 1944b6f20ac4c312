package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/cardmark/internal/markdown"
	"github.com/ppiankov/cardmark/internal/model"
)

// TextRenderer writes a plain-text view: citations as [n], excerpts as
// quoted lines and highlights between == markers
type TextRenderer struct {
	Labels Labeler
}

// Render writes cards as plain text
func (r *TextRenderer) Render(w io.Writer, cards []model.Rendered) error {
	var b strings.Builder
	for i, card := range cards {
		if i > 0 {
			b.WriteString("\n")
		}
		title := card.Card.DisplayTitle()
		fmt.Fprintf(&b, "%s\n%s\n", title, strings.Repeat("=", len([]rune(title))))

		for _, body := range card.Bodies {
			if len(card.Bodies) > 1 {
				fmt.Fprintf(&b, "\n[%s]\n", body.Name)
			}
			b.WriteString("\n")
			b.WriteString(r.Document(body.Tree))
			b.WriteString("\n")

			if refs := references(body); len(refs) > 0 {
				b.WriteString("\n")
				for _, ref := range refs {
					name, _ := label(r.Labels, ref.TargetID)
					if name == ref.TargetID {
						fmt.Fprintf(&b, "[%d] %s\n", ref.Number, name)
					} else {
						fmt.Fprintf(&b, "[%d] %s (%s)\n", ref.Number, name, ref.TargetID)
					}
				}
			}
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	return nil
}

// Document renders one rehydrated tree as text
func (r *TextRenderer) Document(n *markdown.Node) string {
	if n == nil {
		return ""
	}
	return strings.Join(r.blocks(n.Children), "\n\n")
}

// blocks renders a run of siblings, grouping inline nodes into lines
func (r *TextRenderer) blocks(nodes []*markdown.Node) []string {
	var out []string
	var line inlineWriter

	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			out = append(out, s)
		}
		line = inlineWriter{}
	}

	for _, n := range nodes {
		if isBlock(n) {
			flush()
			if s := r.block(n); s != "" {
				out = append(out, s)
			}
			continue
		}
		line.write(n.Kind, r.inline(n))
	}
	flush()
	return out
}

// inlineWriter restores word spacing lost when spaces next to annotations
// were stripped
type inlineWriter struct {
	b    strings.Builder
	prev markdown.Kind
}

func (w *inlineWriter) write(kind markdown.Kind, s string) {
	if s == "" {
		return
	}
	prev := w.b.String()

	var pad bool
	switch {
	case prev == "":
	case isAnnotation(w.prev) && isAnnotation(kind):
		pad = !(w.prev == markdown.KindCitation && kind == markdown.KindCitation)
	case kind == markdown.KindHighlight:
		pad = endsWord(prev)
	case isAnnotation(w.prev):
		pad = startsWord(s)
	}

	if pad {
		w.b.WriteByte(' ')
	}
	w.b.WriteString(s)
	w.prev = kind
}

func isAnnotation(k markdown.Kind) bool {
	return k == markdown.KindCitation || k == markdown.KindHighlight
}

func (w *inlineWriter) String() string {
	return w.b.String()
}

func startsWord(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func endsWord(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == ':' || r == ',' || r == '.'
}

func isBlock(n *markdown.Node) bool {
	switch n.Kind {
	case markdown.KindParagraph, markdown.KindTextBlock, markdown.KindContainer,
		markdown.KindHeading, markdown.KindBlockquote, markdown.KindExcerpt,
		markdown.KindList, markdown.KindCodeBlock, markdown.KindHTMLBlock,
		markdown.KindThematicBreak, markdown.KindTable:
		return true
	}
	return false
}

func (r *TextRenderer) block(n *markdown.Node) string {
	switch n.Kind {
	case markdown.KindParagraph, markdown.KindTextBlock, markdown.KindContainer:
		return strings.Join(r.blocks(n.Children), "\n\n")
	case markdown.KindHeading:
		level := n.IntProp("level")
		if level < 1 {
			level = 1
		}
		return strings.Repeat("#", level) + " " + strings.TrimSpace(r.inlines(n.Children))
	case markdown.KindBlockquote, markdown.KindExcerpt:
		return quote(strings.Join(r.blocks(n.Children), "\n\n"))
	case markdown.KindList:
		return r.list(n)
	case markdown.KindCodeBlock:
		return "```" + n.StringProp("language") + "\n" + strings.TrimSuffix(n.Value, "\n") + "\n```"
	case markdown.KindHTMLBlock:
		return strings.TrimSpace(n.Value)
	case markdown.KindThematicBreak:
		return "---"
	case markdown.KindTable:
		return r.table(n)
	}
	return strings.TrimSpace(r.inline(n))
}

func (r *TextRenderer) list(n *markdown.Node) string {
	ordered := n.BoolProp("ordered")
	number := n.IntProp("start")
	if number < 1 {
		number = 1
	}

	var items []string
	for _, item := range n.Children {
		marker := "- "
		if ordered {
			marker = strconv.Itoa(number) + ". "
			number++
		}
		body := strings.Join(r.blocks(item.Children), "\n")
		indent := strings.Repeat(" ", len(marker))
		items = append(items, marker+strings.ReplaceAll(body, "\n", "\n"+indent))
	}
	return strings.Join(items, "\n")
}

func (r *TextRenderer) table(n *markdown.Node) string {
	var rows []string
	markdown.Walk(n, func(c *markdown.Node) bool {
		if c.Kind != markdown.KindTableRow {
			return true
		}
		var cells []string
		for _, cell := range c.Children {
			cells = append(cells, strings.TrimSpace(r.inlines(cell.Children)))
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		return false
	})
	return strings.Join(rows, "\n")
}

func (r *TextRenderer) inlines(nodes []*markdown.Node) string {
	var w inlineWriter
	for _, n := range nodes {
		w.write(n.Kind, r.inline(n))
	}
	return w.String()
}

func (r *TextRenderer) inline(n *markdown.Node) string {
	switch n.Kind {
	case markdown.KindText:
		return n.Value
	case markdown.KindCitation:
		return "[" + strconv.Itoa(n.IntProp("number")) + "]"
	case markdown.KindHighlight:
		return "==" + strings.TrimSpace(r.inlines(n.Children)) + "=="
	case markdown.KindStrong:
		return "**" + r.inlines(n.Children) + "**"
	case markdown.KindEmphasis:
		return "*" + r.inlines(n.Children) + "*"
	case markdown.KindDelete:
		return "~~" + r.inlines(n.Children) + "~~"
	case markdown.KindCodeSpan:
		return "`" + n.Value + "`"
	case markdown.KindLink:
		label := r.inlines(n.Children)
		if href := n.StringProp("href"); href != "" && href != label {
			return label + " (" + href + ")"
		}
		return label
	case markdown.KindLineBreak:
		return "\n"
	case markdown.KindTaskCheckBox:
		if n.BoolProp("checked") {
			return "[x] "
		}
		return "[ ] "
	case markdown.KindImage:
		return ""
	}
	if isBlock(n) {
		return r.block(n)
	}
	return r.inlines(n.Children)
}

func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	return strings.Join(lines, "\n")
}
