package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Options configures the engine
type Options struct {
	Extensions []string // goldmark extensions by name; empty selects GFM
	HardWraps  bool     // Soft line breaks become line_break nodes
}

// Engine parses markdown with goldmark and converts the AST into Nodes.
// It is stateless after construction and safe for concurrent use.
type Engine struct {
	md        goldmark.Markdown
	hardWraps bool
}

// NewEngine constructs an engine for the given options
func NewEngine(opts Options) *Engine {
	return &Engine{
		md:        goldmark.New(goldmark.WithExtensions(collectExtensions(opts.Extensions)...)),
		hardWraps: opts.HardWraps,
	}
}

// Parse converts source into a document node
func (e *Engine) Parse(source string) (*Node, error) {
	src := []byte(source)
	doc := e.md.Parser().Parse(text.NewReader(src))

	c := &converter{source: src, hardWraps: e.hardWraps}
	nodes := c.convert(doc)
	if len(nodes) == 0 {
		return NewNode(KindDocument), nil
	}
	return nodes[0], nil
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}

	return extenders
}

type converter struct {
	source    []byte
	hardWraps bool
}

// convert maps one goldmark node to zero or more Nodes
func (c *converter) convert(n ast.Node) []*Node {
	switch n := n.(type) {
	case *ast.Document:
		return []*Node{c.container(KindDocument, n)}
	case *ast.Paragraph:
		return []*Node{c.container(KindParagraph, n)}
	case *ast.TextBlock:
		return []*Node{c.container(KindTextBlock, n)}
	case *ast.Heading:
		return []*Node{c.container(KindHeading, n).SetProp("level", n.Level)}
	case *ast.Blockquote:
		return []*Node{c.container(KindBlockquote, n)}
	case *ast.List:
		node := c.container(KindList, n).SetProp("ordered", n.IsOrdered()).SetProp("tight", n.IsTight)
		if n.IsOrdered() {
			node.SetProp("start", n.Start)
		}
		return []*Node{node}
	case *ast.ListItem:
		return []*Node{c.container(KindListItem, n)}
	case *ast.FencedCodeBlock:
		node := &Node{Kind: KindCodeBlock, Value: c.lines(n)}
		if lang := n.Language(c.source); len(lang) > 0 {
			node.SetProp("language", string(lang))
		}
		return []*Node{node}
	case *ast.CodeBlock:
		return []*Node{{Kind: KindCodeBlock, Value: c.lines(n)}}
	case *ast.HTMLBlock:
		value := c.lines(n)
		if n.HasClosure() {
			value += string(n.ClosureLine.Value(c.source))
		}
		return []*Node{{Kind: KindHTMLBlock, Value: value}}
	case *ast.ThematicBreak:
		return []*Node{NewNode(KindThematicBreak)}
	case *ast.Text:
		return c.text(n)
	case *ast.String:
		return []*Node{NewText(string(n.Value))}
	case *ast.CodeSpan:
		return []*Node{{Kind: KindCodeSpan, Value: c.inlineText(n)}}
	case *ast.Emphasis:
		if n.Level >= 2 {
			return []*Node{c.container(KindStrong, n)}
		}
		return []*Node{c.container(KindEmphasis, n)}
	case *ast.Link:
		node := c.container(KindLink, n).SetProp("href", string(n.Destination))
		if len(n.Title) > 0 {
			node.SetProp("title", string(n.Title))
		}
		return []*Node{node}
	case *ast.AutoLink:
		node := NewNode(KindLink, NewText(string(n.Label(c.source))))
		node.SetProp("href", string(n.URL(c.source)))
		return []*Node{node}
	case *ast.Image:
		node := NewNode(KindImage).SetProp("src", string(n.Destination)).SetProp("alt", c.inlineText(n))
		if len(n.Title) > 0 {
			node.SetProp("title", string(n.Title))
		}
		return []*Node{node}
	case *ast.RawHTML:
		// Inline HTML, including any annotation tag that failed to match,
		// degrades to literal text.
		var b bytes.Buffer
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(c.source))
		}
		return []*Node{NewText(b.String())}
	case *east.Table:
		return []*Node{c.table(n)}
	case *east.TableRow:
		return []*Node{c.container(KindTableRow, n)}
	case *east.TableCell:
		return []*Node{c.container(KindTableCell, n).SetProp("align", n.Alignment.String())}
	case *east.Strikethrough:
		return []*Node{c.container(KindDelete, n)}
	case *east.TaskCheckBox:
		return []*Node{NewNode(KindTaskCheckBox).SetProp("checked", n.IsChecked)}
	default:
		return []*Node{c.container(Kind(strings.ToLower(n.Kind().String())), n)}
	}
}

func (c *converter) container(kind Kind, n ast.Node) *Node {
	return &Node{Kind: kind, Children: c.children(n)}
}

func (c *converter) children(n ast.Node) []*Node {
	var out []*Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.convert(child)...)
	}
	return mergeText(out)
}

func (c *converter) text(n *ast.Text) []*Node {
	value := string(n.Segment.Value(c.source))
	switch {
	case n.HardLineBreak() || (n.SoftLineBreak() && c.hardWraps):
		return []*Node{NewText(value), NewNode(KindLineBreak)}
	case n.SoftLineBreak():
		return []*Node{NewText(value + "\n")}
	default:
		return []*Node{NewText(value)}
	}
}

// table splits goldmark's header-plus-rows layout into head and body
func (c *converter) table(n *east.Table) *Node {
	aligns := make([]string, len(n.Alignments))
	for i, a := range n.Alignments {
		aligns[i] = a.String()
	}

	table := NewNode(KindTable).SetProp("align", aligns)
	body := NewNode(KindTableBody)

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *east.TableHeader:
			headRow := NewNode(KindTableRow)
			for _, cell := range c.children(row) {
				cell.SetProp("header", true)
				headRow.Append(cell)
			}
			table.Append(NewNode(KindTableHead, headRow))
		default:
			body.Append(c.convert(row)...)
		}
	}

	if len(body.Children) > 0 {
		table.Append(body)
	}
	return table
}

func (c *converter) lines(n ast.Node) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
	}
	return b.String()
}

// inlineText flattens the text under an inline node
func (c *converter) inlineText(n ast.Node) string {
	var b strings.Builder
	for _, child := range c.children(n) {
		b.WriteString(child.PlainText())
	}
	return b.String()
}

// mergeText joins adjacent text nodes. goldmark splits text at delimiter
// runs it did not pair, which would cut placeholders in two.
func mergeText(nodes []*Node) []*Node {
	if len(nodes) < 2 {
		return nodes
	}
	out := nodes[:0:0]
	for _, n := range nodes {
		if n.Kind == KindText && len(out) > 0 {
			last := out[len(out)-1]
			if last.Kind == KindText && len(last.Props) == 0 && len(n.Props) == 0 {
				last.Value += n.Value
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
