package render

import (
	"fmt"
	"io"
	"strconv"

	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/cardmark/internal/markdown"
	"github.com/ppiankov/cardmark/internal/model"
)

const pageStyle = `body{font-family:system-ui,sans-serif;max-width:48rem;margin:2rem auto;line-height:1.5}
article.card{border-top:1px solid #e5e7eb;padding-top:1rem;margin-bottom:2rem}
.card-type{font-size:.8rem;color:#6b7280;text-transform:uppercase}
sup.citation{font-weight:600;cursor:help}
blockquote.excerpt{border-left:3px solid #d1d5db;margin:.5rem 0;padding-left:1rem;color:#374151}
mark.highlight{background:#fef08a}
ol.references{font-size:.85rem;color:#4b5563}`

// HTMLRenderer builds an HTML tree for each card
type HTMLRenderer struct {
	Labels     Labeler
	Standalone bool // Wrap the cards in a full page
}

// Render writes cards as HTML
func (r *HTMLRenderer) Render(w io.Writer, cards []model.Rendered) error {
	root := &html.Node{Type: html.DocumentNode}

	parent := root
	if r.Standalone {
		root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
		page := element(atom.Html)
		head := element(atom.Head)
		head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
		title := element(atom.Title)
		title.AppendChild(text(pageTitle(cards)))
		head.AppendChild(title)
		style := element(atom.Style)
		style.AppendChild(text(pageStyle))
		head.AppendChild(style)
		body := element(atom.Body)
		page.AppendChild(head)
		page.AppendChild(body)
		root.AppendChild(page)
		parent = body
	}

	for _, card := range cards {
		parent.AppendChild(r.card(card))
	}

	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("render HTML: %w", err)
	}
	return nil
}

// Fragment converts one rehydrated tree to HTML nodes
func (r *HTMLRenderer) Fragment(n *markdown.Node) []*html.Node {
	return r.convert(n)
}

func pageTitle(cards []model.Rendered) string {
	if len(cards) == 1 {
		return cards[0].Card.DisplayTitle()
	}
	return "cardmark"
}

func (r *HTMLRenderer) card(card model.Rendered) *html.Node {
	article := element(atom.Article, attr("class", "card"), attr("data-card-id", card.Card.ID))

	header := element(atom.Header)
	h := element(atom.H2)
	h.AppendChild(text(card.Card.DisplayTitle()))
	header.AppendChild(h)
	kind := element(atom.Span, attr("class", "card-type"))
	kind.AppendChild(text(card.Card.Type.DisplayName()))
	header.AppendChild(kind)
	article.AppendChild(header)

	for _, body := range card.Bodies {
		section := element(atom.Section, attr("data-body", body.Name))
		appendAll(section, r.convert(body.Tree))

		if refs := references(body); len(refs) > 0 {
			list := element(atom.Ol, attr("class", "references"))
			for _, ref := range refs {
				name, color := label(r.Labels, ref.TargetID)
				li := element(atom.Li,
					attr("value", strconv.Itoa(ref.Number)),
					attr("data-target", ref.TargetID),
					attr("style", "color:"+color))
				li.AppendChild(text(name))
				list.AppendChild(li)
			}
			section.AppendChild(list)
		}

		article.AppendChild(section)
	}

	return article
}

func (r *HTMLRenderer) convert(n *markdown.Node) []*html.Node {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case markdown.KindDocument, markdown.KindTextBlock, markdown.KindSpan:
		return r.children(n)
	case markdown.KindText:
		return []*html.Node{text(n.Value)}
	case markdown.KindImage:
		return nil
	}

	var el *html.Node
	switch n.Kind {
	case markdown.KindParagraph:
		el = element(atom.P)
	case markdown.KindHeading:
		level := n.IntProp("level")
		if level < 1 || level > 6 {
			level = 1
		}
		el = element(atom.Lookup([]byte("h" + strconv.Itoa(level))))
	case markdown.KindBlockquote:
		el = element(atom.Blockquote)
	case markdown.KindList:
		if n.BoolProp("ordered") {
			el = element(atom.Ol)
			if start := n.IntProp("start"); start > 1 {
				el.Attr = append(el.Attr, attr("start", strconv.Itoa(start)))
			}
		} else {
			el = element(atom.Ul)
		}
	case markdown.KindListItem:
		el = element(atom.Li)
	case markdown.KindCodeBlock:
		pre := element(atom.Pre)
		code := element(atom.Code)
		if lang := n.StringProp("language"); lang != "" {
			code.Attr = append(code.Attr, attr("class", "language-"+lang))
		}
		code.AppendChild(text(n.Value))
		pre.AppendChild(code)
		return []*html.Node{pre}
	case markdown.KindHTMLBlock:
		return []*html.Node{text(n.Value)}
	case markdown.KindThematicBreak:
		return []*html.Node{element(atom.Hr)}
	case markdown.KindLineBreak:
		return []*html.Node{element(atom.Br)}
	case markdown.KindTaskCheckBox:
		box := element(atom.Input, attr("type", "checkbox"), attr("disabled", ""))
		if n.BoolProp("checked") {
			box.Attr = append(box.Attr, attr("checked", ""))
		}
		return []*html.Node{box}
	case markdown.KindTable:
		el = element(atom.Table)
	case markdown.KindTableHead:
		el = element(atom.Thead)
	case markdown.KindTableBody:
		el = element(atom.Tbody)
	case markdown.KindTableRow:
		el = element(atom.Tr)
	case markdown.KindTableCell:
		if n.BoolProp("header") {
			el = element(atom.Th)
		} else {
			el = element(atom.Td)
		}
		if align := n.StringProp("align"); align != "" && align != "none" {
			el.Attr = append(el.Attr, attr("style", "text-align:"+align))
		}
	case markdown.KindEmphasis:
		el = element(atom.Em)
	case markdown.KindStrong:
		el = element(atom.Strong)
	case markdown.KindDelete:
		el = element(atom.Del)
	case markdown.KindCodeSpan:
		code := element(atom.Code)
		code.AppendChild(text(n.Value))
		return []*html.Node{code}
	case markdown.KindLink:
		el = element(atom.A)
		if href := n.StringProp("href"); !gmhtml.IsDangerousURL([]byte(href)) {
			el.Attr = append(el.Attr, attr("href", href))
		}
		if title := n.StringProp("title"); title != "" {
			el.Attr = append(el.Attr, attr("title", title))
		}
	case markdown.KindCitation:
		return []*html.Node{r.citation(n)}
	case markdown.KindExcerpt:
		el = element(atom.Blockquote, attr("class", "excerpt"))
	case markdown.KindHighlight:
		el = element(atom.Mark, attr("class", "highlight"))
	case markdown.KindContainer:
		el = element(atom.Div, attr("class", "container"))
	default:
		el = element(atom.Span, attr("class", string(n.Kind)))
	}

	appendAll(el, r.children(n))
	return []*html.Node{el}
}

func (r *HTMLRenderer) citation(n *markdown.Node) *html.Node {
	target := n.StringProp("target_id")
	number := n.IntProp("number")
	name, color := label(r.Labels, target)

	sup := element(atom.Sup,
		attr("class", "citation"),
		attr("data-target", target),
		attr("title", name),
		attr("style", "color:"+color))
	sup.AppendChild(text("[" + strconv.Itoa(number) + "]"))
	return sup
}

func (r *HTMLRenderer) children(n *markdown.Node) []*html.Node {
	var out []*html.Node
	for _, c := range n.Children {
		out = append(out, r.convert(c)...)
	}
	return out
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func appendAll(parent *html.Node, nodes []*html.Node) {
	for _, c := range nodes {
		parent.AppendChild(c)
	}
}
