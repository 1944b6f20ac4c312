// Package markdown wraps the goldmark engine and exposes its output as a
// generic, language-agnostic node tree.
package markdown

import "strings"

// Kind identifies a node type
type Kind string

// Block and inline kinds produced by the engine
const (
	KindDocument      Kind = "document"
	KindParagraph     Kind = "paragraph"
	KindTextBlock     Kind = "text_block" // Paragraph inside a tight list item
	KindHeading       Kind = "heading"
	KindBlockquote    Kind = "blockquote"
	KindList          Kind = "list"
	KindListItem      Kind = "list_item"
	KindCodeBlock     Kind = "code_block"
	KindHTMLBlock     Kind = "html_block"
	KindThematicBreak Kind = "thematic_break"
	KindTable         Kind = "table"
	KindTableHead     Kind = "table_head"
	KindTableBody     Kind = "table_body"
	KindTableRow      Kind = "table_row"
	KindTableCell     Kind = "table_cell"

	KindText         Kind = "text"
	KindEmphasis     Kind = "emphasis"
	KindStrong       Kind = "strong"
	KindDelete       Kind = "delete"
	KindCodeSpan     Kind = "code_span"
	KindLink         Kind = "link"
	KindImage        Kind = "image"
	KindLineBreak    Kind = "line_break"
	KindTaskCheckBox Kind = "task_checkbox"
)

// Kinds added by rehydration
const (
	KindCitation  Kind = "citation"
	KindExcerpt   Kind = "excerpt"
	KindHighlight Kind = "highlight"
	KindSpan      Kind = "span"      // Inline wrapper replacing a paragraph in inline context
	KindContainer Kind = "container" // Block wrapper replacing a paragraph that holds annotations
)

// Node is one element of the tree. Text-bearing kinds carry Value.
type Node struct {
	Kind     Kind           `json:"kind"`
	Props    map[string]any `json:"props,omitempty"`
	Value    string         `json:"value,omitempty"`
	Children []*Node        `json:"children,omitempty"`
}

// NewNode creates a node of the given kind
func NewNode(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// NewText creates a text node
func NewText(value string) *Node {
	return &Node{Kind: KindText, Value: value}
}

// SetProp sets a property, allocating the map on first use
func (n *Node) SetProp(key string, value any) *Node {
	if n.Props == nil {
		n.Props = make(map[string]any)
	}
	n.Props[key] = value
	return n
}

// Prop returns a property value
func (n *Node) Prop(key string) (any, bool) {
	v, ok := n.Props[key]
	return v, ok
}

// StringProp returns a string property or ""
func (n *Node) StringProp(key string) string {
	if v, ok := n.Props[key].(string); ok {
		return v
	}
	return ""
}

// IntProp returns an int property or 0
func (n *Node) IntProp(key string) int {
	switch v := n.Props[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// BoolProp returns a bool property or false
func (n *Node) BoolProp(key string) bool {
	v, _ := n.Props[key].(bool)
	return v
}

// Append adds children and returns n
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// IsVoid reports kinds that never hold children
func (k Kind) IsVoid() bool {
	switch k {
	case KindThematicBreak, KindLineBreak, KindImage, KindTaskCheckBox:
		return true
	}
	return false
}

// IsParagraph reports paragraph-equivalent block kinds
func (k Kind) IsParagraph() bool {
	return k == KindParagraph || k == KindTextBlock
}

// IsTableStructure reports kinds that may not hold free text
func (k Kind) IsTableStructure() bool {
	switch k {
	case KindTable, KindTableHead, KindTableBody, KindTableRow:
		return true
	}
	return false
}

// PlainText concatenates the text content of n and its descendants
func (n *Node) PlainText() string {
	var b strings.Builder
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		b.WriteString(n.Value)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Walk visits n and its descendants depth first
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
