// Package rehydrate turns placeholder-substituted markdown back into a tree
// with citation, excerpt and highlight nodes.
package rehydrate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/cardmark/internal/extract"
	"github.com/ppiankov/cardmark/internal/markdown"
	"github.com/ppiankov/cardmark/internal/model"
)

// Parser is the markdown engine consumed as a black box
type Parser interface {
	Parse(source string) (*markdown.Node, error)
}

// Document is the result of one top-level render
type Document struct {
	Root      *markdown.Node
	Citations []model.CitationRef // Every citation occurrence, in document order
	Numbering *Numbering
}

// Rehydrator runs extraction, the markdown engine and the placeholder walk
type Rehydrator struct {
	extractor  *extract.AnnotationExtractor
	parser     Parser
	maxDepth   int
	stripSpace bool
	logger     *zap.Logger
}

// Option configures a Rehydrator
type Option func(*Rehydrator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Rehydrator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxDepth bounds nested excerpt and highlight re-runs
func WithMaxDepth(n int) Option {
	return func(r *Rehydrator) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithSpaceStripping toggles trimming of one space next to annotations
func WithSpaceStripping(enabled bool) Option {
	return func(r *Rehydrator) {
		r.stripSpace = enabled
	}
}

// New creates a rehydrator
func New(extractor *extract.AnnotationExtractor, parser Parser, opts ...Option) *Rehydrator {
	r := &Rehydrator{
		extractor:  extractor,
		parser:     parser,
		maxDepth:   extractor.MaxDepth(),
		stripSpace: true,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extract runs a fresh top-level extraction
func (r *Rehydrator) Extract(content string) model.Extraction {
	return r.extractor.Extract(content)
}

// Rehydrate extracts, parses and walks content
func (r *Rehydrator) Rehydrate(content string) (*Document, error) {
	return r.Render(r.extractor.Extract(content))
}

// Render walks a top-level extraction, possibly memoized by the caller.
// Nested re-runs continue the extraction's placeholder counters.
func (r *Rehydrator) Render(ext model.Extraction) (*Document, error) {
	st := &renderState{
		r:         r,
		seq:       extract.NewSequence(ext.Next),
		numbering: NewNumbering(),
	}

	root, err := st.document(ext, nil, false, 0)
	if err != nil {
		return nil, err
	}

	return &Document{
		Root:      root,
		Citations: st.refs,
		Numbering: st.numbering,
	}, nil
}

// renderState is shared by a top-level render and its recursive descendants
type renderState struct {
	r         *Rehydrator
	seq       *extract.Sequence
	numbering *Numbering
	refs      []model.CitationRef
}

func (st *renderState) document(ext model.Extraction, parent *scope, inline bool, depth int) (*markdown.Node, error) {
	tree, err := st.r.parser.Parse(ext.Text)
	if err != nil {
		return nil, fmt.Errorf("parse markdown: %w", err)
	}

	sc := newScope(parent, ext)
	children, err := st.walkChildren(tree, sc, inline, depth)
	if err != nil {
		return nil, err
	}

	return &markdown.Node{Kind: markdown.KindDocument, Props: tree.Props, Children: children}, nil
}

// rerun sends annotation content back through the whole engine
func (st *renderState) rerun(content string, parent *scope, inline bool, depth int) ([]*markdown.Node, error) {
	if depth+1 > st.r.maxDepth {
		st.r.logger.Debug("Nesting limit reached, emitting literal content",
			zap.Int("depth", depth),
			zap.Int("max_depth", st.r.maxDepth))
		return []*markdown.Node{markdown.NewText(content)}, nil
	}

	ext := st.r.extractor.ExtractWith(content, st.seq)
	doc, err := st.document(ext, parent, inline, depth+1)
	if err != nil {
		return nil, err
	}
	return doc.Children, nil
}

func (st *renderState) walkChildren(n *markdown.Node, sc *scope, inline bool, depth int) ([]*markdown.Node, error) {
	var out []*markdown.Node
	for _, child := range n.Children {
		nodes, err := st.walk(child, sc, inline, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

func (st *renderState) walk(n *markdown.Node, sc *scope, inline bool, depth int) ([]*markdown.Node, error) {
	switch {
	case n.Kind == markdown.KindText:
		return st.splitText(n.Value, sc, inline, depth)
	case n.Kind == markdown.KindImage:
		return nil, nil
	case n.Kind == markdown.KindHTMLBlock:
		return st.htmlBlock(n, sc, inline, depth)
	case n.Kind.IsVoid():
		return []*markdown.Node{{Kind: n.Kind, Props: n.Props, Value: n.Value}}, nil
	}

	children, err := st.walkChildren(n, sc, inline, depth)
	if err != nil {
		return nil, err
	}

	if n.Kind.IsTableStructure() {
		children = dropBlankText(children)
	}

	out := &markdown.Node{Kind: n.Kind, Props: n.Props, Value: n.Value, Children: children}

	if n.Kind.IsParagraph() {
		out.Kind = paragraphKind(n.Kind, children, inline)
	}

	return []*markdown.Node{out}, nil
}

// htmlBlock keeps raw HTML as is unless it carries placeholders, such as an
// unterminated <excerpt> line or a scraped <div>. Those blocks become a
// paragraph of literal text and annotation nodes.
func (st *renderState) htmlBlock(n *markdown.Node, sc *scope, inline bool, depth int) ([]*markdown.Node, error) {
	if !extract.PlaceholderPattern.MatchString(n.Value) {
		return []*markdown.Node{{Kind: n.Kind, Props: n.Props, Value: n.Value}}, nil
	}

	children, err := st.splitText(strings.TrimRight(n.Value, "\n"), sc, inline, depth)
	if err != nil {
		return nil, err
	}
	return []*markdown.Node{{
		Kind:     paragraphKind(markdown.KindParagraph, children, inline),
		Children: children,
	}}, nil
}

func paragraphKind(kind markdown.Kind, children []*markdown.Node, inline bool) markdown.Kind {
	switch {
	case inline:
		return markdown.KindSpan
	case holdsAnnotationBlock(children):
		return markdown.KindContainer
	}
	return kind
}

// segment is either plain text or a resolved annotation node
type segment struct {
	text string
	node *markdown.Node
}

func (st *renderState) splitText(value string, sc *scope, inline bool, depth int) ([]*markdown.Node, error) {
	locs := extract.PlaceholderPattern.FindAllStringIndex(value, -1)
	if len(locs) == 0 {
		return []*markdown.Node{markdown.NewText(value)}, nil
	}

	var segs []segment
	pending := ""
	last := 0
	for _, loc := range locs {
		pending += value[last:loc[0]]
		token := value[loc[0]:loc[1]]
		last = loc[1]

		node, err := st.resolve(token, sc, inline, depth)
		if err != nil {
			return nil, err
		}
		if node == nil {
			pending += token
			continue
		}
		segs = append(segs, segment{text: pending}, segment{node: node})
		pending = ""
	}
	segs = append(segs, segment{text: value[last:]})
	segs[len(segs)-1].text = pending + segs[len(segs)-1].text

	var out []*markdown.Node
	for i, s := range segs {
		if s.node != nil {
			out = append(out, s.node)
			continue
		}
		text := s.text
		if st.r.stripSpace {
			if i > 0 && segs[i-1].node != nil {
				text = strings.TrimPrefix(text, " ")
			}
			if i < len(segs)-1 && segs[i+1].node != nil {
				text = strings.TrimSuffix(text, " ")
			}
		}
		if text != "" {
			out = append(out, markdown.NewText(text))
		}
	}
	return out, nil
}

// resolve maps a placeholder token to its semantic node, or nil when the
// token is not known in this scope chain
func (st *renderState) resolve(token string, sc *scope, inline bool, depth int) (*markdown.Node, error) {
	kind, _, ok := extract.ParsePlaceholder(token)
	if !ok {
		return nil, nil
	}

	switch kind {
	case model.KindCitation:
		c, found := sc.citation(token)
		if !found {
			break
		}
		number := st.numbering.Assign(c.TargetID)
		st.refs = append(st.refs, model.CitationRef{TargetID: c.TargetID, Number: number})
		node := markdown.NewNode(markdown.KindCitation)
		node.SetProp("target_id", c.TargetID).SetProp("number", number).SetProp("placeholder", c.Placeholder)
		return node, nil

	case model.KindExcerpt:
		e, found := sc.excerpt(token)
		if !found {
			break
		}
		children, err := st.rerun(e.Content, sc, inline, depth)
		if err != nil {
			return nil, err
		}
		node := markdown.NewNode(markdown.KindExcerpt, children...)
		node.SetProp("placeholder", e.Placeholder)
		return node, nil

	case model.KindHighlight:
		h, found := sc.highlight(token)
		if !found {
			break
		}
		children, err := st.rerun(h.Content, sc, true, depth)
		if err != nil {
			return nil, err
		}
		node := markdown.NewNode(markdown.KindHighlight, children...)
		node.SetProp("placeholder", h.Placeholder)
		return node, nil
	}

	st.r.logger.Debug("Unresolved placeholder left as text", zap.String("token", token))
	return nil, nil
}

func holdsAnnotationBlock(children []*markdown.Node) bool {
	for _, c := range children {
		if c.Kind == markdown.KindExcerpt || c.Kind == markdown.KindHighlight {
			return true
		}
	}
	return false
}

func dropBlankText(children []*markdown.Node) []*markdown.Node {
	out := children[:0:0]
	for _, c := range children {
		if c.Kind == markdown.KindText && strings.TrimSpace(c.Value) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
