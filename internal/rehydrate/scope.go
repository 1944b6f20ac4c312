package rehydrate

import (
	"github.com/ppiankov/cardmark/internal/model"
)

// scope holds the side tables of one extractor invocation. Nested re-runs
// chain to their parent so placeholders left in excerpt and highlight content
// by an outer invocation still resolve.
type scope struct {
	parent     *scope
	citations  map[string]model.Citation
	excerpts   map[string]model.Excerpt
	highlights map[string]model.Highlight
}

func newScope(parent *scope, ext model.Extraction) *scope {
	s := &scope{
		parent:     parent,
		citations:  make(map[string]model.Citation, len(ext.Citations)),
		excerpts:   make(map[string]model.Excerpt, len(ext.Excerpts)),
		highlights: make(map[string]model.Highlight, len(ext.Highlights)),
	}
	for _, c := range ext.Citations {
		s.citations[c.Placeholder] = c
	}
	for _, e := range ext.Excerpts {
		s.excerpts[e.Placeholder] = e
	}
	for _, h := range ext.Highlights {
		s.highlights[h.Placeholder] = h
	}
	return s
}

func (s *scope) citation(token string) (model.Citation, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if c, ok := cur.citations[token]; ok {
			return c, true
		}
	}
	return model.Citation{}, false
}

func (s *scope) excerpt(token string) (model.Excerpt, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if e, ok := cur.excerpts[token]; ok {
			return e, true
		}
	}
	return model.Excerpt{}, false
}

func (s *scope) highlight(token string) (model.Highlight, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if h, ok := cur.highlights[token]; ok {
			return h, true
		}
	}
	return model.Highlight{}, false
}
