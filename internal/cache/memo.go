package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/cardmark/internal/model"
)

const extractionNamespace = "extraction"

// ExtractionMemo stores top-level extractions keyed by their exact input and
// the nesting guard they were computed with. A nil memo or a nil backing
// cache always misses.
type ExtractionMemo struct {
	cache     Cache
	ttl       time.Duration
	namespace string
}

// NewExtractionMemo wraps c for extractions run with maxDepth; a zero ttl
// uses the cache default
func NewExtractionMemo(c Cache, ttl time.Duration, maxDepth int) *ExtractionMemo {
	return &ExtractionMemo{
		cache:     c,
		ttl:       ttl,
		namespace: fmt.Sprintf("%s:d%d", extractionNamespace, maxDepth),
	}
}

func (m *ExtractionMemo) key(text string) string {
	return Key(m.namespace, text)
}

// Load returns the memoized extraction of text
func (m *ExtractionMemo) Load(text string) (model.Extraction, bool) {
	if m == nil || m.cache == nil {
		return model.Extraction{}, false
	}

	data, found := m.cache.Get(m.key(text))
	if !found {
		return model.Extraction{}, false
	}

	var ext model.Extraction
	if err := json.Unmarshal(data, &ext); err != nil {
		return model.Extraction{}, false
	}
	return ext, true
}

// Store memoizes ext as the extraction of text
func (m *ExtractionMemo) Store(text string, ext model.Extraction) error {
	if m == nil || m.cache == nil {
		return nil
	}

	data, err := json.Marshal(ext)
	if err != nil {
		return err
	}
	return m.cache.Set(m.key(text), data, m.ttl)
}

// LoadOrCompute returns the memoized extraction of text, running compute and
// storing its result on a miss. The bool reports a hit.
func (m *ExtractionMemo) LoadOrCompute(text string, compute func(string) model.Extraction) (model.Extraction, bool, error) {
	if ext, ok := m.Load(text); ok {
		return ext, true, nil
	}
	ext := compute(text)
	return ext, false, m.Store(text, ext)
}
