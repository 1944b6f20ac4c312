// Package pipeline loads sources, applies support highlights and rehydrates
// every card body.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/cardmark/internal/cache"
	"github.com/ppiankov/cardmark/internal/extract"
	"github.com/ppiankov/cardmark/internal/highlight"
	"github.com/ppiankov/cardmark/internal/markdown"
	"github.com/ppiankov/cardmark/internal/model"
	"github.com/ppiankov/cardmark/internal/rehydrate"
	"github.com/ppiankov/cardmark/internal/source"
	"github.com/ppiankov/cardmark/internal/worker"
)

// Pipeline orchestrates loading and rendering
type Pipeline struct {
	rehydrator *rehydrate.Rehydrator
	memo       *cache.ExtractionMemo
	loader     *source.Loader
	logger     *zap.Logger
	config     *model.Config
}

// Option configures a Pipeline
type Option func(*options)

type options struct {
	logger *zap.Logger
	cache  cache.Cache
	loader []source.LoaderOption
}

// WithLogger sets the logger shared by all stages
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithCache overrides the cache built from the configuration
func WithCache(c cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithLoaderOptions passes options through to the source loader
func WithLoaderOptions(opts ...source.LoaderOption) Option {
	return func(o *options) { o.loader = append(o.loader, opts...) }
}

// New creates a pipeline with the given configuration
func New(cfg *model.Config, opts ...Option) *Pipeline {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cache == nil {
		o.cache = cache.New(cfg.Cache)
	}

	extractor := extract.NewAnnotationExtractor(extract.WithMaxDepth(cfg.Render.MaxDepth))
	engine := markdown.NewEngine(markdown.Options{
		Extensions: cfg.Render.Extensions,
		HardWraps:  cfg.Render.HardWraps,
	})

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	loaderOpts := append([]source.LoaderOption{
		source.WithThrottle(limiter),
		source.WithLogger(o.logger),
	}, o.loader...)

	return &Pipeline{
		rehydrator: rehydrate.New(extractor, engine,
			rehydrate.WithLogger(o.logger),
			rehydrate.WithMaxDepth(cfg.Render.MaxDepth),
			rehydrate.WithSpaceStripping(cfg.Render.StripAdjacentSpace)),
		memo:   cache.NewExtractionMemo(o.cache, 0, extractor.MaxDepth()),
		loader: source.NewLoader(cfg.HTTP, loaderOpts...),
		logger: o.logger,
		config: cfg,
	}
}

// Config returns the configuration the pipeline was built with
func (p *Pipeline) Config() *model.Config {
	return p.config
}

// Extract returns the top-level extraction of text, memoized by exact input
func (p *Pipeline) Extract(text string) (model.Extraction, bool) {
	ext, hit, err := p.memo.LoadOrCompute(text, p.rehydrator.Extract)
	if err != nil {
		p.logger.Warn("Failed to memoize extraction", zap.Error(err))
	}
	return ext, hit
}

// RenderBody rehydrates one annotated text
func (p *Pipeline) RenderBody(ctx context.Context, name, text string) (model.RenderedBody, error) {
	if err := ctx.Err(); err != nil {
		return model.RenderedBody{}, err
	}

	ext, hit := p.Extract(text)
	doc, err := p.rehydrator.Render(ext)
	if err != nil {
		return model.RenderedBody{}, fmt.Errorf("render %s: %w", name, err)
	}

	refs := make([]model.CitationRef, len(doc.Citations))
	for i, c := range doc.Citations {
		c.Body = name
		refs[i] = c
	}

	return model.RenderedBody{
		Name:      name,
		Tree:      doc.Root,
		Citations: refs,
		CacheHit:  hit,
	}, nil
}

// RenderText renders a bare annotated markdown text as a note card
func (p *Pipeline) RenderText(ctx context.Context, text string) (model.Rendered, error) {
	return p.RenderCard(ctx, model.Card{Type: model.CardTypeNote, Content: text})
}

// RenderCard applies the card's support highlights and renders every body
func (p *Pipeline) RenderCard(ctx context.Context, card model.Card) (model.Rendered, error) {
	prepared := highlight.ApplyCard(card)

	out := model.Rendered{Card: card}
	for _, b := range prepared.Bodies() {
		body, err := p.RenderBody(ctx, b.Name, b.Text)
		if err != nil {
			return model.Rendered{}, fmt.Errorf("card %s: %w", card.ID, err)
		}
		out.Bodies = append(out.Bodies, body)
	}

	p.logger.Debug("Rendered card",
		zap.String("card_id", card.ID),
		zap.Int("bodies", len(out.Bodies)))

	return out, nil
}

// RenderDeck renders every card of deck in order
func (p *Pipeline) RenderDeck(ctx context.Context, deck *model.Deck) ([]model.Rendered, error) {
	out := make([]model.Rendered, 0, len(deck.Cards))
	for _, card := range deck.Cards {
		r, err := p.RenderCard(ctx, card)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadDeck loads src as a deck. A markdown source becomes a single note card.
func (p *Pipeline) LoadDeck(ctx context.Context, src string) (*model.Deck, error) {
	doc, err := p.loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}

	if doc.Format == source.FormatMarkdown {
		card := model.Card{
			ID:      CardIDFromName(src),
			Type:    model.CardTypeNote,
			Content: string(doc.Data),
		}
		return model.NewDeck([]model.Card{card}), nil
	}

	deck, err := model.ParseDeck(doc.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	return deck, nil
}

// RenderSource loads src and renders all of its cards
func (p *Pipeline) RenderSource(ctx context.Context, src string) ([]model.Rendered, error) {
	deck, err := p.LoadDeck(ctx, src)
	if err != nil {
		return nil, err
	}

	rendered, err := p.RenderDeck(ctx, deck)
	if err != nil {
		return nil, err
	}
	for i := range rendered {
		rendered[i].Source = src
	}

	p.logger.Info("Rendered source",
		zap.String("source", src),
		zap.Int("cards", len(rendered)))

	return rendered, nil
}

// CardIDFromName derives a card id from a file name or URL using the same
// alphabet citation targets are cleaned to
func CardIDFromName(name string) string {
	if name == source.Stdin {
		return "stdin"
	}
	base := name
	if source.IsURL(name) {
		base = strings.SplitN(strings.SplitN(name, "?", 2)[0], "#", 2)[0]
		base = strings.TrimRight(base, "/")
		if i := strings.LastIndex(base, "/"); i >= 0 {
			base = base[i+1:]
		}
	} else {
		base = filepath.Base(name)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if id := extract.CleanTargetID(base); id != "" {
		return id
	}
	return "card"
}
