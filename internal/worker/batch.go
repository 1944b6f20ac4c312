package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/cardmark/internal/model"
)

// Renderer renders every card of one source
type Renderer interface {
	RenderSource(ctx context.Context, src string) ([]model.Rendered, error)
}

// RenderJob renders one source
type RenderJob struct {
	Source   string
	Renderer Renderer
}

// Execute executes the render job
func (j *RenderJob) Execute(ctx context.Context) Result {
	cards, err := j.Renderer.RenderSource(ctx, j.Source)
	return &RenderResult{
		Source: j.Source,
		Cards:  cards,
		Error:  err,
	}
}

// RenderResult is the outcome of one render job
type RenderResult struct {
	Source string
	Cards  []model.Rendered
	Error  error
}

// GetError returns the error from the render result
func (r *RenderResult) GetError() error {
	return r.Error
}

// BatchProcessor renders many sources concurrently
type BatchProcessor struct {
	renderer    Renderer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(renderer Renderer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		renderer:    renderer,
		concurrency: concurrency,
	}
}

// Process renders sources and returns one result per source, in input order.
// Sources skipped because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) Process(ctx context.Context, sources []string) []*RenderResult {
	if len(sources) == 0 {
		return []*RenderResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, src := range sources {
		if !pool.Submit(&RenderJob{Source: src, Renderer: b.renderer}) {
			break
		}
	}

	byName := make(map[string]*RenderResult, len(sources))
	for _, r := range pool.Wait() {
		rr := r.(*RenderResult)
		byName[rr.Source] = rr
	}

	out := make([]*RenderResult, len(sources))
	for i, src := range sources {
		if rr, ok := byName[src]; ok {
			out[i] = rr
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &RenderResult{Source: src, Error: err}
	}
	return out
}

// ProcessFile reads sources from a list file and renders them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*RenderResult, error) {
	sources, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.Process(ctx, sources), nil
}

// ReadSourcesFromFile reads one source per line, skipping blanks, comments
// and duplicates
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}
