// Package source loads card decks and annotated markdown from files, stdin
// or http(s) URLs.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/cardmark/internal/model"
)

var (
	// ErrRobotsDisallowed is returned when robots.txt forbids a URL
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

	// ErrEmptySource is returned for a source with no content
	ErrEmptySource = errors.New("empty source")
)

// Stdin names the standard input source
const Stdin = "-"

// Format is the detected shape of a loaded source
type Format string

const (
	FormatDeck     Format = "deck"     // YAML or JSON list of cards
	FormatMarkdown Format = "markdown" // One annotated markdown body
)

// Document is a loaded source
type Document struct {
	Name   string
	Data   []byte
	Format Format
}

// Throttle delays requests to a host
type Throttle interface {
	Wait(ctx context.Context, rawURL string) error
}

// Loader reads sources from disk, stdin or the network
type Loader struct {
	fetcher  *Fetcher
	robots   *RobotsChecker
	throttle Throttle
	stdin    io.Reader
	logger   *zap.Logger
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithThrottle rate limits URL sources
func WithThrottle(t Throttle) LoaderOption {
	return func(l *Loader) { l.throttle = t }
}

// WithStdin replaces os.Stdin as the "-" source
func WithStdin(r io.Reader) LoaderOption {
	return func(l *Loader) { l.stdin = r }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader from the HTTP settings
func NewLoader(cfg model.HTTPConfig, opts ...LoaderOption) *Loader {
	fetcher := NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes, cfg.InsecureTLS, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)

	l := &Loader{
		fetcher: fetcher,
		stdin:   os.Stdin,
		logger:  zap.NewNop(),
	}
	if cfg.RespectRobots {
		l.robots = NewRobotsChecker(fetcher.httpClient, cfg.UserAgent)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsURL reports whether src is an http(s) URL
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Load reads src and detects its format
func (l *Loader) Load(ctx context.Context, src string) (*Document, error) {
	var (
		data        []byte
		contentType string
		err         error
	)

	switch {
	case src == Stdin:
		data, err = io.ReadAll(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	case IsURL(src):
		data, contentType, err = l.loadURL(ctx, src)
		if err != nil {
			return nil, err
		}
	default:
		data, err = os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s: %w", src, ErrEmptySource)
	}

	return &Document{
		Name:   src,
		Data:   data,
		Format: DetectFormat(src, contentType, data),
	}, nil
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) ([]byte, string, error) {
	if l.robots != nil {
		allowed, _, err := l.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, "", fmt.Errorf("check robots.txt: %w", err)
		}
		if !allowed {
			return nil, "", fmt.Errorf("%s: %w", rawURL, ErrRobotsDisallowed)
		}
	}

	if l.throttle != nil {
		if err := l.throttle.Wait(ctx, rawURL); err != nil {
			return nil, "", fmt.Errorf("rate limit: %w", err)
		}
	}

	result, err := l.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if result.Truncated {
		l.logger.Warn("Source truncated at size limit",
			zap.String("url", rawURL),
			zap.Int("bytes", len(result.Body)))
	}

	l.logger.Debug("Fetched source",
		zap.String("url", result.FinalURL),
		zap.String("content_type", result.ContentType),
		zap.Int("bytes", len(result.Body)))

	return result.Body, result.ContentType, nil
}

// DetectFormat decides between a card deck and a markdown body using the
// extension, then the content type, then a sniff of the first content byte
func DetectFormat(name, contentType string, data []byte) Format {
	ext := strings.ToLower(filepath.Ext(name))
	if IsURL(name) {
		ext = strings.ToLower(path.Ext(strings.SplitN(strings.SplitN(name, "?", 2)[0], "#", 2)[0]))
	}

	switch ext {
	case ".yaml", ".yml", ".json":
		return FormatDeck
	case ".md", ".markdown", ".txt":
		return FormatMarkdown
	}

	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "json") || strings.Contains(ct, "yaml") {
		return FormatDeck
	}
	if strings.Contains(ct, "markdown") {
		return FormatMarkdown
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatDeck
	}
	if bytes.HasPrefix(trimmed, []byte("cards:")) {
		return FormatDeck
	}
	return FormatMarkdown
}
