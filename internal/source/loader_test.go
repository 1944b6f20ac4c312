package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/cardmark/internal/model"
)

func testHTTPConfig() model.HTTPConfig {
	cfg := model.DefaultConfig().HTTP
	cfg.UserAgent = "cardmark-test/1.0"
	return cfg
}

func TestLoader_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.yaml")
	if err := os.WriteFile(path, []byte("cards:\n  - card_id: a\n"), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewLoader(testHTTPConfig()).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.Format != FormatDeck {
		t.Errorf("Expected deck format, got %s", doc.Format)
	}
}

func TestLoader_StdinAndEmpty(t *testing.T) {
	loader := NewLoader(testHTTPConfig(), WithStdin(strings.NewReader("Some <cardId>x</cardId> text")))
	doc, err := loader.Load(context.Background(), Stdin)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.Format != FormatMarkdown {
		t.Errorf("Expected markdown format, got %s", doc.Format)
	}

	empty := NewLoader(testHTTPConfig(), WithStdin(strings.NewReader("  \n")))
	if _, err := empty.Load(context.Background(), Stdin); !errors.Is(err, ErrEmptySource) {
		t.Errorf("Expected ErrEmptySource, got %v", err)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(testHTTPConfig()).Load(context.Background(), filepath.Join(t.TempDir(), "nope.md"))
	if err == nil || !strings.HasPrefix(err.Error(), "read file:") {
		t.Errorf("Expected read file error, got %v", err)
	}
}

func TestLoader_URLHonoursRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprint(w, `[{"card_id": "a", "card_type": "note"}]`)
		}
	}))
	defer server.Close()

	loader := NewLoader(testHTTPConfig())

	doc, err := loader.Load(context.Background(), server.URL+"/public/deck")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.Format != FormatDeck {
		t.Errorf("Expected deck from JSON content type, got %s", doc.Format)
	}

	_, err = loader.Load(context.Background(), server.URL+"/private/deck")
	if !errors.Is(err, ErrRobotsDisallowed) {
		t.Errorf("Expected ErrRobotsDisallowed, got %v", err)
	}
}

type countingThrottle struct {
	calls int
}

func (c *countingThrottle) Wait(ctx context.Context, rawURL string) error {
	c.calls++
	return nil
}

func TestLoader_URLThrottled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "note")
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.RespectRobots = false
	throttle := &countingThrottle{}

	if _, err := NewLoader(cfg, WithThrottle(throttle)).Load(context.Background(), server.URL+"/a.md"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if throttle.calls != 1 {
		t.Errorf("Expected one throttle wait, got %d", throttle.calls)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		contentType string
		data        string
		want        Format
	}{
		{"yaml extension", "deck.yml", "", "anything", FormatDeck},
		{"json extension", "deck.JSON", "", "anything", FormatDeck},
		{"markdown extension", "note.md", "", "[link](x)", FormatMarkdown},
		{"url with query", "https://x.test/deck.yaml?v=1", "", "a", FormatDeck},
		{"content type json", "https://x.test/deck", "application/json; charset=utf-8", "a", FormatDeck},
		{"content type markdown", "https://x.test/n", "text/markdown", "[x]", FormatMarkdown},
		{"sniff list", "-", "", "  [ {\"card_id\": \"a\"} ]", FormatDeck},
		{"sniff cards key", "-", "", "cards:\n  - card_id: a", FormatDeck},
		{"plain text", "-", "", "Hello <cardId>a</cardId>", FormatMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.src, tt.contentType, []byte(tt.data)); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("cardmark/0.1 (+https://example.com)"); got != "cardmark" {
		t.Errorf("Expected cardmark, got %q", got)
	}
	if got := NormalizeUserAgent(""); got != "" {
		t.Errorf("Expected empty, got %q", got)
	}
}
