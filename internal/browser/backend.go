package browser

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"intelligent-search-mcp-server/internal/config"
)

// Result is a single search hit returned by a backend.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// PageContent is the retrieved body of a page.
type PageContent struct {
	Title string
	URL   string
	Text  string
}

// Backend is the pluggable search/retrieval collaborator each session owns.
// Implementations talk to one provider (Exa, You.com) and must be safe for
// use by a single session at a time; the Browser serializes access.
type Backend interface {
	Search(ctx context.Context, query string, topn int, source string) ([]Result, error)
	Fetch(ctx context.Context, url string, viewSource bool) (*PageContent, error)
}

// BackendFactory builds a fresh Backend instance for a new session.
type BackendFactory func() (Backend, error)

// ConfigurationError reports an unrecognized backend selection. It is fatal
// for the call that triggered session creation and is never retried.
type ConfigurationError struct {
	Option string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unrecognized backend provider: %q", e.Option)
}

// FactoryFromConfig resolves the configured provider into a backend factory.
// The renderer, when non-nil, wraps each backend so page fetches go through
// Chrome instead of plain HTTP.
func FactoryFromConfig(cfg config.BackendConfig, renderer *ChromeRenderer) BackendFactory {
	return func() (Backend, error) {
		var b Backend
		switch cfg.Provider {
		case config.ProviderExa:
			b = NewExaBackend(cfg)
		case config.ProviderYouCom:
			b = NewYouComBackend(cfg)
		default:
			return nil, &ConfigurationError{Option: cfg.Provider}
		}
		if renderer != nil {
			b = renderer.Wrap(b)
		}
		return b, nil
	}
}

var (
	titlePattern  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptPattern = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	blockPattern  = regexp.MustCompile(`(?i)</(p|div|li|tr|h[1-6]|section|article|blockquote)>|<br[^>]*>`)
	tagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
)

// fetchHTTP retrieves a URL with a plain GET and extracts readable text
// unless viewSource is requested, in which case the raw body is returned.
func fetchHTTP(ctx context.Context, client *http.Client, url string, viewSource bool) (*PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "intelligent-search-mcp/0.1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	raw := string(body)
	title := extractTitle(raw)

	if viewSource {
		return &PageContent{Title: title, URL: url, Text: raw}, nil
	}
	return &PageContent{Title: title, URL: url, Text: ExtractText(raw)}, nil
}

func extractTitle(htmlSrc string) string {
	m := titlePattern.FindStringSubmatch(htmlSrc)
	if len(m) != 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// ExtractText reduces an HTML document to plain text, one line per block
// element, with scripts and styles removed.
func ExtractText(htmlSrc string) string {
	text := scriptPattern.ReplaceAllString(htmlSrc, "")
	text = blockPattern.ReplaceAllString(text, "\n")
	text = tagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
