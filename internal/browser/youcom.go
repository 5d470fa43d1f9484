package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"intelligent-search-mcp-server/internal/config"
)

const youcomDefaultBaseURL = "https://api.ydc-index.io"

// YouComBackend talks to the You.com search API. The API has no contents
// endpoint, so page retrieval is a direct GET with text extraction.
type YouComBackend struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewYouComBackend(cfg config.BackendConfig) *YouComBackend {
	base := cfg.BaseURL
	if base == "" {
		base = youcomDefaultBaseURL
	}
	return &YouComBackend{
		baseURL: base,
		apiKey:  cfg.APIKey(),
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

type youcomResponse struct {
	Hits []struct {
		Title       string   `json:"title"`
		URL         string   `json:"url"`
		Description string   `json:"description"`
		Snippets    []string `json:"snippets"`
	} `json:"hits"`
}

func (b *YouComBackend) Search(ctx context.Context, query string, topn int, source string) ([]Result, error) {
	endpoint := b.baseURL + "/search?query=" + url.QueryEscape(query) + "&num_web_results=" + strconv.Itoa(topn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build youcom request: %w", err)
	}
	if b.apiKey != "" {
		req.Header.Set("X-API-Key", b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youcom search: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("youcom search: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("youcom search: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var decoded youcomResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("youcom search: decode response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Hits))
	for _, h := range decoded.Hits {
		snippet := h.Description
		if snippet == "" && len(h.Snippets) > 0 {
			snippet = strings.Join(h.Snippets, " ")
		}
		if len(snippet) > 400 {
			snippet = snippet[:400]
		}
		results = append(results, Result{Title: h.Title, URL: h.URL, Snippet: snippet})
	}
	return results, nil
}

func (b *YouComBackend) Fetch(ctx context.Context, pageURL string, viewSource bool) (*PageContent, error) {
	return fetchHTTP(ctx, b.client, pageURL, viewSource)
}
