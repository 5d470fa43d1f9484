package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"intelligent-search-mcp-server/internal/config"
)

const exaDefaultBaseURL = "https://api.exa.ai"

// ExaBackend talks to the Exa search API. Search hits come back with text
// snippets; full page text is retrieved through the /contents endpoint.
type ExaBackend struct {
	baseURL string
	apiKey  string
	source  string
	client  *http.Client
}

func NewExaBackend(cfg config.BackendConfig) *ExaBackend {
	base := cfg.BaseURL
	if base == "" {
		base = exaDefaultBaseURL
	}
	return &ExaBackend{
		baseURL: base,
		apiKey:  cfg.APIKey(),
		source:  cfg.DefaultSource(),
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

type exaSearchRequest struct {
	Query      string          `json:"query"`
	NumResults int             `json:"numResults"`
	Category   string          `json:"category,omitempty"`
	Contents   exaContentsSpec `json:"contents"`
}

type exaContentsSpec struct {
	Text bool `json:"text"`
}

type exaContentsRequest struct {
	URLs []string `json:"urls"`
	Text bool     `json:"text"`
}

type exaResponse struct {
	Results []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Text  string `json:"text"`
	} `json:"results"`
}

func (b *ExaBackend) Search(ctx context.Context, query string, topn int, source string) ([]Result, error) {
	if source == "" {
		source = b.source
	}
	payload := exaSearchRequest{
		Query:      query,
		NumResults: topn,
		Contents:   exaContentsSpec{Text: true},
	}
	if source != "web" {
		payload.Category = source
	}

	var decoded exaResponse
	if err := b.post(ctx, "/search", payload, &decoded); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		snippet := r.Text
		if len(snippet) > 400 {
			snippet = snippet[:400]
		}
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: snippet})
	}
	return results, nil
}

func (b *ExaBackend) Fetch(ctx context.Context, url string, viewSource bool) (*PageContent, error) {
	// Raw HTML is not served by the contents endpoint; fall back to a
	// direct GET for view_source requests.
	if viewSource {
		return fetchHTTP(ctx, b.client, url, true)
	}

	var decoded exaResponse
	if err := b.post(ctx, "/contents", exaContentsRequest{URLs: []string{url}, Text: true}, &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Results) == 0 {
		return nil, fmt.Errorf("exa contents: no result for %s", url)
	}

	r := decoded.Results[0]
	return &PageContent{Title: r.Title, URL: url, Text: r.Text}, nil
}

func (b *ExaBackend) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode exa request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build exa request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("x-api-key", b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("exa %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("exa %s: read response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("exa %s: status %d: %s", path, resp.StatusCode, truncate(string(raw), 200))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("exa %s: decode response: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
