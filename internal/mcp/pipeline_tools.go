package mcp

import (
	"context"
	"fmt"

	"intelligent-search-mcp-server/internal/browser"
	"intelligent-search-mcp-server/internal/creds"
	"intelligent-search-mcp-server/internal/llm"
)

// analysisMaxTokens is the completion budget for pipeline analysis calls,
// larger than the chat default because page content is embedded.
const analysisMaxTokens = 2000

// runSearch drains a search into its listing text.
func runSearch(ctx context.Context, br *browser.Browser, query string, topn int) (string, error) {
	return browser.Collect(br.Search(ctx, query, topn, ""))
}

// runRetrieve opens a search result from the top of the page and drains the
// full text.
func runRetrieve(ctx context.Context, br *browser.Browser, resultIndex int) (string, error) {
	return browser.Collect(br.Open(ctx, browser.TargetIndex(resultIndex), -1, 0, -1, false))
}

// SearchAndGetContentTool searches and returns the full content of one
// result in a single call.
type SearchAndGetContentTool struct {
	sessions *browser.Registry
}

func (t *SearchAndGetContentTool) Name() string { return "search_and_get_content" }
func (t *SearchAndGetContentTool) Description() string {
	return `Search the web and fetch the full content of one result.

Combines search and open: returns the result listing followed by the
complete text of the result at result_index (default 0, the first hit).`
}
func (t *SearchAndGetContentTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query",
			},
			"result_index": map[string]interface{}{
				"type":        "integer",
				"description": "Which result to fetch (default 0)",
			},
			"topn": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of results (default 10)",
			},
		},
		"required": []string{"query"},
	}
}
func (t *SearchAndGetContentTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	query := getStringArg(args, "query")
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	resultIndex := getIntArg(args, "result_index", 0)
	topn := getIntArg(args, "topn", 10)

	br, err := t.sessions.GetOrCreate(ClientID(ctx))
	if err != nil {
		return nil, err
	}

	searchText, err := runSearch(ctx, br, query, topn)
	if err != nil {
		return nil, err
	}

	content, err := runRetrieve(ctx, br, resultIndex)
	if err != nil {
		return nil, err
	}

	return fmt.Sprintf("=== Search Results ===\n%s\n\n=== Full Content of Result %d ===\n%s\n", searchText, resultIndex, content), nil
}

// SearchAndAnalyzeTool composes search, retrieval, and LLM analysis with
// partial-result semantics: search or retrieval failure aborts the call, an
// unavailable LLM only degrades it.
type SearchAndAnalyzeTool struct {
	sessions *browser.Registry
	creds    *creds.Cache
	llm      *llm.Client
}

func (t *SearchAndAnalyzeTool) Name() string { return "search_and_analyze" }
func (t *SearchAndAnalyzeTool) Description() string {
	return `Search the web, fetch the full content of one result, and analyze
it with the configured LLM.

Without setup_llm the call still succeeds and returns the search results
and page content with analysis absent. An LLM failure is reported in
llm_error; the gathered content is still returned.`
}
func (t *SearchAndAnalyzeTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query",
			},
			"analysis_prompt": map[string]interface{}{
				"type":        "string",
				"description": "Instruction for the analysis step",
			},
			"result_index": map[string]interface{}{
				"type":        "integer",
				"description": "Which result to analyze (default 0)",
			},
			"topn": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of results (default 5)",
			},
			"temperature": map[string]interface{}{
				"type":        "number",
				"description": "Sampling temperature for analysis (default 0.7)",
			},
		},
		"required": []string{"query", "analysis_prompt"},
	}
}
func (t *SearchAndAnalyzeTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	query := getStringArg(args, "query")
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	analysisPrompt := getStringArg(args, "analysis_prompt")
	if analysisPrompt == "" {
		return nil, fmt.Errorf("analysis_prompt is required")
	}
	resultIndex := getIntArg(args, "result_index", 0)
	topn := getIntArg(args, "topn", 5)
	temperature := getFloatArg(args, "temperature", 0.7)

	br, err := t.sessions.GetOrCreate(ClientID(ctx))
	if err != nil {
		return nil, err
	}

	// Stage 1: search. Foundational; failure aborts the pipeline.
	searchText, err := runSearch(ctx, br, query, topn)
	if err != nil {
		return nil, err
	}

	// Stage 2: retrieve. Analysis cannot proceed without the page text.
	fullContent, err := runRetrieve(ctx, br, resultIndex)
	if err != nil {
		return nil, err
	}

	// Stage 3: analyze. Degrades instead of failing.
	cfg, ok := t.creds.GetLLMConfig()
	if !ok {
		return map[string]interface{}{
			"success":        true,
			"search_results": searchText,
			"full_content":   fullContent,
			"analysis":       nil,
			"message":        "Search completed but LLM not configured for analysis",
		}, nil
	}

	combined := fmt.Sprintf("Based on the following page content, %s\n\nFull page content:\n%s\n", analysisPrompt, fullContent)

	reply, chatErr := t.llm.Chat(ctx, llm.Config(cfg), llm.ChatRequest{
		Message:     combined,
		Temperature: temperature,
		MaxTokens:   analysisMaxTokens,
	})

	result := map[string]interface{}{
		"success":        true,
		"search_query":   query,
		"search_results": searchText,
		"full_content":   fullContent,
		"analysis":       nil,
	}
	if chatErr != nil {
		result["llm_error"] = chatErr.Error()
	} else {
		result["analysis"] = reply.Content
	}
	return result, nil
}
