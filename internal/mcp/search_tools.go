package mcp

import (
	"context"
	"fmt"

	"intelligent-search-mcp-server/internal/browser"
)

// SearchTool issues a web search through the client's session backend.
type SearchTool struct {
	sessions *browser.Registry
}

func (t *SearchTool) Name() string { return "search" }
func (t *SearchTool) Description() string {
	return `Search the web and list the links found.

Each result is tagged with its cursor in brackets, e.g. [0], [1].
Use the open tool with a result index (or the cursor) to read a page,
and cite lines with 【{cursor}†L{start}-L{end}】.

Returns only the result listing; no page content is fetched.`
}
func (t *SearchTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query",
			},
			"topn": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of results (default 10)",
			},
			"source": map[string]interface{}{
				"type":        "string",
				"description": "Optional content source override (e.g. web, news)",
			},
		},
		"required": []string{"query"},
	}
}
func (t *SearchTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	query := getStringArg(args, "query")
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	topn := getIntArg(args, "topn", 10)
	source := getStringArg(args, "source")

	br, err := t.sessions.GetOrCreate(ClientID(ctx))
	if err != nil {
		return nil, err
	}

	return browser.Collect(br.Search(ctx, query, topn, source))
}

// OpenTool opens a link or navigates within the session's pages.
type OpenTool struct {
	sessions *browser.Registry
}

func (t *OpenTool) Name() string { return "open" }
func (t *OpenTool) Description() string {
	return `Open a link or page. id is either a result index from the last
search or a full URL string.

Sentinels:
- cursor=-1 addresses the most recently referenced page
- loc=-1 continues from the current scroll position
- num_lines=-1 returns all remaining lines

Omit everything to keep reading the same page. Lines are prefixed L{n}:
for citation.`
}
func (t *OpenTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"description": "Result index (integer) or full URL (string); -1 for the current page",
			},
			"cursor": map[string]interface{}{
				"type":        "integer",
				"description": "Page cursor to address directly; -1 for the current page",
			},
			"loc": map[string]interface{}{
				"type":        "integer",
				"description": "Line to start from; -1 continues from the scroll position",
			},
			"num_lines": map[string]interface{}{
				"type":        "integer",
				"description": "Lines to return; -1 for all remaining",
			},
			"view_source": map[string]interface{}{
				"type":        "boolean",
				"description": "Return raw page source instead of extracted text",
			},
			"source": map[string]interface{}{
				"type":        "string",
				"description": "Optional content source override",
			},
		},
	}
}
func (t *OpenTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	target := openTarget(args)
	cursor := getIntArg(args, "cursor", -1)
	loc := getIntArg(args, "loc", -1)
	numLines := getIntArg(args, "num_lines", -1)
	viewSource := getBoolArg(args, "view_source", false)

	br, err := t.sessions.GetOrCreate(ClientID(ctx))
	if err != nil {
		return nil, err
	}

	return browser.Collect(br.Open(ctx, target, cursor, loc, numLines, viewSource))
}

// openTarget resolves the polymorphic id argument into a tagged target:
// strings are URLs, numbers are result indexes, -1 and absence mean the
// current page.
func openTarget(args map[string]interface{}) browser.OpenTarget {
	val, ok := args["id"]
	if !ok {
		return browser.TargetCurrent()
	}
	switch v := val.(type) {
	case string:
		if v == "" || v == "-1" {
			return browser.TargetCurrent()
		}
		return browser.TargetURL(v)
	case int:
		return browser.TargetIndex(v)
	case int64:
		return browser.TargetIndex(int(v))
	case float64:
		return browser.TargetIndex(int(v))
	default:
		return browser.TargetCurrent()
	}
}

// FindTool searches for a pattern within an already-opened page.
type FindTool struct {
	sessions *browser.Registry
}

func (t *FindTool) Name() string { return "find" }
func (t *FindTool) Description() string {
	return `Find an exact text pattern in an opened page (substring match,
not a regex). cursor=-1 searches the current page.

Matching line blocks are returned with citations like 【0†L4-L5】.`
}
func (t *FindTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": "Exact substring to look for",
			},
			"cursor": map[string]interface{}{
				"type":        "integer",
				"description": "Page cursor to search; -1 for the current page",
			},
		},
		"required": []string{"pattern"},
	}
}
func (t *FindTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	pattern := getStringArg(args, "pattern")
	if pattern == "" {
		return nil, fmt.Errorf("pattern is required")
	}
	cursor := getIntArg(args, "cursor", -1)

	br, err := t.sessions.GetOrCreate(ClientID(ctx))
	if err != nil {
		return nil, err
	}

	return browser.Collect(br.Find(ctx, pattern, cursor))
}
