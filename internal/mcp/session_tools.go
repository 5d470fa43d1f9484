package mcp

import (
	"context"
	"time"

	"intelligent-search-mcp-server/internal/browser"
	"intelligent-search-mcp-server/internal/creds"
)

// GetStatusTool reports current configuration and session state.
type GetStatusTool struct {
	sessions   *browser.Registry
	creds      *creds.Cache
	instanceID string
}

func (t *GetStatusTool) Name() string { return "get_status" }
func (t *GetStatusTool) Description() string {
	return `Check the current configuration and status of the intelligent
search system: active browser sessions, LLM configuration, and token
cache state.`
}
func (t *GetStatusTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *GetStatusTool) Execute(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	expiresAt, hasToken := t.creds.TokenInfo()
	cacheInfo := map[string]interface{}{
		"has_token": hasToken,
	}
	if hasToken && !expiresAt.IsZero() {
		cacheInfo["token_expires_at"] = expiresAt.Format(time.RFC3339)
	}

	out := map[string]interface{}{
		"instance_id":      t.instanceID,
		"browser_sessions": t.sessions.Count(),
		"cache_info":       cacheInfo,
	}

	llmCfg, configured := t.creds.GetLLMConfig()
	out["llm_configured"] = configured
	if configured {
		out["llm_endpoint"] = llmCfg.Endpoint
		out["llm_model"] = llmCfg.Model
	}
	return out, nil
}

// CloseSessionTool tears down the calling client's browsing session.
type CloseSessionTool struct {
	sessions *browser.Registry
}

func (t *CloseSessionTool) Name() string { return "close_session" }
func (t *CloseSessionTool) Description() string {
	return `Discard the calling client's browsing session and its cursor
state. The next browsing call starts a fresh session. No-op when no
session exists; in-flight calls on the old session complete on their own.`
}
func (t *CloseSessionTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *CloseSessionTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	t.sessions.Remove(ClientID(ctx))
	return map[string]interface{}{
		"success": true,
		"message": "session closed",
	}, nil
}
