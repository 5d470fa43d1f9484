package mcp

import (
	"context"
	"fmt"

	"intelligent-search-mcp-server/internal/creds"
	"intelligent-search-mcp-server/internal/llm"
)

// SetupLLMTool caches the LLM endpoint and authentication for chat tools.
type SetupLLMTool struct {
	creds        *creds.Cache
	defaultModel string
}

func (t *SetupLLMTool) Name() string { return "setup_llm" }
func (t *SetupLLMTool) Description() string {
	return `Configure the LLM endpoint and authentication for chat functionality.

Must be called before chat_with_llm; search_and_analyze works without it
but returns no analysis. Settings overwrite unconditionally; the endpoint
is not probed.`
}
func (t *SetupLLMTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"api_endpoint": map[string]interface{}{
				"type":        "string",
				"description": "Chat-completions URL to POST to",
			},
			"api_key": map[string]interface{}{
				"type":        "string",
				"description": "Optional bearer token",
			},
			"model": map[string]interface{}{
				"type":        "string",
				"description": "Model name (default gpt-4)",
			},
		},
		"required": []string{"api_endpoint"},
	}
}
func (t *SetupLLMTool) Execute(_ context.Context, args map[string]interface{}) (interface{}, error) {
	endpoint := getStringArg(args, "api_endpoint")
	if endpoint == "" {
		return nil, fmt.Errorf("api_endpoint is required")
	}
	model := getStringArg(args, "model")
	if model == "" {
		model = t.defaultModel
	}

	t.creds.SetLLMConfig(creds.LLMConfig{
		Endpoint: endpoint,
		APIKey:   getStringArg(args, "api_key"),
		Model:    model,
	})

	return map[string]interface{}{
		"success":  true,
		"message":  "LLM endpoint configured successfully",
		"endpoint": endpoint,
		"model":    model,
	}, nil
}

// ChatWithLLMTool sends one message to the configured LLM.
type ChatWithLLMTool struct {
	creds *creds.Cache
	llm   *llm.Client
}

func (t *ChatWithLLMTool) Name() string { return "chat_with_llm" }
func (t *ChatWithLLMTool) Description() string {
	return `Send a message to the LLM and get a reasoned response.

Requires setup_llm first. Failures come back as {success:false, error};
inspect success before trusting other fields.`
}
func (t *ChatWithLLMTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"message": map[string]interface{}{
				"type":        "string",
				"description": "User message",
			},
			"system_prompt": map[string]interface{}{
				"type":        "string",
				"description": "Optional system framing",
			},
			"temperature": map[string]interface{}{
				"type":        "number",
				"description": "Sampling temperature (default 0.7)",
			},
			"max_tokens": map[string]interface{}{
				"type":        "integer",
				"description": "Completion token limit (default 1000)",
			},
		},
		"required": []string{"message"},
	}
}
func (t *ChatWithLLMTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	message := getStringArg(args, "message")
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}

	cfg, ok := t.creds.GetLLMConfig()
	if !ok {
		return map[string]interface{}{
			"success": false,
			"error":   llm.ErrNotConfigured.Error(),
		}, nil
	}

	reply, err := t.llm.Chat(ctx, llm.Config(cfg), llm.ChatRequest{
		Message:      message,
		SystemPrompt: getStringArg(args, "system_prompt"),
		Temperature:  getFloatArg(args, "temperature", 0.7),
		MaxTokens:    getIntArg(args, "max_tokens", 1000),
	})
	if err != nil {
		return map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		}, nil
	}

	return map[string]interface{}{
		"success":  true,
		"response": reply.Content,
		"model":    reply.Model,
		"usage":    reply.Usage,
	}, nil
}
