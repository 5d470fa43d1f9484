// Package llm issues single synchronous chat-completion calls against a
// caller-configured endpoint. Failures are never retried here; the tool
// layer decides whether they abort or merely annotate a result.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// chatTimeout bounds the single upstream POST.
const chatTimeout = 60 * time.Second

// ErrNotConfigured reports a chat attempt before setup_llm. Expected and
// recoverable; callers surface it as data, not as a fault.
var ErrNotConfigured = errors.New("LLM endpoint not configured; call setup_llm first")

// UpstreamError reports a non-success status or malformed body from the LLM
// endpoint, carrying the upstream message.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm endpoint returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("llm endpoint returned malformed response: %s", e.Message)
}

// Config is the connection configuration for one chat call.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
}

// ChatRequest is one user turn with optional system framing.
type ChatRequest struct {
	Message      string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// ChatReply carries the first choice's content and the upstream usage
// accounting, both passed through unmodified.
type ChatReply struct {
	Content string
	Model   string
	Usage   map[string]interface{}
}

type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: chatTimeout}}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage map[string]interface{} `json:"usage"`
}

// Chat issues one POST to the configured endpoint. Returns ErrNotConfigured
// when no endpoint is set and *UpstreamError for non-2xx or undecodable
// responses.
func (c *Client) Chat(ctx context.Context, cfg Config, req ChatRequest) (ChatReply, error) {
	if cfg.Endpoint == "" {
		return ChatReply{}, ErrNotConfigured
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Message})

	body, err := json.Marshal(chatPayload{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return ChatReply{}, fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return ChatReply{}, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ChatReply{}, &UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return ChatReply{}, &UpstreamError{Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ChatReply{}, &UpstreamError{Status: resp.StatusCode, Message: string(raw)}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ChatReply{}, &UpstreamError{Status: resp.StatusCode, Message: err.Error()}
	}
	if len(decoded.Choices) == 0 {
		return ChatReply{}, &UpstreamError{Status: resp.StatusCode, Message: "response has no choices"}
	}

	return ChatReply{
		Content: decoded.Choices[0].Message.Content,
		Model:   cfg.Model,
		Usage:   decoded.Usage,
	}, nil
}
