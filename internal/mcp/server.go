package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"intelligent-search-mcp-server/internal/browser"
	"intelligent-search-mcp-server/internal/config"
	"intelligent-search-mcp-server/internal/creds"
	"intelligent-search-mcp-server/internal/llm"
	"intelligent-search-mcp-server/internal/recorder"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const serverInstructions = `An intelligent search and chat system that combines web search capabilities with LLM reasoning.
For search results, the cursor appears in brackets: [{cursor}].
Cite search results using: 【{cursor}†L{line_start}(-L{line_end})?】
Example: 【6†L9-L11】 or 【8†L3】`

// Server wires the MCP runtime, session registry, credential cache, and LLM
// client.
type Server struct {
	cfg        config.Config
	sessions   *browser.Registry
	creds      *creds.Cache
	llm        *llm.Client
	trace      *recorder.Recorder
	instanceID string
	tools      map[string]Tool
	mcpServer  *mcpserver.MCPServer
}

// Tool describes the contract for MCP tool implementations.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// NewServer constructs the intelligent-search MCP server and registers all tools.
func NewServer(cfg config.Config, sessions *browser.Registry, credCache *creds.Cache, llmClient *llm.Client, trace *recorder.Recorder) (*Server, error) {
	mcpSrv := mcpserver.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		mcpserver.WithInstructions(serverInstructions),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
		mcpserver.WithRecovery(),
	)

	server := &Server{
		cfg:        cfg,
		sessions:   sessions,
		creds:      credCache,
		llm:        llmClient,
		trace:      trace,
		instanceID: uuid.NewString(),
		tools:      make(map[string]Tool),
		mcpServer:  mcpSrv,
	}

	server.registerAllTools()
	return server, nil
}

// InstanceID identifies this server process in status output and traces.
func (s *Server) InstanceID() string {
	return s.instanceID
}

// Start launches the stdio server (Claude/Gemini CLI default).
func (s *Server) Start(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// StartSSE hosts the server over HTTP using SSE endpoints with graceful shutdown.
func (s *Server) StartSSE(ctx context.Context, port int) error {
	sseServer := mcpserver.NewSSEServer(s.mcpServer, mcpserver.WithBaseURL("http://localhost:"+strconv.Itoa(port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Printf("SSE server shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// ExecuteTool executes a tool directly (used by demos/tests).
func (s *Server) ExecuteTool(name string, args map[string]interface{}) (interface{}, error) {
	tool, exists := s.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool.Execute(context.Background(), args)
}

func (s *Server) registerAllTools() {
	// Browsing primitives
	s.registerTool(&SearchTool{sessions: s.sessions})
	s.registerTool(&OpenTool{sessions: s.sessions})
	s.registerTool(&FindTool{sessions: s.sessions})

	// LLM configuration and chat
	s.registerTool(&SetupLLMTool{creds: s.creds, defaultModel: s.cfg.LLM.Model()})
	s.registerTool(&ChatWithLLMTool{creds: s.creds, llm: s.llm})

	// Composed pipelines
	s.registerTool(&SearchAndGetContentTool{sessions: s.sessions})
	s.registerTool(&SearchAndAnalyzeTool{sessions: s.sessions, creds: s.creds, llm: s.llm})

	// Session and system state
	s.registerTool(&GetStatusTool{sessions: s.sessions, creds: s.creds, instanceID: s.instanceID})
	s.registerTool(&CloseSessionTool{sessions: s.sessions})
}

func (s *Server) registerTool(tool Tool) {
	s.tools[tool.Name()] = tool

	schema, err := json.Marshal(tool.InputSchema())
	if err != nil {
		schema = json.RawMessage(`{"type":"object"}`)
	}

	mcpTool := mcp.NewToolWithRawSchema(tool.Name(), tool.Description(), schema)
	s.mcpServer.AddTool(mcpTool, s.wrapTool(tool))
}

func (s *Server) wrapTool(tool Tool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]interface{}{}
		}

		clientID := clientIDFromSession(ctx)
		ctx = withClientID(ctx, clientID)

		started := time.Now()
		result, err := tool.Execute(ctx, args)
		s.trace.Record(tool.Name(), clientID, time.Since(started), err)

		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf("tool %s failed: %v", tool.Name(), err))},
				IsError: true,
			}, nil
		}

		// search/open/find return raw text by contract; structured results
		// are serialized as JSON.
		if text, ok := result.(string); ok {
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewTextContent(text)},
				IsError: false,
			}, nil
		}

		payload := marshalToolPayload(tool.Name(), result)
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(payload))},
			IsError: false,
		}, nil
	}
}

func marshalToolPayload(toolName string, result interface{}) []byte {
	payload, marshalErr := json.Marshal(result)
	if marshalErr == nil {
		return payload
	}

	fallback := map[string]interface{}{
		"success": false,
		"error":   fmt.Sprintf("tool %s returned non-serializable payload: %v", toolName, marshalErr),
	}
	payload, fallbackErr := json.Marshal(fallback)
	if fallbackErr == nil {
		return payload
	}

	return []byte(fmt.Sprintf(`{"success":false,"error":"tool %s failed to encode payload"}`, toolName))
}

type ctxKey int

const clientIDKey ctxKey = iota

func withClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// ClientID returns the client identifier carried by the tool dispatch
// context, falling back to a shared default for direct invocation.
func ClientID(ctx context.Context) string {
	if id, ok := ctx.Value(clientIDKey).(string); ok && id != "" {
		return id
	}
	return "default"
}

// clientIDFromSession derives the client identifier from the MCP client
// session. Stdio serves a single client; SSE assigns one session per client.
func clientIDFromSession(ctx context.Context) string {
	if session := mcpserver.ClientSessionFromContext(ctx); session != nil {
		if id := session.SessionID(); id != "" {
			return id
		}
	}
	return "default"
}
