package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"intelligent-search-mcp-server/internal/browser"
	"intelligent-search-mcp-server/internal/config"
	"intelligent-search-mcp-server/internal/creds"
	"intelligent-search-mcp-server/internal/llm"
	mcpserver "intelligent-search-mcp-server/internal/mcp"
	"intelligent-search-mcp-server/internal/recorder"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the intelligent-search MCP config file")
	ssePort := flag.Int("sse-port", 0, "Optional SSE port override (falls back to config)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *ssePort != 0 {
		cfg.MCP.SSEPort = *ssePort
	}

	// Redirect logging to file for stdio mode (stderr interferes with MCP protocol)
	if cfg.MCP.SSEPort == 0 && cfg.Server.LogFile != "" {
		logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			log.SetOutput(logFile)
			defer logFile.Close()
		} else {
			log.SetOutput(io.Discard)
		}
	}

	var renderer *browser.ChromeRenderer
	if cfg.Backend.Renderer == "chrome" {
		renderer = browser.NewChromeRenderer(cfg.Backend.Chrome)
		if err := renderer.Start(ctx); err != nil {
			log.Fatalf("failed to start Chrome renderer: %v", err)
		}
		defer func() { _ = renderer.Shutdown() }()
	}

	sessions := browser.NewRegistry(browser.FactoryFromConfig(cfg.Backend, renderer))
	credCache := creds.NewCache()
	llmClient := llm.NewClient()

	var trace *recorder.Recorder
	if cfg.Server.TraceDir != "" {
		trace, err = recorder.NewRecorder(cfg.Server.TraceDir)
		if err != nil {
			log.Fatalf("failed to initialize trace recorder: %v", err)
		}
		defer trace.Close()
	}

	server, err := mcpserver.NewServer(cfg, sessions, credCache, llmClient, trace)
	if err != nil {
		log.Fatalf("failed to initialize MCP server: %v", err)
	}
	if trace != nil {
		if err := trace.Start(server.InstanceID()); err != nil {
			log.Printf("warning: trace recorder disabled: %v", err)
		}
	}

	var startErr error
	if cfg.MCP.SSEPort > 0 {
		log.Printf("starting intelligent-search MCP SSE server on port %d", cfg.MCP.SSEPort)
		startErr = server.StartSSE(ctx, cfg.MCP.SSEPort)
	} else {
		log.Printf("starting intelligent-search MCP stdio server")
		startErr = server.Start(ctx)
	}

	if startErr != nil && !errors.Is(startErr, context.Canceled) {
		log.Fatalf("server exited with error: %v", startErr)
	}
}
