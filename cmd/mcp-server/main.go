// Package main provides the MCP server entry point for FEC advisory opinions.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bull/fec-legal-docs/internal/config"
	"github.com/bull/fec-legal-docs/internal/embedding"
	mcpserver "github.com/bull/fec-legal-docs/internal/mcp"
	"github.com/bull/fec-legal-docs/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	// stdout carries the stdio transport
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	store, err := storage.NewQdrantStorage(cfg.QdrantHost, cfg.QdrantPort, cfg.DocsIndex)
	if err != nil {
		logger.Error("failed to connect to Qdrant", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		logger.Error("failed to ensure collection", "error", err)
		os.Exit(1)
	}

	serverCfg := &mcpserver.Config{Store: store}
	if cfg.EmbedOpinions {
		client, err := embedding.NewClient(cfg.OpenAIAPIKey)
		if err != nil {
			logger.Error("failed to create embedding client", "error", err)
			os.Exit(1)
		}
		serverCfg.Embedder = embedding.NewEmbedder(client, 0)
	}
	server := mcpserver.NewServer(serverCfg)

	httpServer := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           mcpserver.NewMux(server, store),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	if cfg.ServerMode {
		logger.Info("Starting HTTP server", "addr", httpServer.Addr, "mcp", "/mcp", "health", "/health")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Stdio mode still serves /health for local checks.
	go func() {
		logger.Info("Starting health server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Health server error", "error", err)
		}
	}()

	logger.Info("Starting FEC advisory opinion MCP server (stdio mode)")
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
