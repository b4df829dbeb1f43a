package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server   *mcp.Server
	store    OpinionStore
	embedder QueryEmbedder
}

// Config holds server dependencies. Embedder is optional; without it the
// search tool is not registered.
type Config struct {
	Store    OpinionStore
	Embedder QueryEmbedder
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "fec-legal-docs-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_advisory_opinions",
		Description: "List indexed FEC advisory opinions, newest first. Optionally filter by year or pending status.",
	}, makeListHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_advisory_opinion",
		Description: "Retrieve an FEC advisory opinion by number, including citations, documents and requestors.",
	}, makeFetchHandler(cfg.Store))

	if cfg.Embedder != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "search_advisory_opinions",
			Description: "Search FEC advisory opinions semantically by name and summary. Use fetch_advisory_opinion for the full record.",
		}, makeSearchHandler(cfg.Store, cfg.Embedder))
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get the current status of the advisory opinion index including opinion counts.",
	}, makeStatusHandler(cfg.Store, cfg.Embedder != nil))

	return &Server{
		server:   server,
		store:    cfg.Store,
		embedder: cfg.Embedder,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
