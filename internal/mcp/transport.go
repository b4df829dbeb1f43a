package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewHTTPHandler serves the MCP server over Streamable HTTP. Stateless
// mode disables session tracking.
func NewHTTPHandler(server *Server, stateless bool) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server.MCPServer()
	}, &mcp.StreamableHTTPOptions{Stateless: stateless})
}

// NewMux mounts the landing page at /, the health check at /health and
// the MCP endpoint at /mcp.
func NewMux(server *Server, health HealthChecker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", NewLandingHandler())
	mux.HandleFunc("/health", NewHealthHandler(health))
	mux.Handle("/mcp", NewHTTPHandler(server, false))
	return mux
}
