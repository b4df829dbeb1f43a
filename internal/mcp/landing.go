package mcp

import "net/http"

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>FEC Advisory Opinions MCP Server</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #f8fafc; color: #0f172a; max-width: 640px; margin: 3rem auto; padding: 0 1rem; }
  h1 { font-size: 1.5rem; margin-bottom: 0.25rem; }
  .subtitle { color: #475569; margin-bottom: 1.5rem; }
  h2 { font-size: 0.8rem; text-transform: uppercase; letter-spacing: 0.08em; color: #64748b; }
  code { font-family: "SF Mono", Menlo, monospace; color: #1d4ed8; }
  li { margin: 0.3rem 0; }
</style>
</head>
<body>
  <h1>FEC Advisory Opinions</h1>
  <p class="subtitle">Read-only access to indexed advisory opinions, their citations and attached documents via the Model Context Protocol.</p>

  <h2>Endpoints</h2>
  <ul>
    <li><a href="/mcp"><code>/mcp</code></a>: MCP Streamable HTTP</li>
    <li><a href="/health"><code>/health</code></a>: health check</li>
  </ul>

  <h2>Tools</h2>
  <ul>
    <li><code>list_advisory_opinions</code></li>
    <li><code>fetch_advisory_opinion</code></li>
    <li><code>search_advisory_opinions</code> (when embeddings are enabled)</li>
    <li><code>get_index_status</code></li>
  </ul>
</body>
</html>`

// NewLandingHandler returns an HTTP handler that serves the landing page at /.
func NewLandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(landingHTML))
	}
}
