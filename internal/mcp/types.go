// Package mcp exposes the advisory opinion index over the Model Context Protocol.
package mcp

import "github.com/bull/fec-legal-docs/internal/storage"

// ListOpinionsInput defines the input parameters for the list_advisory_opinions tool.
type ListOpinionsInput struct {
	// Year restricts the listing to opinions numbered in that year.
	Year int `json:"year,omitempty" jsonschema:"Only list opinions from this year (e.g. 2008)"`
	// PendingOnly restricts the listing to opinions without a final opinion or withdrawal.
	PendingOnly bool `json:"pending_only,omitempty" jsonschema:"Only list pending opinions"`
}

// OpinionSummary is the listing view of an opinion.
type OpinionSummary struct {
	No        string `json:"no"`
	Name      string `json:"name"`
	IsPending bool   `json:"is_pending"`
}

// ListOpinionsOutput contains indexed opinions, newest first.
type ListOpinionsOutput struct {
	Opinions []OpinionSummary `json:"opinions"`
	Count    int              `json:"count"`
}

// FetchOpinionInput defines the input parameters for the fetch_advisory_opinion tool.
type FetchOpinionInput struct {
	// No is the opinion number, e.g. "2008-12".
	No string `json:"no" jsonschema:"The advisory opinion number in YEAR-SERIAL form (e.g. 2008-12)"`
}

// FetchOpinionOutput contains the indexed opinion document.
type FetchOpinionOutput struct {
	No      string                   `json:"no"`
	Found   bool                     `json:"found"`
	Opinion *storage.AdvisoryOpinion `json:"opinion,omitempty"`
}

// SearchOpinionsInput defines the input parameters for the search_advisory_opinions tool.
type SearchOpinionsInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"The semantic search query matched against opinion names and summaries"`
	// MaxResults is the maximum number of opinions to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"Maximum number of opinions to return (1-20, default 5)"`
	// MinScore is the minimum relevance threshold (0-1).
	MinScore float64 `json:"min_score,omitempty" jsonschema:"Minimum relevance score threshold (0-1, default 0.4)"`
}

// SearchResult is a single opinion matched by semantic search.
type SearchResult struct {
	OpinionSummary
	Score float64 `json:"score"`
}

// SearchOpinionsOutput contains the search results.
type SearchOpinionsOutput struct {
	Results []SearchResult `json:"results"`
	// Message provides informational context (e.g., "No matching opinions found").
	Message string `json:"message,omitempty"`
}

// StatusInput defines the input parameters for the get_index_status tool.
type StatusInput struct{}

// StatusOutput describes the opinion index.
type StatusOutput struct {
	Collection        string `json:"collection"`
	TotalOpinions     int    `json:"total_opinions"`
	PendingOpinions   int    `json:"pending_opinions"`
	NewestOpinion     string `json:"newest_opinion,omitempty"`
	EmbeddingsEnabled bool   `json:"embeddings_enabled"`
}
