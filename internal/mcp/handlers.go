package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/fec-legal-docs/internal/citation"
	"github.com/bull/fec-legal-docs/internal/storage"
)

// OpinionStore is the read side of the opinion index.
type OpinionStore interface {
	HealthChecker
	Collection() string
	GetOpinion(ctx context.Context, no string) (*storage.AdvisoryOpinion, error)
	ListOpinions(ctx context.Context) ([]storage.OpinionSummary, error)
	SearchOpinions(ctx context.Context, embedding []float32, limit int) ([]storage.ScoredOpinion, error)
	CountOpinions(ctx context.Context) (uint64, error)
}

// QueryEmbedder embeds search queries.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

func summaryOf(o storage.OpinionSummary) OpinionSummary {
	return OpinionSummary{No: o.No, Name: o.Name, IsPending: o.IsPending}
}

// makeListHandler creates the list_advisory_opinions tool handler.
func makeListHandler(store OpinionStore) func(
	context.Context, *mcp.CallToolRequest, ListOpinionsInput,
) (*mcp.CallToolResult, ListOpinionsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListOpinionsInput) (
		*mcp.CallToolResult, ListOpinionsOutput, error,
	) {
		all, err := store.ListOpinions(ctx)
		if err != nil {
			return nil, ListOpinionsOutput{}, fmt.Errorf("failed to list opinions: %w", err)
		}

		opinions := make([]OpinionSummary, 0, len(all))
		for _, o := range all {
			// sort1 is the negated year
			if input.Year != 0 && -o.Sort1 != input.Year {
				continue
			}
			if input.PendingOnly && !o.IsPending {
				continue
			}
			opinions = append(opinions, summaryOf(o))
		}

		return nil, ListOpinionsOutput{
			Opinions: opinions,
			Count:    len(opinions),
		}, nil
	}
}

// makeFetchHandler creates the fetch_advisory_opinion tool handler.
func makeFetchHandler(store OpinionStore) func(
	context.Context, *mcp.CallToolRequest, FetchOpinionInput,
) (*mcp.CallToolResult, FetchOpinionOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input FetchOpinionInput) (
		*mcp.CallToolResult, FetchOpinionOutput, error,
	) {
		no := strings.TrimSpace(input.No)
		if _, err := citation.ParseNumber(no); err != nil {
			return nil, FetchOpinionOutput{}, err
		}

		ao, err := store.GetOpinion(ctx, no)
		if err != nil {
			if errors.Is(err, storage.ErrOpinionNotFound) {
				return nil, FetchOpinionOutput{No: no, Found: false}, nil
			}
			return nil, FetchOpinionOutput{}, fmt.Errorf("failed to fetch opinion: %w", err)
		}

		return nil, FetchOpinionOutput{No: no, Found: true, Opinion: ao}, nil
	}
}

// makeSearchHandler creates the search_advisory_opinions tool handler.
func makeSearchHandler(store OpinionStore, embedder QueryEmbedder) func(
	context.Context, *mcp.CallToolRequest, SearchOpinionsInput,
) (*mcp.CallToolResult, SearchOpinionsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchOpinionsInput) (
		*mcp.CallToolResult, SearchOpinionsOutput, error,
	) {
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 5
		}
		maxResults = min(maxResults, 20)
		minScore := input.MinScore
		if minScore <= 0 {
			minScore = 0.4
		}

		query, err := embedder.EmbedQuery(ctx, input.Query)
		if err != nil {
			return nil, SearchOpinionsOutput{}, fmt.Errorf("failed to embed query: %w", err)
		}

		hits, err := store.SearchOpinions(ctx, query, maxResults)
		if err != nil {
			return nil, SearchOpinionsOutput{}, fmt.Errorf("search failed: %w", err)
		}

		results := make([]SearchResult, 0, len(hits))
		for _, hit := range hits {
			if hit.Score < minScore {
				continue
			}
			results = append(results, SearchResult{
				OpinionSummary: summaryOf(hit.OpinionSummary),
				Score:          hit.Score,
			})
		}

		if len(results) == 0 {
			return nil, SearchOpinionsOutput{
				Results: []SearchResult{},
				Message: "No matching opinions found. Try broader search terms.",
			}, nil
		}
		return nil, SearchOpinionsOutput{Results: results}, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler.
func makeStatusHandler(store OpinionStore, embeddingsEnabled bool) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		count, err := store.CountOpinions(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("qdrant_error: failed to count opinions: %w", err)
		}

		opinions, err := store.ListOpinions(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("qdrant_error: failed to list opinions: %w", err)
		}

		out := StatusOutput{
			Collection:        store.Collection(),
			TotalOpinions:     int(count),
			EmbeddingsEnabled: embeddingsEnabled,
		}
		for _, o := range opinions {
			if o.IsPending {
				out.PendingOpinions++
			}
		}
		if len(opinions) > 0 {
			out.NewestOpinion = opinions[0].No
		}
		return nil, out, nil
	}
}
