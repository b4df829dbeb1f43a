package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/fec-legal-docs/internal/citation"
	"github.com/bull/fec-legal-docs/internal/storage"
)

type fakeStore struct {
	opinions  map[string]*storage.AdvisoryOpinion
	summaries []storage.OpinionSummary
	hits      []storage.ScoredOpinion
	healthErr error
	getErr    error
	lastLimit int
}

func (s *fakeStore) Health(context.Context) error { return s.healthErr }
func (s *fakeStore) Collection() string          { return "docs_index" }

func (s *fakeStore) GetOpinion(_ context.Context, no string) (*storage.AdvisoryOpinion, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	ao, ok := s.opinions[no]
	if !ok {
		return nil, storage.ErrOpinionNotFound
	}
	return ao, nil
}

func (s *fakeStore) ListOpinions(context.Context) ([]storage.OpinionSummary, error) {
	return s.summaries, nil
}

func (s *fakeStore) SearchOpinions(_ context.Context, _ []float32, limit int) ([]storage.ScoredOpinion, error) {
	s.lastLimit = limit
	return s.hits, nil
}

func (s *fakeStore) CountOpinions(context.Context) (uint64, error) {
	return uint64(len(s.summaries)), nil
}

type fakeEmbedder struct{ err error }

func (e fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1}, e.err
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		opinions: map[string]*storage.AdvisoryOpinion{
			"2008-12": {No: "2008-12", Name: "Name", Sort1: -2008, Sort2: -12, AOCitations: []citation.Opinion{}},
		},
		summaries: []storage.OpinionSummary{
			{No: "2010-05", Name: "Beta", IsPending: true, Sort1: -2010, Sort2: -5},
			{No: "2008-12", Name: "Name", Sort1: -2008, Sort2: -12},
			{No: "2008-03", Name: "Gamma", IsPending: true, Sort1: -2008, Sort2: -3},
		},
	}
}

func TestListHandler(t *testing.T) {
	handler := makeListHandler(newFakeStore())

	_, out, err := handler(context.Background(), nil, ListOpinionsInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, "2010-05", out.Opinions[0].No)

	_, out, err = handler(context.Background(), nil, ListOpinionsInput{Year: 2008})
	require.NoError(t, err)
	assert.Equal(t, []OpinionSummary{
		{No: "2008-12", Name: "Name"},
		{No: "2008-03", Name: "Gamma", IsPending: true},
	}, out.Opinions)

	_, out, err = handler(context.Background(), nil, ListOpinionsInput{Year: 2008, PendingOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "2008-03", out.Opinions[0].No)
}

func TestListHandler_EmptyIndex(t *testing.T) {
	_, out, err := makeListHandler(&fakeStore{})(context.Background(), nil, ListOpinionsInput{})
	require.NoError(t, err)
	assert.NotNil(t, out.Opinions)
	assert.Zero(t, out.Count)
}

func TestFetchHandler(t *testing.T) {
	handler := makeFetchHandler(newFakeStore())

	_, out, err := handler(context.Background(), nil, FetchOpinionInput{No: " 2008-12 "})
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, "Name", out.Opinion.Name)

	_, out, err = handler(context.Background(), nil, FetchOpinionInput{No: "1999-9999"})
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Nil(t, out.Opinion)

	_, _, err = handler(context.Background(), nil, FetchOpinionInput{No: "latest"})
	assert.ErrorIs(t, err, citation.ErrMalformedNumber)
}

func TestFetchHandler_StoreError(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection reset")

	_, _, err := makeFetchHandler(store)(context.Background(), nil, FetchOpinionInput{No: "2008-12"})
	assert.ErrorContains(t, err, "connection reset")
}

func TestSearchHandler(t *testing.T) {
	store := newFakeStore()
	store.hits = []storage.ScoredOpinion{
		{OpinionSummary: storage.OpinionSummary{No: "2010-05", Name: "Beta"}, Score: 0.9},
		{OpinionSummary: storage.OpinionSummary{No: "2008-12", Name: "Name"}, Score: 0.2},
	}
	handler := makeSearchHandler(store, fakeEmbedder{})

	_, out, err := handler(context.Background(), nil, SearchOpinionsInput{Query: "candidate travel"})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "2010-05", out.Results[0].No)
	assert.Equal(t, 5, store.lastLimit)

	_, out, err = handler(context.Background(), nil, SearchOpinionsInput{Query: "x", MinScore: 0.95, MaxResults: 50})
	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.NotEmpty(t, out.Message)
	assert.Equal(t, 20, store.lastLimit)
}

func TestSearchHandler_EmbedFailure(t *testing.T) {
	handler := makeSearchHandler(newFakeStore(), fakeEmbedder{err: errors.New("quota")})

	_, _, err := handler(context.Background(), nil, SearchOpinionsInput{Query: "x"})
	assert.ErrorContains(t, err, "failed to embed query")
}

func TestStatusHandler(t *testing.T) {
	_, out, err := makeStatusHandler(newFakeStore(), true)(context.Background(), nil, StatusInput{})
	require.NoError(t, err)

	assert.Equal(t, StatusOutput{
		Collection:        "docs_index",
		TotalOpinions:     3,
		PendingOpinions:   2,
		NewestOpinion:     "2010-05",
		EmbeddingsEnabled: true,
	}, out)
}

func toolNames(t *testing.T, cfg *Config) []string {
	t.Helper()
	ctx := context.Background()
	server := NewServer(cfg)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	_, err := server.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	result, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestNewServer_Tools(t *testing.T) {
	names := toolNames(t, &Config{Store: newFakeStore()})
	assert.ElementsMatch(t, []string{"list_advisory_opinions", "fetch_advisory_opinion", "get_index_status"}, names)

	names = toolNames(t, &Config{Store: newFakeStore(), Embedder: fakeEmbedder{}})
	assert.Contains(t, names, "search_advisory_opinions")
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     int
		status   string
		indexVal string
	}{
		{"healthy", nil, http.StatusOK, "healthy", "connected"},
		{"unhealthy", errors.New("down"), http.StatusServiceUnavailable, "unhealthy", "disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(&fakeStore{healthErr: tt.err}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.indexVal, resp.Index)
		})
	}
}

func TestLandingHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewLandingHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "list_advisory_opinions")

	rec = httptest.NewRecorder()
	NewLandingHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
