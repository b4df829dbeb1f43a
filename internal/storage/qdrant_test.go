//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/fec-legal-docs/internal/citation"
)

// setupTestStorage creates a storage instance on a throwaway collection.
// Skips test if Qdrant is not running.
func setupTestStorage(t *testing.T) *QdrantStorage {
	storage, err := NewQdrantStorage("localhost", 6334, "test_docs_"+uuid.New().String())
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	err = storage.EnsureCollection(context.Background())
	require.NoError(t, err, "Failed to ensure collection")

	t.Cleanup(func() {
		_ = storage.client.DeleteCollection(context.Background(), storage.collection)
		storage.Close()
	})
	return storage
}

func testOpinion(no, name string) *AdvisoryOpinion {
	n, _ := citation.ParseNumber(no)
	sort1, sort2 := n.SortKeys()
	return &AdvisoryOpinion{
		No:                  no,
		Name:                name,
		AOCitations:         []citation.Opinion{},
		AOsCitedBy:          []citation.Opinion{},
		StatutoryCitations:  []citation.Statute{},
		RegulatoryCitations: []citation.Regulation{},
		Sort1:               sort1,
		Sort2:               sort2,
		Documents:           []Document{},
		RequestorNames:      []string{},
		RequestorTypes:      []string{},
	}
}

func TestOpinionRoundTrip(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	ao := testOpinion("2008-12", "Alpha PAC")
	ao.RequestorNames = []string{"Jane Doe"}
	require.NoError(t, storage.UpsertOpinion(ctx, ao))

	got, err := storage.GetOpinion(ctx, "2008-12")
	require.NoError(t, err)
	assert.Equal(t, ao, got)
}

func TestUpsertReplaces(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	first := testOpinion("2008-12", "Old Name")
	first.RequestorNames = []string{"Old Requestor"}
	require.NoError(t, storage.UpsertOpinion(ctx, first))

	second := testOpinion("2008-12", "New Name")
	require.NoError(t, storage.UpsertOpinion(ctx, second))

	got, err := storage.GetOpinion(ctx, "2008-12")
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	assert.Empty(t, got.RequestorNames)

	count, err := storage.CountOpinions(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestListAndDeleteOpinions(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	for _, no := range []string{"2007-3", "2008-1", "2008-12"} {
		require.NoError(t, storage.UpsertOpinion(ctx, testOpinion(no, "AO "+no)))
	}

	list, err := storage.ListOpinions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2008-12", list[0].No)
	assert.Equal(t, "2008-1", list[1].No)
	assert.Equal(t, "2007-3", list[2].No)

	require.NoError(t, storage.DeleteOpinions(ctx))

	_, err = storage.GetOpinion(ctx, "2008-12")
	assert.ErrorIs(t, err, ErrOpinionNotFound)
}
