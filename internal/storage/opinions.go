package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/qdrant/go-client/qdrant"
)

// categoryFilter selects every point of one document category.
func categoryFilter(category string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("type", category),
		},
	}
}

// UpsertOpinion writes an opinion under its number, fully replacing any
// previously indexed version.
func (s *QdrantStorage) UpsertOpinion(ctx context.Context, ao *AdvisoryOpinion) error {
	vectors := map[string]*qdrant.Vector{}
	if len(ao.Embedding) > 0 {
		if len(ao.Embedding) != VectorDimension {
			return fmt.Errorf("%w: opinion %s has %d dimensions, expected %d",
				ErrDimensionMismatch, ao.No, len(ao.Embedding), VectorDimension)
		}
		vectors[VectorName] = qdrant.NewVector(ao.Embedding...)
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(PointID(CategoryAdvisoryOpinions, ao.No)),
		Vectors: qdrant.NewVectorsMap(vectors),
		Payload: qdrant.NewValueMap(opinionPayload(ao)),
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert opinion %s: %w", ao.No, err)
	}
	return nil
}

// GetOpinion retrieves an indexed opinion by number.
// Returns ErrOpinionNotFound if it is not indexed.
func (s *QdrantStorage) GetOpinion(ctx context.Context, no string) (*AdvisoryOpinion, error) {
	result, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(PointID(CategoryAdvisoryOpinions, no))},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get opinion: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrOpinionNotFound
	}

	payload := result[0].Payload
	if payload["type"].GetStringValue() != CategoryAdvisoryOpinions {
		return nil, ErrOpinionNotFound
	}

	return decodeOpinion(payload), nil
}

// OpinionSummary is the listing view of an indexed opinion.
type OpinionSummary struct {
	No        string
	Name      string
	IsPending bool
	Sort1     int
	Sort2     int
}

// ListOpinions returns every indexed opinion, newest first.
func (s *QdrantStorage) ListOpinions(ctx context.Context) ([]OpinionSummary, error) {
	var opinions []OpinionSummary
	var offset *qdrant.PointId

	batchSize := uint32(100)

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter:         categoryFilter(CategoryAdvisoryOpinions),
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude("no", "name", "is_pending", "sort1", "sort2"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll opinions: %w", err)
		}

		for _, result := range results {
			p := result.Payload
			opinions = append(opinions, OpinionSummary{
				No:        p["no"].GetStringValue(),
				Name:      p["name"].GetStringValue(),
				IsPending: p["is_pending"].GetBoolValue(),
				Sort1:     int(p["sort1"].GetIntegerValue()),
				Sort2:     int(p["sort2"].GetIntegerValue()),
			})
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	SortOpinions(opinions)
	return opinions, nil
}

// SortOpinions orders summaries by (sort1, sort2) ascending, which is
// newest year first and then highest serial first.
func SortOpinions(opinions []OpinionSummary) {
	sort.SliceStable(opinions, func(i, j int) bool {
		if opinions[i].Sort1 != opinions[j].Sort1 {
			return opinions[i].Sort1 < opinions[j].Sort1
		}
		return opinions[i].Sort2 < opinions[j].Sort2
	})
}

// ScoredOpinion is a semantic search hit.
type ScoredOpinion struct {
	OpinionSummary
	Score float64
}

// SearchOpinions runs a vector similarity search over opinions indexed
// with an embedding.
func (s *QdrantStorage) SearchOpinions(ctx context.Context, embedding []float32, limit int) ([]ScoredOpinion, error) {
	if len(embedding) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), VectorDimension)
	}

	vectorName := VectorName
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Using:          &vectorName,
		Filter:         categoryFilter(CategoryAdvisoryOpinions),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayloadInclude("no", "name", "is_pending", "sort1", "sort2"),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search opinions: %w", err)
	}

	hits := make([]ScoredOpinion, 0, len(results))
	for _, result := range results {
		p := result.Payload
		hits = append(hits, ScoredOpinion{
			OpinionSummary: OpinionSummary{
				No:        p["no"].GetStringValue(),
				Name:      p["name"].GetStringValue(),
				IsPending: p["is_pending"].GetBoolValue(),
				Sort1:     int(p["sort1"].GetIntegerValue()),
				Sort2:     int(p["sort2"].GetIntegerValue()),
			},
			Score: float64(result.Score),
		})
	}
	return hits, nil
}

// CountOpinions returns the number of indexed opinions.
func (s *QdrantStorage) CountOpinions(ctx context.Context) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         categoryFilter(CategoryAdvisoryOpinions),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count opinions: %w", err)
	}
	return count, nil
}

// DeleteOpinions removes every advisory opinion from the index, leaving
// other document categories in place.
func (s *QdrantStorage) DeleteOpinions(ctx context.Context) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(categoryFilter(CategoryAdvisoryOpinions)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete opinions: %w", err)
	}
	return nil
}
