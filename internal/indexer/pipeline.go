package indexer

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/bull/fec-legal-docs/internal/embedding"
	"github.com/bull/fec-legal-docs/internal/storage"
)

// IndexResult contains statistics about an indexing operation.
type IndexResult struct {
	TotalOpinions   int
	PendingOpinions int
	TotalDocuments  int
	Citations       int
	DeletedObjects  []string
	Duration        time.Duration
}

// Opinions produces assembled opinions lazily.
type Opinions interface {
	All(ctx context.Context) iter.Seq2[*storage.AdvisoryOpinion, error]
}

// OpinionIndex is the search index opinions are written to.
type OpinionIndex interface {
	UpsertOpinion(ctx context.Context, ao *storage.AdvisoryOpinion) error
}

// Embedder turns texts into vectors.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentLister returns the ids of every document in the relational source.
type DocumentLister interface {
	DocumentIDs(ctx context.Context) (map[int]struct{}, error)
}

// Reconciler removes stored attachments whose document no longer exists.
type Reconciler interface {
	Reconcile(ctx context.Context, validIDs map[int]struct{}) ([]string, error)
}

// Recorder observes indexing progress.
type Recorder interface {
	OpinionIndexed(ao *storage.AdvisoryOpinion)
	RunCompleted(result *IndexResult, err error)
}

type nopRecorder struct{}

func (nopRecorder) OpinionIndexed(*storage.AdvisoryOpinion) {}
func (nopRecorder) RunCompleted(*IndexResult, error)        {}

// Pipeline streams assembled opinions into the search index.
type Pipeline struct {
	opinions   Opinions
	index      OpinionIndex
	embedder   Embedder
	documents  DocumentLister
	reconciler Reconciler
	recorder   Recorder
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEmbedder attaches a name and summary embedding to each opinion.
func WithEmbedder(e Embedder) Option {
	return func(p *Pipeline) { p.embedder = e }
}

// WithReconciler deletes orphaned attachments after a successful load.
func WithReconciler(documents DocumentLister, r Reconciler) Option {
	return func(p *Pipeline) {
		p.documents = documents
		p.reconciler = r
	}
}

// WithRecorder sets the progress recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(opinions Opinions, index OpinionIndex, opts ...Option) *Pipeline {
	p := &Pipeline{
		opinions: opinions,
		index:    index,
		recorder: nopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IndexAll loads every advisory opinion, one at a time, and then
// reconciles attachment storage when a reconciler is configured. The
// first failure aborts the run.
func (p *Pipeline) IndexAll(ctx context.Context) (result *IndexResult, err error) {
	start := time.Now()
	result = &IndexResult{}
	defer func() {
		result.Duration = time.Since(start)
		p.recorder.RunCompleted(result, err)
	}()

	p.logger.Info("Loading advisory opinions")
	for ao, err := range p.opinions.All(ctx) {
		if err != nil {
			return result, err
		}
		if err := p.indexOpinion(ctx, ao); err != nil {
			return result, err
		}

		result.TotalOpinions++
		result.TotalDocuments += len(ao.Documents)
		result.Citations += len(ao.AOCitations)
		if ao.IsPending {
			result.PendingOpinions++
		}
		p.recorder.OpinionIndexed(ao)
		p.logger.Info("AO loaded", "no", ao.No, "documents", len(ao.Documents))
	}
	p.logger.Info("Advisory opinions loaded", "count", result.TotalOpinions)

	if p.reconciler != nil {
		deleted, err := p.Reconcile(ctx)
		if err != nil {
			return result, err
		}
		result.DeletedObjects = deleted
	}

	p.logger.Info("Indexing complete",
		"opinions", result.TotalOpinions,
		"pending", result.PendingOpinions,
		"documents", result.TotalDocuments,
		"citations", result.Citations,
		"deleted_objects", len(result.DeletedObjects),
		"duration", time.Since(start),
	)
	return result, nil
}

// Reconcile deletes stored attachments of documents that no longer exist.
func (p *Pipeline) Reconcile(ctx context.Context) ([]string, error) {
	if p.reconciler == nil || p.documents == nil {
		return nil, fmt.Errorf("reconcile: no reconciler configured")
	}

	ids, err := p.documents.DocumentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list document ids: %w", err)
	}

	deleted, err := p.reconciler.Reconcile(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("reconcile storage: %w", err)
	}
	p.logger.Info("Reconciled attachment storage", "valid", len(ids), "deleted", len(deleted))
	return deleted, nil
}

// indexOpinion embeds (when enabled) and upserts a single opinion.
func (p *Pipeline) indexOpinion(ctx context.Context, ao *storage.AdvisoryOpinion) error {
	if p.embedder != nil {
		embeddings, err := p.embedder.GenerateEmbeddings(ctx, []string{embedding.OpinionText(ao)})
		if err != nil {
			return fmt.Errorf("embed opinion %s: %w", ao.No, err)
		}
		if len(embeddings) != 1 {
			return fmt.Errorf("embed opinion %s: expected 1 embedding, got %d", ao.No, len(embeddings))
		}
		ao.Embedding = embeddings[0]
	}

	if err := p.index.UpsertOpinion(ctx, ao); err != nil {
		return fmt.Errorf("index opinion %s: %w", ao.No, err)
	}
	return nil
}
