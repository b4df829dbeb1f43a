package advisory

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bull/fec-legal-docs/internal/citation"
	"github.com/bull/fec-legal-docs/internal/storage"
)

// Document categories that close an opinion request.
const (
	CategoryFinalOpinion = "Final Opinion"
	CategoryWithdrawal   = "Withdrawal of Request"
)

// errStopped signals that the consumer stopped iterating.
var errStopped = errors.New("iteration stopped")

// Assembler builds one search document per advisory opinion.
type Assembler struct {
	source            Source
	uploader          Uploader
	uploadConcurrency int
	logger            *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithUploadConcurrency bounds the parallel attachment uploads of a single
// opinion. Values below 1 mean sequential uploads.
func WithUploadConcurrency(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.uploadConcurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssembler creates an assembler reading from source and storing
// attachments through uploader.
func NewAssembler(source Source, uploader Uploader, opts ...Option) *Assembler {
	a := &Assembler{
		source:            source,
		uploader:          uploader,
		uploadConcurrency: 1,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Citations computes the citation graph over every final opinion.
func (a *Assembler) Citations(ctx context.Context) (citation.Index, error) {
	names, err := a.source.OpinionNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("get opinion names: %w", err)
	}

	agg, err := citation.NewAggregator(names, citation.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	a.logger.Info("Getting citations...")
	err = a.source.EachCitationText(ctx, func(no, text string) error {
		agg.Add(no, text)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan citation texts: %w", err)
	}

	return agg.Build(), nil
}

// All yields assembled opinions one at a time in source order. The
// citation graph is complete before the first opinion is assembled.
// Iteration ends after the first error.
func (a *Assembler) All(ctx context.Context) iter.Seq2[*storage.AdvisoryOpinion, error] {
	return func(yield func(*storage.AdvisoryOpinion, error) bool) {
		citations, err := a.Citations(ctx)
		if err != nil {
			yield(nil, err)
			return
		}

		err = a.source.EachOpinion(ctx, func(row OpinionRow) error {
			ao, err := a.Assemble(ctx, row, citations)
			if err != nil {
				return err
			}
			if !yield(ao, nil) {
				return errStopped
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield(nil, err)
		}
	}
}

// Assemble joins one opinion row with its citations, documents and
// requestors. Attachments are uploaded as a side effect.
func (a *Assembler) Assemble(ctx context.Context, row OpinionRow, citations citation.Index) (*storage.AdvisoryOpinion, error) {
	n, err := citation.ParseNumber(row.No)
	if err != nil {
		return nil, err
	}
	sort1, sort2 := n.SortKeys()
	buckets := citations.Get(row.No)

	documents, err := a.documents(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("opinion %s: %w", row.No, err)
	}

	names, types, err := a.requestors(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("opinion %s: %w", row.No, err)
	}

	return &storage.AdvisoryOpinion{
		No:                  row.No,
		Name:                row.Name,
		Summary:             row.Summary,
		IssueDate:           row.IssueDate,
		IsPending:           IsPending(documents),
		AOCitations:         buckets.AO,
		AOsCitedBy:          buckets.CitedBy,
		StatutoryCitations:  buckets.Statutes,
		RegulatoryCitations: buckets.Regulations,
		Sort1:               sort1,
		Sort2:               sort2,
		Documents:           documents,
		RequestorNames:      names,
		RequestorTypes:      types,
	}, nil
}

// documents fetches an opinion's attachments and uploads each one.
// Every document has its own key, so parallel uploads never race.
func (a *Assembler) documents(ctx context.Context, opinionID int) ([]storage.Document, error) {
	rows, err := a.source.Documents(ctx, opinionID)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}

	documents := make([]storage.Document, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.uploadConcurrency)
	for i, row := range rows {
		g.Go(func() error {
			url, err := a.uploader.Upload(gctx, row.ID, row.FileImage)
			if err != nil {
				return err
			}
			documents[i] = storage.Document{
				DocumentID:  row.ID,
				Category:    row.Category,
				Description: row.Description,
				Text:        row.Text,
				Date:        row.Date,
				URL:         url,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return documents, nil
}

// requestors splits requestor rows into ordered names and distinct types.
func (a *Assembler) requestors(ctx context.Context, opinionID int) ([]string, []string, error) {
	rows, err := a.source.Requestors(ctx, opinionID)
	if err != nil {
		return nil, nil, fmt.Errorf("get requestors: %w", err)
	}

	names := make([]string, 0, len(rows))
	types := make([]string, 0, len(rows))
	seen := make(map[string]bool)
	for _, r := range rows {
		names = append(names, r.Name)
		if !seen[r.Description] {
			seen[r.Description] = true
			types = append(types, r.Description)
		}
	}
	return names, types, nil
}

// IsPending reports whether no document closes the request.
func IsPending(documents []storage.Document) bool {
	for _, d := range documents {
		if d.Category == CategoryFinalOpinion || d.Category == CategoryWithdrawal {
			return false
		}
	}
	return true
}
