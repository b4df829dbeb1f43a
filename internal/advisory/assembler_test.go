package advisory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/fec-legal-docs/internal/citation"
	"github.com/bull/fec-legal-docs/internal/objectstore"
	"github.com/bull/fec-legal-docs/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeSource is an in-memory Source. Citation texts are keyed by opinion
// number and streamed in insertion order.
type fakeSource struct {
	opinions   []OpinionRow
	texts      [][2]string
	documents  map[int][]DocumentRow
	requestors map[int][]RequestorRow

	mu     sync.Mutex
	events []string
}

func (s *fakeSource) record(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *fakeSource) OpinionNames(context.Context) (map[string]string, error) {
	names := make(map[string]string, len(s.opinions))
	for _, o := range s.opinions {
		names[o.No] = o.Name
	}
	return names, nil
}

func (s *fakeSource) EachCitationText(_ context.Context, fn func(no, text string) error) error {
	for _, t := range s.texts {
		s.record("text " + t[0])
		if err := fn(t[0], t[1]); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSource) EachOpinion(_ context.Context, fn func(OpinionRow) error) error {
	for _, o := range s.opinions {
		if err := fn(o); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSource) Documents(_ context.Context, opinionID int) ([]DocumentRow, error) {
	s.record("documents")
	return s.documents[opinionID], nil
}

func (s *fakeSource) Requestors(_ context.Context, opinionID int) ([]RequestorRow, error) {
	return s.requestors[opinionID], nil
}

func (s *fakeSource) DocumentIDs(context.Context) (map[int]struct{}, error) {
	ids := make(map[int]struct{})
	for _, docs := range s.documents {
		for _, d := range docs {
			ids[d.ID] = struct{}{}
		}
	}
	return ids, nil
}

func newSyncer(bucket objectstore.Bucket) *objectstore.Synchronizer {
	return objectstore.NewSynchronizer(bucket, "fec-bucket", objectstore.WithLogger(discard))
}

func collect(t *testing.T, a *Assembler) []*storage.AdvisoryOpinion {
	t.Helper()
	var out []*storage.AdvisoryOpinion
	for ao, err := range a.All(context.Background()) {
		require.NoError(t, err)
		out = append(out, ao)
	}
	return out
}

func TestAll_SingleOpinion(t *testing.T) {
	source := &fakeSource{
		opinions: []OpinionRow{{ID: 10, No: "2008-12", Name: "Name"}},
		documents: map[int][]DocumentRow{
			10: {{ID: 1, Category: "Final Opinion", FileImage: []byte("ABC")}},
		},
	}
	bucket := objectstore.NewMemoryBucket()
	a := NewAssembler(source, newSyncer(bucket), WithLogger(discard))

	aos := collect(t, a)
	require.Len(t, aos, 1)
	ao := aos[0]

	assert.Equal(t, "2008-12", ao.No)
	assert.Equal(t, "Name", ao.Name)
	assert.Equal(t, -2008, ao.Sort1)
	assert.Equal(t, -12, ao.Sort2)
	assert.False(t, ao.IsPending)
	assert.Nil(t, ao.IssueDate)
	assert.Empty(t, ao.AOCitations)
	assert.Empty(t, ao.AOsCitedBy)
	assert.Empty(t, ao.StatutoryCitations)
	assert.Empty(t, ao.RegulatoryCitations)
	assert.NotNil(t, ao.RequestorNames)
	assert.Empty(t, ao.RequestorNames)
	assert.NotNil(t, ao.RequestorTypes)
	assert.Empty(t, ao.RequestorTypes)

	require.Len(t, ao.Documents, 1)
	assert.Equal(t, storage.Document{
		DocumentID: 1,
		Category:   "Final Opinion",
		URL:        "https://fec-bucket.s3.amazonaws.com/legal/aos/1.pdf",
	}, ao.Documents[0])

	obj, ok := bucket.Get("legal/aos/1.pdf")
	require.True(t, ok)
	assert.Equal(t, []byte("ABC"), obj.Body)
}

func TestAll_CitationsAndRequestors(t *testing.T) {
	issued := time.Date(2010, 3, 4, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{
		opinions: []OpinionRow{
			{ID: 1, No: "2009-01", Name: "Alpha", IssueDate: &issued},
			{ID: 2, No: "2010-05", Name: "Beta"},
		},
		texts: [][2]string{
			{"2010-05", "See AO 2009-01 and 11 CFR 104.1; also 2099-99."},
		},
		requestors: map[int][]RequestorRow{
			2: {
				{Name: "Jane", Description: "Individual"},
				{Name: "Acme PAC", Description: "Political Committee"},
				{Name: "John", Description: "Individual"},
			},
		},
	}
	a := NewAssembler(source, newSyncer(objectstore.NewMemoryBucket()), WithLogger(discard))

	aos := collect(t, a)
	require.Len(t, aos, 2)
	alpha, beta := aos[0], aos[1]

	assert.Equal(t, &issued, alpha.IssueDate)
	assert.Empty(t, alpha.AOCitations)
	assert.Equal(t, []citation.Opinion{{No: "2010-05", Name: "Beta"}}, alpha.AOsCitedBy)

	assert.Equal(t, []citation.Opinion{{No: "2009-01", Name: "Alpha"}}, beta.AOCitations)
	assert.Empty(t, beta.AOsCitedBy)
	assert.Equal(t, []citation.Regulation{{Title: 11, Part: 104, Section: 1}}, beta.RegulatoryCitations)
	assert.Equal(t, []string{"Jane", "Acme PAC", "John"}, beta.RequestorNames)
	assert.Equal(t, []string{"Individual", "Political Committee"}, beta.RequestorTypes)
}

func TestAll_CitationsCompleteBeforeAssembly(t *testing.T) {
	source := &fakeSource{
		opinions: []OpinionRow{
			{ID: 1, No: "2009-01", Name: "Alpha"},
			{ID: 2, No: "2010-05", Name: "Beta"},
		},
		texts: [][2]string{
			{"2009-01", "no citations"},
			{"2010-05", "cites 2009-01"},
		},
	}
	a := NewAssembler(source, newSyncer(objectstore.NewMemoryBucket()), WithLogger(discard))

	aos := collect(t, a)
	require.Len(t, aos, 2)

	assert.Equal(t, []string{"text 2009-01", "text 2010-05", "documents", "documents"}, source.events)
	// The first opinion is assembled after the later document that cites it.
	assert.Equal(t, []citation.Opinion{{No: "2010-05", Name: "Beta"}}, aos[0].AOsCitedBy)
}

func TestAll_PendingWithoutClosingDocument(t *testing.T) {
	source := &fakeSource{
		opinions: []OpinionRow{
			{ID: 1, No: "2015-01", Name: "Open"},
			{ID: 2, No: "2015-02", Name: "Withdrawn"},
			{ID: 3, No: "2015-03", Name: "Empty"},
		},
		documents: map[int][]DocumentRow{
			1: {{ID: 11, Category: "AO Request", FileImage: []byte("r")}},
			2: {
				{ID: 21, Category: "AO Request", FileImage: []byte("r")},
				{ID: 22, Category: "Withdrawal of Request", FileImage: []byte("w")},
			},
		},
	}
	a := NewAssembler(source, newSyncer(objectstore.NewMemoryBucket()), WithLogger(discard))

	aos := collect(t, a)
	require.Len(t, aos, 3)
	assert.True(t, aos[0].IsPending)
	assert.False(t, aos[1].IsPending)
	assert.True(t, aos[2].IsPending)
	assert.NotNil(t, aos[2].Documents)
	assert.Empty(t, aos[2].Documents)
}

func TestAll_ParallelUploadsKeepOrder(t *testing.T) {
	var docs []DocumentRow
	for id := 1; id <= 20; id++ {
		docs = append(docs, DocumentRow{ID: id, Category: "Comment", FileImage: []byte{byte(id)}})
	}
	source := &fakeSource{
		opinions:  []OpinionRow{{ID: 1, No: "2020-07", Name: "Many"}},
		documents: map[int][]DocumentRow{1: docs},
	}
	bucket := objectstore.NewMemoryBucket()
	a := NewAssembler(source, newSyncer(bucket), WithLogger(discard), WithUploadConcurrency(4))

	aos := collect(t, a)
	require.Len(t, aos, 1)
	require.Len(t, aos[0].Documents, 20)
	for i, d := range aos[0].Documents {
		assert.Equal(t, i+1, d.DocumentID)
		assert.Equal(t, objectstore.DocumentKey(i+1), d.URL[len("https://fec-bucket.s3.amazonaws.com/"):])
	}
	assert.Equal(t, 20, bucket.Puts())
}

func TestAll_MalformedNumberIsFatal(t *testing.T) {
	source := &fakeSource{
		opinions: []OpinionRow{{ID: 1, No: "AO-12", Name: "Bad"}},
	}
	a := NewAssembler(source, newSyncer(objectstore.NewMemoryBucket()), WithLogger(discard))

	var gotErr error
	for _, err := range a.All(context.Background()) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, citation.ErrMalformedNumber)
}

func TestAll_UploadFailureStopsRun(t *testing.T) {
	source := &fakeSource{
		opinions: []OpinionRow{
			{ID: 1, No: "2011-01", Name: "First"},
			{ID: 2, No: "2011-02", Name: "Second"},
		},
		documents: map[int][]DocumentRow{
			1: {{ID: 5, Category: "Final Opinion"}},
			2: {{ID: 6, Category: "Final Opinion", FileImage: []byte("ok")}},
		},
	}
	bucket := objectstore.NewMemoryBucket()
	a := NewAssembler(source, newSyncer(bucket), WithLogger(discard))

	var yielded int
	var gotErr error
	for ao, err := range a.All(context.Background()) {
		if err != nil {
			gotErr = err
			break
		}
		if ao != nil {
			yielded++
		}
	}
	assert.ErrorIs(t, gotErr, objectstore.ErrMissingContent)
	assert.Zero(t, yielded)
	assert.Zero(t, bucket.Puts())
}

func TestAll_ConsumerCanStopEarly(t *testing.T) {
	source := &fakeSource{
		opinions: []OpinionRow{
			{ID: 1, No: "2012-01", Name: "One"},
			{ID: 2, No: "2012-02", Name: "Two"},
		},
	}
	a := NewAssembler(source, newSyncer(objectstore.NewMemoryBucket()), WithLogger(discard))

	var seen []string
	for ao, err := range a.All(context.Background()) {
		require.NoError(t, err)
		seen = append(seen, ao.No)
		break
	}
	assert.Equal(t, []string{"2012-01"}, seen)
}

type failingSource struct {
	fakeSource
	err error
}

func (s *failingSource) OpinionNames(context.Context) (map[string]string, error) {
	return nil, s.err
}

func TestAll_SourceFailure(t *testing.T) {
	boom := errors.New("connection refused")
	a := NewAssembler(&failingSource{err: boom}, newSyncer(objectstore.NewMemoryBucket()), WithLogger(discard))

	var gotErr error
	for _, err := range a.All(context.Background()) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, boom)
}

func TestIsPending(t *testing.T) {
	assert.True(t, IsPending(nil))
	assert.True(t, IsPending([]storage.Document{{Category: "AO Request"}}))
	assert.False(t, IsPending([]storage.Document{{Category: "AO Request"}, {Category: "Final Opinion"}}))
}
