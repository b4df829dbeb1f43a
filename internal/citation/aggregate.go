package citation

import (
	"cmp"
	"log/slog"
	"slices"
)

// Opinion is a reference to another advisory opinion.
type Opinion struct {
	No   string `json:"no"`
	Name string `json:"name"`
}

// Buckets holds the sorted citations for a single opinion.
type Buckets struct {
	AO          []Opinion    // opinions this one cites
	CitedBy     []Opinion    // opinions citing this one
	Statutes    []Statute    // sorted by (title, section)
	Regulations []Regulation // sorted by (title, part, section)
}

func emptyBuckets() Buckets {
	return Buckets{
		AO:          []Opinion{},
		CitedBy:     []Opinion{},
		Statutes:    []Statute{},
		Regulations: []Regulation{},
	}
}

// Index is the finished citation graph keyed by opinion number.
type Index map[string]Buckets

// Get returns the buckets for no, or empty buckets when the opinion
// neither cites nor is cited.
func (idx Index) Get(no string) Buckets {
	if b, ok := idx[no]; ok {
		return b
	}
	return emptyBuckets()
}

type rawBuckets struct {
	ao          Set[string]
	citedBy     Set[string]
	statutes    Set[Statute]
	regulations Set[Regulation]
}

// Aggregator accumulates citations document by document. Build must only
// be called once every source document has been added.
type Aggregator struct {
	names       map[string]string
	opinions    Extractor[string]
	statutes    Extractor[Statute]
	regulations Extractor[Regulation]
	raw         map[string]*rawBuckets
	logger      *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the aggregator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithStatuteExtractor replaces the default U.S.C. extractor.
func WithStatuteExtractor(e Extractor[Statute]) Option {
	return func(a *Aggregator) { a.statutes = e }
}

// WithRegulationExtractor replaces the default CFR extractor.
func WithRegulationExtractor(e Extractor[Regulation]) Option {
	return func(a *Aggregator) { a.regulations = e }
}

// NewAggregator creates an aggregator over the full opinion number -> name
// table. It fails if any opinion number cannot be parsed.
func NewAggregator(names map[string]string, opts ...Option) (*Aggregator, error) {
	known, err := NewNumberIndex(names)
	if err != nil {
		return nil, err
	}
	a := &Aggregator{
		names:       names,
		opinions:    NewOpinionExtractor(known),
		statutes:    NewStatuteExtractor(),
		regulations: NewRegulationExtractor(),
		raw:         make(map[string]*rawBuckets),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// bucket returns the raw buckets for no, creating them on first use.
func (a *Aggregator) bucket(no string) *rawBuckets {
	b, ok := a.raw[no]
	if !ok {
		b = &rawBuckets{
			ao:          make(Set[string]),
			citedBy:     make(Set[string]),
			statutes:    make(Set[Statute]),
			regulations: make(Set[Regulation]),
		}
		a.raw[no] = b
	}
	return b
}

// Add scans one final-opinion document belonging to opinion no.
func (a *Aggregator) Add(no, text string) {
	a.logger.Debug("Getting citations", "no", no)

	cited := a.opinions.Extract(text)
	delete(cited, no)

	src := a.bucket(no)
	for c := range cited {
		src.ao.Add(c)
		a.bucket(c).citedBy.Add(no)
	}
	for s := range a.statutes.Extract(text) {
		src.statutes.Add(s)
	}
	for r := range a.regulations.Extract(text) {
		src.regulations.Add(r)
	}
}

// Build converts the accumulated sets into sorted, name-enriched buckets.
func (a *Aggregator) Build() Index {
	idx := make(Index, len(a.raw))
	for no, raw := range a.raw {
		idx[no] = Buckets{
			AO:          a.opinionList(raw.ao),
			CitedBy:     a.opinionList(raw.citedBy),
			Statutes:    sortedStatutes(raw.statutes),
			Regulations: sortedRegulations(raw.regulations),
		}
	}
	return idx
}

func (a *Aggregator) opinionList(set Set[string]) []Opinion {
	out := make([]Opinion, 0, len(set))
	for no := range set {
		out = append(out, Opinion{No: no, Name: a.names[no]})
	}
	slices.SortFunc(out, func(x, y Opinion) int { return cmp.Compare(x.No, y.No) })
	return out
}

func sortedStatutes(set Set[Statute]) []Statute {
	out := make([]Statute, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	slices.SortFunc(out, func(x, y Statute) int {
		return cmp.Or(
			cmp.Compare(x.Title, y.Title),
			cmp.Compare(x.Section, y.Section),
			cmp.Compare(x.Text, y.Text),
		)
	})
	return out
}

func sortedRegulations(set Set[Regulation]) []Regulation {
	out := make([]Regulation, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	slices.SortFunc(out, func(x, y Regulation) int {
		return cmp.Or(
			cmp.Compare(x.Title, y.Title),
			cmp.Compare(x.Part, y.Part),
			cmp.Compare(x.Section, y.Section),
		)
	})
	return out
}
