package citation

import (
	"regexp"
	"strconv"
)

var (
	// opinionCiteRe matches word-bounded advisory opinion numbers, e.g. 2008-12.
	opinionCiteRe = regexp.MustCompile(`\b(\d{4})-(\d+)\b`)

	// statuteCiteRe matches "52 U.S.C. §30101" and the rest of the line.
	statuteCiteRe = regexp.MustCompile(`(\d+)\s+U\.S\.C\.\s+§*\s*(\d+).*\.?`)

	// regulationCiteRe matches "11 CFR 104.1" and "11 CFR §104.1".
	regulationCiteRe = regexp.MustCompile(`(\d+)\s+CFR\s+§*\s*(\d+)\.(\d+)`)
)

// Set is an unordered collection of distinct citations.
type Set[T comparable] map[T]struct{}

// Add inserts v.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has reports whether v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Extractor pulls one kind of citation out of free text. Implementations
// are pure: the same text always yields the same set, and empty text
// yields an empty set.
type Extractor[T comparable] interface {
	Name() string
	Extract(text string) Set[T]
}

// Statute is a citation into the United States Code.
type Statute struct {
	Text    string `json:"text"`
	Title   int    `json:"title"`
	Section int    `json:"section"`
}

// Regulation is a citation into the Code of Federal Regulations.
type Regulation struct {
	Title   int `json:"title"`
	Part    int `json:"part"`
	Section int `json:"section"`
}

type opinionExtractor struct {
	known NumberIndex
}

// NewOpinionExtractor returns an extractor for advisory opinion numbers.
// Matches not present in known are dropped.
func NewOpinionExtractor(known NumberIndex) Extractor[string] {
	return &opinionExtractor{known: known}
}

func (e *opinionExtractor) Name() string { return "ao" }

func (e *opinionExtractor) Extract(text string) Set[string] {
	matches := make(Set[string])
	if text == "" {
		return matches
	}
	for _, m := range opinionCiteRe.FindAllStringSubmatch(text, -1) {
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		serial, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if no, ok := e.known[Number{Year: year, Serial: serial}]; ok {
			matches.Add(no)
		}
	}
	return matches
}

type statuteExtractor struct{}

// NewStatuteExtractor returns an extractor for U.S.C. citations.
func NewStatuteExtractor() Extractor[Statute] { return statuteExtractor{} }

func (statuteExtractor) Name() string { return "statutes" }

func (statuteExtractor) Extract(text string) Set[Statute] {
	matches := make(Set[Statute])
	if text == "" {
		return matches
	}
	for _, m := range statuteCiteRe.FindAllStringSubmatch(text, -1) {
		title, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		section, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		matches.Add(Statute{Text: m[0], Title: title, Section: section})
	}
	return matches
}

type regulationExtractor struct{}

// NewRegulationExtractor returns an extractor for CFR citations.
func NewRegulationExtractor() Extractor[Regulation] { return regulationExtractor{} }

func (regulationExtractor) Name() string { return "regulations" }

func (regulationExtractor) Extract(text string) Set[Regulation] {
	matches := make(Set[Regulation])
	if text == "" {
		return matches
	}
	for _, m := range regulationCiteRe.FindAllStringSubmatch(text, -1) {
		var nums [3]int
		ok := true
		for i := range nums {
			n, err := strconv.Atoi(m[i+1])
			if err != nil {
				ok = false
				break
			}
			nums[i] = n
		}
		if ok {
			matches.Add(Regulation{Title: nums[0], Part: nums[1], Section: nums[2]})
		}
	}
	return matches
}
