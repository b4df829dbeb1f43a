// Package citation extracts advisory opinion, statutory and regulatory
// citations from opinion text and builds the citation graph between opinions.
package citation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedNumber is returned when an opinion number is not YEAR-SERIAL.
var ErrMalformedNumber = errors.New("malformed advisory opinion number")

// Number is the parsed form of an advisory opinion number such as "2008-12".
type Number struct {
	Year   int
	Serial int
}

// ParseNumber splits an opinion number on "-" into year and serial.
func ParseNumber(no string) (Number, error) {
	year, serial, ok := strings.Cut(no, "-")
	if !ok {
		return Number{}, fmt.Errorf("%w: %q", ErrMalformedNumber, no)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Number{}, fmt.Errorf("%w: %q", ErrMalformedNumber, no)
	}
	s, err := strconv.Atoi(serial)
	if err != nil {
		return Number{}, fmt.Errorf("%w: %q", ErrMalformedNumber, no)
	}
	return Number{Year: y, Serial: s}, nil
}

// SortKeys returns the descending sort keys stored with each opinion.
// Ordering by (sort1, sort2) ascending yields newest year first, then
// highest serial first.
func (n Number) SortKeys() (sort1, sort2 int) {
	return -n.Year, -n.Serial
}

// NumberIndex maps parsed opinion numbers back to their canonical string.
type NumberIndex map[Number]string

// NewNumberIndex parses every opinion number in names. A single malformed
// number fails the whole index.
func NewNumberIndex(names map[string]string) (NumberIndex, error) {
	idx := make(NumberIndex, len(names))
	for no := range names {
		n, err := ParseNumber(no)
		if err != nil {
			return nil, err
		}
		idx[n] = no
	}
	return idx, nil
}
