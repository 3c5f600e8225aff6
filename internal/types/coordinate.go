// Package types provides type definitions for structured data used throughout the guideforge pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// Strand is the genomic strand of a coordinate or candidate.
type Strand string

// Strand values
const (
	StrandPlus  Strand = "+"
	StrandMinus Strand = "-"
)

// Valid reports whether s is one of the two recognized strands.
func (s Strand) Valid() bool {
	return s == StrandPlus || s == StrandMinus
}

// Coordinate is a parsed chr:start-end:strand target. Start is inclusive and
// End exclusive, matching the UCSC getData API.
type Coordinate struct {
	Chromosome string `json:"chromosome"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Strand     Strand `json:"strand"`
}

// String renders the coordinate in its input form.
func (c Coordinate) String() string {
	return fmt.Sprintf("%s:%d-%d:%s", c.Chromosome, c.Start, c.End, c.Strand)
}

// Label returns an identifier safe for the scoring API, which rejects ':' and '+'.
// Hyphens between start and end are kept.
func (c Coordinate) Label() string {
	r := strings.NewReplacer(":", "_", "+", "plus")
	return r.Replace(c.String())
}

// Len returns the number of bases covered by the coordinate.
func (c Coordinate) Len() int {
	return c.End - c.Start
}
