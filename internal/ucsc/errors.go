// Package ucsc fetches flanking genomic sequence from the UCSC Genome Browser REST API.
package ucsc

import (
	"fmt"

	"github.com/jonathan/guideforge/internal/types"
)

// FetchError reports a flank that could not be retrieved after all retries.
type FetchError struct {
	Coordinate  types.Coordinate
	Orientation types.Orientation
	Message     string
	Cause       error
}

func (e *FetchError) Error() string {
	where := e.Coordinate.String()
	if e.Orientation != "" {
		where += " " + string(e.Orientation)
	}
	if e.Cause != nil {
		return fmt.Sprintf("failed to fetch %s: %s: %v", where, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to fetch %s: %s", where, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}
