// Package pam finds protospacer adjacent motif sites in flanking sequence.
package pam

import "fmt"

// PatternError reports a PAM pattern containing a letter outside the IUPAC alphabet.
type PatternError struct {
	Pattern  string
	Position int
	Letter   byte
}

func (e *PatternError) Error() string {
	if e.Pattern == "" {
		return "PAM pattern is empty"
	}
	return fmt.Sprintf("PAM pattern %q: unrecognized IUPAC letter %q at position %d", e.Pattern, e.Letter, e.Position)
}
