// Package targets parses chr:start-end:strand coordinate tokens and target lists.
package targets

import "fmt"

// ParseError reports a coordinate token that could not be parsed.
// Line is 1-based when the token came from a file, 0 otherwise.
type ParseError struct {
	Token   string
	Line    int
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	prefix := "invalid coordinate"
	if e.Line > 0 {
		prefix = fmt.Sprintf("line %d: invalid coordinate", e.Line)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %q: %s: %v", prefix, e.Token, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %q: %s", prefix, e.Token, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
