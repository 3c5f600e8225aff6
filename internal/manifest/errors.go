package manifest

import "fmt"

// Error represents a failure to build, write or read a manifest.
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("manifest error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("manifest error: %s", msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
