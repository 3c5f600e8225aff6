package config

import "fmt"

// Error reports a configuration or policy problem. It is always fatal and
// surfaces before any target is processed.
type Error struct {
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := "config error"
	if e.Field != "" {
		msg += fmt.Sprintf(": '%s'", e.Field)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}
