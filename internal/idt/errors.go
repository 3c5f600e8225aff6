// Package idt submits guide candidates to the IDT CRISPR design service and collects scores.
package idt

import (
	"errors"
	"fmt"
)

// Kind classifies a ScoringError.
type Kind string

// Kind values
const (
	// KindAuthExpired means the session cookie was rejected. Nothing can be scored until it is refreshed.
	KindAuthExpired Kind = "auth_expired"
	// KindTransient covers connection errors, 429 and 5xx responses that survived every retry.
	KindTransient Kind = "transient"
	// KindFailed is any other failure: bad payloads, unparseable responses, polling timeouts.
	KindFailed Kind = "failed"
)

// ScoringError reports a failed scoring request.
type ScoringError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Cause      error
}

func (e *ScoringError) Error() string {
	msg := fmt.Sprintf("scoring %s: %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ScoringError) Unwrap() error {
	return e.Cause
}

// IsAuthExpired reports whether err is a ScoringError of kind AuthExpired.
func IsAuthExpired(err error) bool {
	var se *ScoringError
	return errors.As(err, &se) && se.Kind == KindAuthExpired
}

// AuthGuidance is shown to users when the session has expired.
const AuthGuidance = "log in at idtdna.com, copy the session cookie from your browser and update idt.session_cookie in config.yaml (or set IDT_SESSION_COOKIE)"
