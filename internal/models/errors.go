package models

import (
	"errors"
	"fmt"
)

// Error taxonomy for the sync protocol. Every failure surfaced by the message
// log, directory or session is one of these four; callers branch with
// errors.As / the Is* helpers rather than string matching.

// ValidationError is a local, pre-network rejection. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// TransportError wraps a network or backend failure during a one-shot
// operation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StreamError is the terminal failure of a live subscription. The stream does
// not self-heal; the subscriber must resubscribe.
type StreamError struct {
	RoomID string
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream: room %s: %v", e.RoomID, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// PermissionError is a backend access-rule rejection. Treated like a
// transport failure at this layer; no differentiated UX.
type PermissionError struct {
	Op string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Op)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsStream reports whether err is a StreamError.
func IsStream(err error) bool {
	var se *StreamError
	return errors.As(err, &se)
}

// IsPermission reports whether err is a PermissionError.
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
