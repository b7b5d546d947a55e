package domain

import (
	"errors"
	"strings"
)

// Error taxonomy for the data API. Local recoverable conditions are absorbed
// where forward progress is still possible; everything else carries one of
// these up to the HTTP boundary.
var (
	// ErrNotFound covers both "id absent" and "not owned by caller" so that
	// probing another tenant's ids leaks nothing.
	ErrNotFound = errors.New("not found")

	// ErrConflict reports a slug collision on an already-persisted record.
	ErrConflict = errors.New("conflict")

	// ErrConfiguration means the store is unreachable or the process was
	// composed without database access. Not retried.
	ErrConfiguration = errors.New("database operations unavailable")

	// ErrTransient marks a duplicate-key race that exhausted its single
	// retry; the whole operation should be retried by the caller.
	ErrTransient = errors.New("transient store conflict, retry the operation")
)

// FieldError is a single schema violation, addressable by field path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// ValidationError aggregates schema violations. It is never partially
// applied: a record failing validation is not persisted at all.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.String())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages renders the violations as "<field path>: <message>" strings.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.String())
	}
	return msgs
}
