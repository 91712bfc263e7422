package store

import (
	"fmt"
	"time"
)

// ValidationError reports a provider record that failed schema or policy
// checks. Field names the first offending field; validation is fail-fast.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation against an alias that does not exist.
type NotFoundError struct {
	Alias string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("provider not found: %s", e.Alias)
}

// ConflictError reports a duplicate alias, a store at capacity, or a lock
// held by another operation. HeldBy and Since are set only for lock
// conflicts so the caller can report who holds the lock and for how long.
type ConflictError struct {
	Reason string
	HeldBy string
	Since  time.Time
}

func (e *ConflictError) Error() string {
	if e.HeldBy != "" {
		return fmt.Sprintf("%s (held by %q since %s)", e.Reason, e.HeldBy, e.Since.Format(time.RFC3339))
	}
	return e.Reason
}

// IntegrityError reports a snapshot whose bytes on disk no longer match
// its recorded manifest.
type IntegrityError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity failure at %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// IOError wraps a filesystem failure with the path it occurred on.
// A missing file is never an IOError; callers that can default on
// not-exist do so before this type is constructed.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io failure at %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
