package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrStale        = errors.New("stale response discarded")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already exists")
)

// ValidationError reports a malformed request. It is always returned before
// any I/O takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// UpstreamError wraps a failure of a collaborator: the deal store or the
// price feed.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream wraps err as an UpstreamError unless it already is one, or is a
// validation or lookup error that callers need to see unchanged.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var upstream *UpstreamError
	var validation *ValidationError
	if errors.As(err, &upstream) || errors.As(err, &validation) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsUpstream reports whether err carries an UpstreamError.
func IsUpstream(err error) bool {
	var u *UpstreamError
	return errors.As(err, &u)
}
