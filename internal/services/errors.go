package services

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound covers unknown accounts, records, tokens, and pending requests.
	ErrNotFound = errors.New("resource not found")

	// ErrPermissionDenied is returned by the access guard and by connection
	// resolution attempted by anyone other than the addressed patient.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConflict is returned when requesting a connection for a pair that is
	// already pending or approved.
	ErrConflict = errors.New("connection already exists")

	// ErrUpstreamUnavailable indicates a dependent service (summarization API,
	// object storage) failed. Non-essential callers degrade instead of failing.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

// ValidationError carries one message per rejected field.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}
