// Package content resolves published portfolio content (work case studies,
// lab projects and blog posts) from a pluggable upstream Source.
//
// This file centralizes the package's error values so callers can classify
// failures with errors.Is / errors.As and map them to transport results.
package content

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

var (
	// ErrNotFound indicates no published item exists for the requested key.
	// It is an expected outcome and is never logged as an error.
	ErrNotFound = errors.New("content not found")

	// ErrSourceUnavailable indicates the upstream source could not be read.
	ErrSourceUnavailable = errors.New("content source unavailable")

	// ErrInvalidPageSize is returned by Paginate when pageSize <= 0.
	ErrInvalidPageSize = errors.New("page size must be positive")

	// ErrUnknownKind is returned for kinds outside work, lab and blog.
	ErrUnknownKind = errors.New("unknown content kind")
)

// SourceError describes a failed upstream read. It matches both
// ErrSourceUnavailable and the underlying cause under errors.Is.
type SourceError struct {
	Kind domain.Kind
	Key  string
	Err  error
}

func (e *SourceError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("content source unavailable (%s/%s): %v", e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("content source unavailable (%s): %v", e.Kind, e.Err)
}

func (e *SourceError) Unwrap() []error { return []error{ErrSourceUnavailable, e.Err} }

// unavailable wraps err as a *SourceError unless it already is one.
func unavailable(kind domain.Kind, key string, err error) error {
	var se *SourceError
	if errors.As(err, &se) {
		return err
	}
	return &SourceError{Kind: kind, Key: key, Err: err}
}
