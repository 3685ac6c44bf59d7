package search

import (
	"errors"
	"fmt"
)

var (
	// ErrSearchNotReady is returned by Search and Suggestions before a
	// successful Initialize. It signals a caller bug, never "no results".
	ErrSearchNotReady = errors.New("search engine not ready")

	// ErrIndexFetch marks a failed artifact fetch or parse. The engine is
	// left Failed and Initialize may be called again.
	ErrIndexFetch = errors.New("search index fetch failed")

	// ErrArtifactNotFound means the artifact has not been built yet.
	ErrArtifactNotFound = errors.New("search index artifact not found")
)

// FetchError wraps the cause of a failed Initialize. It matches ErrIndexFetch
// and the cause under errors.Is.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch search index from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrIndexFetch, e.Err} }
