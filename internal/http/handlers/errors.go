package handlers

// Error codes carried by ErrorResponse. Clients branch on these, so they
// never change once published.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeSourceUnavailable = "source_unavailable"
	ErrCodeSearchNotReady    = "search_not_ready"
	ErrCodeIndexNotBuilt     = "index_not_built"
	ErrCodeRebuildFailed     = "rebuild_failed"
)
