// Package handlers implements the HTTP endpoints of the portfolio API:
// content listings and detail, server-side search, the search artifact, the
// revalidation webhook and health.
//
// Every failure is written as an ErrorResponse envelope with a stable code
// (see errors.go). Handlers stay thin: parse and bound input, call the
// content resolver or search engine, translate errors into statuses.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/content"
	"github.com/tbourn/go-portfolio-backend/internal/http/middleware"
	"github.com/tbourn/go-portfolio-backend/internal/search"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"content not found"`
}

// fail aborts the request with the error envelope. Server errors are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failCause(c, status, code, msg, nil)
}

// failCause is fail with an underlying error. cause is logged for server
// errors and never sent to the client.
func failCause(c *gin.Context, status int, code, msg string, cause error) {
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error()
		if cause != nil {
			ev = ev.Err(cause)
		}
		ev.Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr classifies err from the content or search layers.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "content not found")
	case errors.Is(err, content.ErrUnknownKind):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown content kind")
	case errors.Is(err, content.ErrInvalidPageSize):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "page_size must be positive")
	case errors.Is(err, content.ErrSourceUnavailable):
		failCause(c, http.StatusServiceUnavailable, ErrCodeSourceUnavailable, "content source unavailable", err)
	case errors.Is(err, search.ErrSearchNotReady):
		c.Header("Retry-After", "5")
		fail(c, http.StatusServiceUnavailable, ErrCodeSearchNotReady, "search index is not loaded yet")
	default:
		failCause(c, http.StatusInternalServerError, ErrCodeInternal, "internal error", err)
	}
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
