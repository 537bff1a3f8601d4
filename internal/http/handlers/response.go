// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints: structured error envelopes, consistent JSON serialization, and
// the mapping from service/shard errors to HTTP statuses and stable codes.
//
// Example error response:
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "insufficient_stock",
//	  "message": "product 10: insufficient stock"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmarkou/go-sales-backend/internal/http/middleware"
	"github.com/dmarkou/go-sales-backend/internal/services"
	"github.com/dmarkou/go-sales-backend/internal/shard"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: correlation ID echoed from X-Request-ID, used to match
//     server logs with client-side errors.
//   - Code: a stable, machine-readable string (see errors.go constants).
//   - Message: a human-readable description, safe for display.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(), for router-level handlers
// (404/405) that live outside this package's endpoints.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// failFromError translates a service or shard error into the matching HTTP
// status and stable code. Order matters: the most specific sentinels are
// checked before the broad transaction wrapper they may travel inside.
func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoItems),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrNoStores),
		errors.Is(err, services.ErrTooManyStores),
		errors.Is(err, services.ErrInvalidDateRange):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, shard.ErrUnknownStore):
		fail(c, http.StatusNotFound, ErrCodeUnknownStore, err.Error())
	case errors.Is(err, services.ErrSaleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, shard.ErrInsufficientStock):
		fail(c, http.StatusConflict, ErrCodeInsufficientStock, err.Error())
	case errors.Is(err, shard.ErrShardUnavailable),
		errors.Is(err, shard.ErrRegistryClosed):
		fail(c, http.StatusServiceUnavailable, ErrCodeShardUnavailable, err.Error())
	case errors.Is(err, shard.ErrQueryRejected):
		fail(c, http.StatusBadRequest, ErrCodeQueryRejected, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
