// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// These symbolic constants give clients a stable, machine-readable taxonomy
// supplementing human-readable messages. Codes are lowercase snake_case;
// generic codes mirror common HTTP semantics, domain-specific codes carry
// the shard/sale failure modes that a status alone cannot convey.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeUnknownStore      = "unknown_store"
	ErrCodeInsufficientStock = "insufficient_stock"
	ErrCodeShardUnavailable  = "shard_unavailable"
	ErrCodeQueryRejected     = "query_rejected"
)
