// Package shard implements the shard-aware data access core: the region
// pool registry, the single-shard query and transaction executors, and the
// multi-region fan-out. This file centralizes the error taxonomy so that
// every layer above (services, handlers) can classify failures with
// errors.Is instead of string matching.
//
// Propagation policy:
//   - Single-shard errors propagate unchanged to the caller.
//   - Fan-out errors are contained: a per-region failure becomes data in the
//     fan-out result, never an error for the aggregate call.
//   - No error path leaves a transaction with its connection still held.
package shard

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStore indicates a store id outside every configured region
	// range. Unknown stores are rejected explicitly, never routed to a
	// default region.
	ErrUnknownStore = errors.New("unknown store")

	// ErrUnknownRegion indicates a lookup for a region the registry was not
	// configured with at startup.
	ErrUnknownRegion = errors.New("unknown region")

	// ErrRegistryClosed is returned for any acquisition attempted after
	// Shutdown has begun.
	ErrRegistryClosed = errors.New("pool registry closed")

	// ErrShardUnavailable indicates a connectivity-level failure: the shard
	// could not be reached, a connection could not be acquired within the
	// timeout, or the pool is exhausted.
	ErrShardUnavailable = errors.New("shard unavailable")

	// ErrQueryRejected indicates the shard answered but refused the
	// statement: constraint violation, malformed SQL, bad parameters.
	ErrQueryRejected = errors.New("query rejected")

	// ErrInsufficientStock is the business-rule failure inside a sale: a
	// conditional stock decrement matched zero rows, meaning the product is
	// unknown in the region or has too little stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrTransactionAborted wraps the triggering cause when a statement
	// sequence fails mid-transaction and is rolled back.
	ErrTransactionAborted = errors.New("transaction aborted")
)

// Unavailable tags a connectivity failure with its region.
// The result satisfies errors.Is(err, ErrShardUnavailable).
func Unavailable(region Region, cause error) error {
	if cause == nil {
		return fmt.Errorf("region %s: %w", region, ErrShardUnavailable)
	}
	return fmt.Errorf("region %s: %w: %v", region, ErrShardUnavailable, cause)
}

// Rejected tags a statement-level failure with its region and detail.
// The result satisfies errors.Is(err, ErrQueryRejected).
func Rejected(region Region, cause error) error {
	return fmt.Errorf("region %s: %w: %v", region, ErrQueryRejected, cause)
}

// Aborted wraps a mid-transaction failure, preserving the cause chain so
// callers can still match the underlying error (e.g. ErrInsufficientStock).
func Aborted(region Region, cause error) error {
	return fmt.Errorf("region %s: %w: %w", region, ErrTransactionAborted, cause)
}

// InsufficientStock reports which product killed a sale.
// The result satisfies errors.Is(err, ErrInsufficientStock).
func InsufficientStock(productID int64) error {
	return fmt.Errorf("product %d: %w", productID, ErrInsufficientStock)
}
