// Package services implements the business operations of the sales backend:
// recording sales, reading catalogs and sale history, generating multi-store
// reports, and probing shard health. This file centralizes the validation
// errors raised before a request ever touches a shard; shard-level failures
// carry the taxonomy from the shard package and pass through unchanged.
//
// Translation into HTTP status codes is the handler layer's job.
package services

import "errors"

var (
	// ErrNoItems is returned when a sale request carries an empty item list.
	ErrNoItems = errors.New("sale has no items")

	// ErrInvalidQuantity is returned when a line item's quantity is zero
	// or negative.
	ErrInvalidQuantity = errors.New("item quantity must be positive")

	// ErrInvalidPrice is returned when a line item's unit price is negative.
	ErrInvalidPrice = errors.New("item unit price must not be negative")

	// ErrNoStores is returned when a report request names no stores.
	ErrNoStores = errors.New("no stores requested")

	// ErrTooManyStores is returned when a report request exceeds the
	// configured store cap.
	ErrTooManyStores = errors.New("too many stores requested")

	// ErrInvalidDateRange is returned when a report's from date is after
	// its to date.
	ErrInvalidDateRange = errors.New("date range is inverted")

	// ErrSaleNotFound indicates the requested sale does not exist in the
	// store's region.
	ErrSaleNotFound = errors.New("sale not found")
)
