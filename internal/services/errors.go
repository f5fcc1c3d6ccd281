package services

import "errors"

// Caller-facing error taxonomy for the order engine. Services return these
// sentinels wrapped with context; handlers branch on errors.Is and map them
// to client errors rather than internal ones. None of them ever leaves
// partially-applied state behind.
var (
	// ErrNotFound indicates a referenced product or order does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock indicates a reservation exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrWrongState indicates an operation attempted against an order status
	// that does not satisfy its guard.
	ErrWrongState = errors.New("operation not permitted in current order state")

	// ErrNotOwner indicates the caller does not own the order.
	ErrNotOwner = errors.New("order belongs to another customer")

	// ErrRefundWindowExpired indicates a refund requested past the
	// eligibility window.
	ErrRefundWindowExpired = errors.New("refund window expired")

	// ErrInvalidRefundItems indicates a refund item list that is empty,
	// references a product not on the order, or exceeds a purchased quantity.
	ErrInvalidRefundItems = errors.New("invalid refund items")
)
