package domain

import "errors"

var (
	// ErrInvalidOrder is returned when an order fails validation
	// (non-positive price/amount, unknown side, unparseable body).
	// Nothing is mutated before this is raised.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrStoreUnavailable is returned when the order record store fails a
	// read or write. The in-flight submission or pairing is aborted without
	// committing partial mutation.
	ErrStoreUnavailable = errors.New("order store unavailable")

	// ErrOrderNotFound is returned when an order id is not present in the
	// store.
	ErrOrderNotFound = errors.New("order not found")
)
