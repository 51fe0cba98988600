package domain

import "errors"

// Common errors shared across the cart packages
var (
	// ErrRemoteUnavailable wraps any network or service failure talking to
	// the remote cart service. The snapshot is left unchanged.
	ErrRemoteUnavailable = errors.New("remote cart service unavailable")

	// ErrCartNotFound means the authenticated user has no remote cart yet.
	// Recovered by creating one, never surfaced to the UI.
	ErrCartNotFound = errors.New("cart not found")

	// ErrLineNotFound means the referenced cart line does not exist.
	ErrLineNotFound = errors.New("cart line not found")

	// ErrStockExceeded means the requested quantity cannot be satisfied by
	// the available stock.
	ErrStockExceeded = errors.New("requested quantity exceeds available stock")

	// ErrMergeIncomplete means a guest-cart merge aborted partway. The guest
	// cart is kept so no data is lost; a retried login resubmits it.
	ErrMergeIncomplete = errors.New("guest cart merge incomplete")
)
