// Package service provides business logic services for the E-Day ledger.
package service

import "errors"

// Common service errors.
var (
	// ErrInternalError wraps infrastructure failures (storage, lock backend).
	ErrInternalError = errors.New("internal server error")
)
