package domain

import "errors"

// Domain errors represent business logic failures.
// Across the driver boundary they are reported as Result types; inside
// adapters and services they travel as wrapped Go errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown entity or driver type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDriverUnavailable indicates the backing store is not ready.
	ErrDriverUnavailable = errors.New("driver unavailable")

	// ErrRouteNotConfigured indicates no driver is registered for an
	// entity type and capability.
	ErrRouteNotConfigured = errors.New("route not configured")

	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidPage indicates a corrupt or out-of-sequence buffer page.
	ErrInvalidPage = errors.New("invalid buffer page")
)
