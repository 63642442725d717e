// Package apperrors defines the error taxonomy shared by every service in the
// portal backend. Services return (or wrap) one of the sentinel errors below;
// handlers translate them into HTTP responses with StatusCode.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound covers missing tasks, accounts, edges and form kinds, as well
	// as entities the caller holds no delegation edge to. Out-of-scope lookups
	// are deliberately indistinguishable from genuinely missing records.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied is returned when the caller's role tier is too low
	// for the operation itself (not for scope misses, which are ErrNotFound).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidFields is returned on schema or enum validation failures.
	ErrInvalidFields = errors.New("invalid fields")

	// ErrConflict is returned when an optimistic concurrency check on the edge
	// ledger fails, or a unique constraint is violated.
	ErrConflict = errors.New("conflict")
)

// StatusCode maps a domain error to an HTTP status. Permission misses on a
// specific entity surface as 404 so callers outside a task's delegation chain
// cannot probe for its existence.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidFields):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
