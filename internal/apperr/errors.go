// Package apperr defines the error kinds surfaced to API callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrLimitExceeded    = errors.New("limit exceeded")
	ErrTooFewMembers    = errors.New("group must have at least 3 members")
	ErrUploadFailure    = errors.New("upload failure")
	ErrUnauthenticated  = errors.New("unauthenticated")

	// ErrNotGroupChat is the InvalidOperation raised by group-only operations.
	ErrNotGroupChat = fmt.Errorf("%w: this is not a group chat", ErrInvalidOperation)
)

// HTTPStatus maps an error to the status code reported to the caller.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidOperation),
		errors.Is(err, ErrLimitExceeded),
		errors.Is(err, ErrTooFewMembers):
		return http.StatusBadRequest
	case errors.Is(err, ErrUploadFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether err belongs to the taxonomy and may be shown as-is.
func Public(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
