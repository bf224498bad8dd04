package market

import (
	"errors"
	"net/http"
)

// Failure kinds, grouped so the transport layer can map to a status without
// inspecting message text.
var (
	// Validation: caller-correctable, never retried.
	ErrInvalidRange = errors.New("value out of range")

	// Protocol order: the caller skipped a required step.
	ErrPreStanceRequired  = errors.New("pre-stance required before post-stance")
	ErrPostStanceRequired = errors.New("post-stance required before attribution")
	ErrAlreadyRecorded    = errors.New("stance already recorded for this phase")

	// Concurrency: safe to retry exactly this class.
	ErrConflict = errors.New("concurrent update conflict")
)

// IsRetryable reports whether the caller may safely retry the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// HTTPStatus maps an engine error to an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrPreStanceRequired), errors.Is(err, ErrPostStanceRequired):
		return http.StatusPreconditionFailed
	case errors.Is(err, ErrAlreadyRecorded), errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
