package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so callers can branch with errors.Is instead of
// matching driver-specific error types.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in store
//   - ErrExpired: token or session has expired
//   - ErrInvalidState: entity in wrong state for requested operation
//   - ErrUnavailable: service or resource temporarily unavailable (retryable)
//   - ErrPermissionDenied: the caller is not allowed to read the resource
//   - ErrMalformed: identifier or payload failed structural validation
//
// The retry layer classifies ErrUnavailable (and context deadline errors) as
// transient; ErrPermissionDenied and ErrMalformed are terminal and must never
// be retried.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrExpired          = errors.New("expired")
	ErrInvalidState     = errors.New("invalid state")
	ErrUnavailable      = errors.New("unavailable")
	ErrPermissionDenied = errors.New("permission denied")
	ErrMalformed        = errors.New("malformed")
)
