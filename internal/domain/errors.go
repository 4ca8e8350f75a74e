package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	ErrQuantityExceeded    = errors.New("quantity exceeded")
	ErrNothingToCancel     = errors.New("nothing to cancel")
	ErrAlreadyBlocked      = errors.New("already blocked")
	ErrInvalidState        = errors.New("invalid state")
	ErrNoActiveReservation = errors.New("no active reservation")
	ErrExtensionLimit      = errors.New("extension limit reached")
)

// QuantityExceededError reports how many units were still available when a
// reservation request was rejected.
type QuantityExceededError struct {
	Requested int
	Remaining int
}

func (e *QuantityExceededError) Error() string {
	return fmt.Sprintf("requested %d, only %d available: %s", e.Requested, e.Remaining, ErrQuantityExceeded)
}

func (e *QuantityExceededError) Is(target error) bool { return target == ErrQuantityExceeded }

// Stable error kinds surfaced to API callers.
const (
	KindValidation       = "ValidationError"
	KindNotFound         = "NotFound"
	KindForbidden        = "Forbidden"
	KindUnauthorized     = "Unauthorized"
	KindQuantityExceeded = "QuantityExceeded"
	KindNothingToCancel  = "NothingToCancel"
	KindAlreadyBlocked   = "AlreadyBlocked"
	KindInvalidState     = "InvalidState"
	KindConflict         = "Conflict"
	KindPersistence      = "PersistenceError"
)

// Kind classifies err into one of the stable error kinds. Anything that is not
// a known domain error is treated as a persistence failure.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrBadRequest):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrQuantityExceeded):
		return KindQuantityExceeded
	case errors.Is(err, ErrNothingToCancel), errors.Is(err, ErrNoActiveReservation):
		return KindNothingToCancel
	case errors.Is(err, ErrAlreadyBlocked):
		return KindAlreadyBlocked
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrExtensionLimit):
		return KindInvalidState
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindPersistence
	}
}
