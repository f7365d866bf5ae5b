package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the services wraps exactly one of
// these, so transports can map a failure to a status without knowing the
// concrete error.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal error")
)

var (
	ErrFlightNotFound  = kindError(ErrNotFound, "Flight not found")
	ErrBookingNotFound = kindError(ErrNotFound, "Booking not found")
	ErrUserNotFound    = kindError(ErrNotFound, "User not found")

	ErrInsufficientSeats     = kindError(ErrConflict, "Not enough available seats")
	ErrAlreadyCancelled      = kindError(ErrConflict, "Booking is already cancelled")
	ErrDuplicateEmail        = kindError(ErrConflict, "User already exists with this email")
	ErrDuplicateFlightNumber = kindError(ErrConflict, "Flight number already exists")
	ErrReferenceCollision    = kindError(ErrConflict, "Booking reference collision, please retry")
	ErrInvalidTransition     = kindError(ErrConflict, "Booking status transition is not allowed")

	ErrInvalidCredentials = kindError(ErrUnauthenticated, "Invalid credentials")
	ErrInvalidToken       = kindError(ErrUnauthenticated, "Invalid or expired token")

	ErrAccessDenied = kindError(ErrForbidden, "Access denied")
)

type kindErr struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &kindErr{kind: kind, msg: msg}
}

func (e *kindErr) Error() string { return e.msg }

func (e *kindErr) Unwrap() error { return e.kind }

// Validationf builds a validation error with a client-facing message.
func Validationf(format string, args ...any) error {
	return &kindErr{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// Kind reports which error kind err belongs to. Unknown errors are internal.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// Message returns the client-facing message of a domain error, ignoring
// any context added by wrapping.
func Message(err error) string {
	var ke *kindErr
	if errors.As(err, &ke) {
		return ke.msg
	}
	return err.Error()
}
