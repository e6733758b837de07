package domain

import (
	"errors"
	"fmt"
)

// Kinds of expected failures. Every *Error unwraps to one of them.
var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyBooked       = errors.New("already booked")
	ErrIneligible          = errors.New("ineligible")
	ErrTransactionConflict = errors.New("transaction conflict")
	ErrInvalidRequest      = errors.New("invalid request")
)

// Error is an expected, caller-recoverable failure. Seat is set when the
// failure concerns a specific seat.
type Error struct {
	Kind   error
	Seat   *SeatID
	Reason string
}

func NewError(kind error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func NewSeatError(kind error, seat SeatID, reason string) *Error {
	return &Error{Kind: kind, Seat: &seat, Reason: reason}
}

func (e *Error) Error() string {
	switch {
	case e.Seat != nil && e.Reason != "":
		return fmt.Sprintf("%v: seat %s: %s", e.Kind, e.Seat, e.Reason)
	case e.Seat != nil:
		return fmt.Sprintf("%v: seat %s", e.Kind, e.Seat)
	case e.Reason != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// KindOf returns the sentinel kind of err, or nil when err is not an
// expected failure.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrUnauthenticated,
		ErrNotFound,
		ErrAlreadyBooked,
		ErrIneligible,
		ErrTransactionConflict,
		ErrInvalidRequest,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Code is the stable machine-readable name of an error kind, used in API
// responses and metric labels. Unexpected errors are "internal".
func Code(err error) string {
	switch KindOf(err) {
	case ErrUnauthenticated:
		return "unauthenticated"
	case ErrNotFound:
		return "not_found"
	case ErrAlreadyBooked:
		return "already_booked"
	case ErrIneligible:
		return "ineligible"
	case ErrTransactionConflict:
		return "transaction_conflict"
	case ErrInvalidRequest:
		return "invalid_request"
	}
	return "internal"
}
