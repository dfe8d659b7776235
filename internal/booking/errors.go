package booking

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the booking engine.  Handlers classify them
// with errors.Is and translate each into a specific HTTP response.
var (
	// ErrValidation marks malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidRange is returned when check-out is not after check-in.
	ErrInvalidRange = fmt.Errorf("%w: check-out must be after check-in", ErrValidation)
	// ErrPastDate is returned when the stay starts before today.
	ErrPastDate = fmt.Errorf("%w: check-in date is in the past", ErrValidation)

	// ErrInvalidState is returned when an event is not allowed from the
	// booking's current status.
	ErrInvalidState = errors.New("invalid booking state")
	// ErrRoomUnavailable is returned when the room is already booked for
	// part of the requested range.
	ErrRoomUnavailable = errors.New("room unavailable for the selected dates")
	// ErrDeadlinePassed is returned when a payment action happens at or
	// after the payment deadline.
	ErrDeadlinePassed = errors.New("payment deadline passed")
	// ErrCapacityExceeded is returned when guests exceed room capacity.
	ErrCapacityExceeded = errors.New("guests exceed room capacity")
	// ErrNotFound is returned for unknown rooms and bookings.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the actor may not perform the action.
	ErrForbidden = errors.New("forbidden")
)

// validationf builds an ErrValidation with a specific message.
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
