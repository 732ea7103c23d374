package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidDateRange     = errors.New("check-out must be at least one night after check-in")
	ErrInvalidItems         = errors.New("booking needs at least one room with a positive quantity")
	ErrInvalidQuantity      = errors.New("quantity is out of range")
	ErrStayTooLong          = errors.New("stay exceeds the maximum number of nights")
	ErrInvalidGuestCount    = errors.New("guest count does not fit the selected rooms")
	ErrInvalidStatus        = errors.New("unknown booking status")
	ErrInvalidPaymentStatus = errors.New("unknown payment status")

	ErrUserNotFound    = errors.New("user not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrLodgingNotFound = errors.New("lodging not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNoRoomsFound    = errors.New("lodging has no rooms")

	ErrForbidden         = errors.New("booking belongs to another account")
	ErrMixedBusiness     = errors.New("all rooms of a booking must belong to one business")
	ErrRoomNotAvailable  = errors.New("room not available")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrConcurrentUpdate  = errors.New("booking was modified concurrently")
)

// RoomUnavailableError names the first (room, day) whose capacity was
// exhausted. It matches ErrRoomNotAvailable with errors.Is.
type RoomUnavailableError struct {
	RoomID uuid.UUID
	Date   time.Time
}

func (e *RoomUnavailableError) Error() string {
	return fmt.Sprintf("room %s is not available on %s", e.RoomID, e.Date.Format(time.DateOnly))
}

func (e *RoomUnavailableError) Unwrap() error { return ErrRoomNotAvailable }

// TransitionError reports a status change the state machine does not allow.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
