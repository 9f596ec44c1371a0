package errors

import (
	"errors"
	"fmt"
	"roombook/pkg/model"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrInvalidRange = model.ErrInvalidRange

	ErrInvalidAttendeeCount = errors.New("attendee count must be at least 1")

	ErrRoomNotFound = errors.New("room not found")

	ErrRoomInactive = errors.New("room is not active")

	ErrForbidden = errors.New("requester may not modify this booking")

	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	// ErrConstraintViolation is reported by the store when an insert breaks
	// the per-room uniqueness constraint. Callers translate it into a
	// BookingConflictError.
	ErrConstraintViolation = errors.New("booking store constraint violation")
)

type CapacityExceededError struct {
	Capacity      int
	AttendeeCount int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("attendee count %d exceeds room capacity of %d", e.AttendeeCount, e.Capacity)
}

// BookingConflictError carries every confirmed booking the candidate
// overlaps, ordered by start time.
type BookingConflictError struct {
	RoomID    string
	Conflicts []*model.Booking
}

func (e *BookingConflictError) Error() string {
	return fmt.Sprintf("booking conflicts with %d existing booking(s) in room %s", len(e.Conflicts), e.RoomID)
}

func (e *BookingConflictError) ConflictIDs() []string {
	ids := make([]string, 0, len(e.Conflicts))
	for _, b := range e.Conflicts {
		ids = append(ids, b.ID)
	}
	return ids
}
