package service

import (
	"context"
	"errors"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/validator"
	mongotx "roombook/pkg/db/mongo"
	apperrors "roombook/pkg/errors"
)

// toAppError maps domain failures onto API errors. The domain error stays
// reachable through errors.Is and errors.As.
func (s *bookingService) toAppError(err error, id string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var conflictErr *bookingserrors.BookingConflictError
	if errors.As(err, &conflictErr) {
		return apperrors.Conflict("Booking conflicts with existing bookings").
			WithDetails(map[string]any{
				"room_id":   conflictErr.RoomID,
				"conflicts": conflictErr.Conflicts,
			}).
			WithCause(err)
	}

	var capacityErr *bookingserrors.CapacityExceededError
	if errors.As(err, &capacityErr) {
		return apperrors.Validation(capacityErr.Error(), map[string]any{
			"capacity":       capacityErr.Capacity,
			"attendee_count": capacityErr.AttendeeCount,
		}).WithCause(err)
	}

	switch {
	case errors.Is(err, bookingserrors.ErrInvalidRange),
		errors.Is(err, bookingserrors.ErrInvalidAttendeeCount),
		errors.Is(err, bookingserrors.ErrRoomInactive):
		return apperrors.Validation(err.Error(), nil).WithCause(err)
	case errors.Is(err, bookingserrors.ErrRoomNotFound):
		return apperrors.NotFoundWithID("Room", id).WithCause(err)
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id).WithCause(err)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format").WithCause(err)
	case errors.Is(err, bookingserrors.ErrForbidden):
		return apperrors.Forbidden("Only the booking owner or an admin can cancel this booking").WithCause(err)
	case errors.Is(err, bookingserrors.ErrAlreadyCancelled):
		return apperrors.Conflict("Booking is already cancelled").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("Booking commit timed out, nothing was saved").WithCause(err)
	}

	s.cfg.Log.Error("Booking storage failure", "id", id, "error", err)
	return storageError("Booking storage failure", err)
}

// storageError reports an unreachable database as 503 and any other
// storage failure as 500.
func storageError(message string, err error) error {
	if mongotx.IsUnavailable(err) {
		return apperrors.Unavailable("Booking storage").WithCause(err)
	}
	return apperrors.Internal(message, err)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Booking validation failed", verrs.Details()).WithCause(err)
	}
	return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()}).WithCause(err)
}
