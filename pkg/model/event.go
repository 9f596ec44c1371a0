package model

import "time"

const (
	EventBookingCreated          = "booking.created"
	EventBookingCancelled        = "booking.cancelled"
	EventBookingConflictDetected = "booking.conflict_detected"
)

// BookingEvent is published on every booking change so that schedule views
// can refresh. Consumers must not treat it as a source of truth.
type BookingEvent struct {
	Type           string    `json:"type"`
	BookingID      string    `json:"booking_id,omitempty"`
	RoomID         string    `json:"room_id"`
	UserID         string    `json:"user_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Status         string    `json:"status,omitempty"`
	ConflictingIDs []string  `json:"conflicting_ids,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
