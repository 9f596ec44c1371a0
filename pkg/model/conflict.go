package model

import "time"

// ConflictRecord is an audit entry for a rejected booking attempt. It is
// never consulted when deciding whether a booking may be committed.
type ConflictRecord struct {
	ID                   string    `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID               string    `json:"room_id" bson:"room_id"`
	RequestedBy          string    `json:"requested_by" bson:"requested_by"`
	RequestedStart       time.Time `json:"requested_start" bson:"requested_start"`
	RequestedEnd         time.Time `json:"requested_end" bson:"requested_end"`
	ConflictingBookingID string    `json:"conflicting_booking_id" bson:"conflicting_booking_id"`
	EventID              string    `json:"event_id" bson:"event_id"`
	DetectedAt           time.Time `json:"detected_at" bson:"detected_at"`
	Resolved             bool      `json:"resolved" bson:"resolved"`
	ResolutionNotes      *string   `json:"resolution_notes,omitempty" bson:"resolution_notes,omitempty"`
}
