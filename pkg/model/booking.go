package model

import (
	"time"
)

type Booking struct {
	ID            string     `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID        string     `json:"room_id" bson:"room_id"`
	UserID        string     `json:"user_id" bson:"user_id"`
	Title         string     `json:"title" bson:"title"`
	Description   *string    `json:"description,omitempty" bson:"description,omitempty"`
	StartTime     time.Time  `json:"start_time" bson:"start_time"`
	EndTime       time.Time  `json:"end_time" bson:"end_time"`
	AttendeeCount int        `json:"attendee_count" bson:"attendee_count"`
	Status        string     `json:"status" bson:"status"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" bson:"updated_at"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancelledBy   string     `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
}

func (b *Booking) Range() TimeRange {
	return TimeRange{Start: b.StartTime, End: b.EndTime}
}

type CreateBookingRequest struct {
	RoomID        string    `json:"room_id" validate:"required,mongodb"`
	Title         string    `json:"title" validate:"required,min=1,max=200"`
	Description   *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	EndTime       time.Time `json:"end_time" validate:"required"`
	AttendeeCount int       `json:"attendee_count"`
}

type DailySchedule struct {
	Date     string     `json:"date"`
	TimeZone string     `json:"time_zone"`
	RoomID   string     `json:"room_id,omitempty"`
	Bookings []*Booking `json:"bookings"`
}
