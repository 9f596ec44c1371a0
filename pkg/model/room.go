package model

import "time"

type Room struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Type        string    `json:"type" bson:"type" validate:"required,oneof=classroom lab"`
	Capacity    int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=1000"`
	Building    string    `json:"building" bson:"building" validate:"required,min=1,max=100"`
	Floor       string    `json:"floor" bson:"floor" validate:"required,max=20"`
	Equipment   []string  `json:"equipment" bson:"equipment" validate:"omitempty,max=50,dive,required,max=100"`
	Description *string   `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	IsActive    bool      `json:"is_active" bson:"is_active"`
	BookingSeq  int64     `json:"-" bson:"booking_seq"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

type RoomUpdate struct {
	Name        string    `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Type        string    `json:"type,omitempty" validate:"omitempty,oneof=classroom lab"`
	Capacity    *int      `json:"capacity,omitempty" validate:"omitempty,min=1,max=1000"`
	Building    string    `json:"building,omitempty" validate:"omitempty,min=1,max=100"`
	Floor       *string   `json:"floor,omitempty" validate:"omitempty,max=20"`
	Equipment   *[]string `json:"equipment,omitempty" validate:"omitempty,max=50,dive,required,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type RoomFilter struct {
	Type            string
	Building        string
	Query           string
	IncludeInactive bool
}
