package config

type BookingStatus = string

const (
	Pending   BookingStatus = "pending"
	Confirmed BookingStatus = "confirmed"
	Cancelled BookingStatus = "cancelled"
)

type Role = string

const (
	RoleFaculty Role = "faculty"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type RoomType = string

const (
	Classroom RoomType = "classroom"
	Lab       RoomType = "lab"
)

type BookingFilter = string

const (
	FilterUpcoming BookingFilter = "upcoming"
	FilterPast     BookingFilter = "past"
	FilterAll      BookingFilter = "all"
)
