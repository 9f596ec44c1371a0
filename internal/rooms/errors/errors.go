package errors

import "errors"

var (
	ErrNotFound = errors.New("room not found")

	ErrInvalidID = errors.New("invalid room ID format")

	ErrDuplicateName = errors.New("a room with this name already exists in the building")

	ErrForbidden = errors.New("only admins may manage rooms")

	ErrEmptyUpdate = errors.New("update contains no fields")
)
