package service

import (
	"context"
	"errors"
	roomserrors "roombook/internal/rooms/errors"
	"roombook/internal/rooms/repository"
	"roombook/internal/rooms/validator"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"time"
)

type RoomService interface {
	List(ctx context.Context, filter model.RoomFilter) ([]*model.Room, error)
	GetByID(ctx context.Context, id string) (*model.Room, error)
	Create(ctx context.Context, identity model.Identity, room *model.Room) (*model.Room, error)
	Update(ctx context.Context, identity model.Identity, id string, update *model.RoomUpdate) (*model.Room, error)
	SetActive(ctx context.Context, identity model.Identity, id string, active bool) (*model.Room, error)
}

type roomService struct {
	repo      repository.RoomRepository
	validator *validator.RoomValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewRoomService(repo repository.RoomRepository, validator *validator.RoomValidator, cfg *config.Config) RoomService {
	return &roomService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *roomService) List(ctx context.Context, filter model.RoomFilter) ([]*model.Room, error) {
	switch filter.Type {
	case "", config.Classroom, config.Lab:
	default:
		return nil, apperrors.InvalidInput("type must be one of: classroom, lab")
	}
	filter.Building = sanitizer.NormalizeBuilding(filter.Building)
	filter.Query = sanitizer.SanitizeSearchQuery(filter.Query)

	rooms, err := s.repo.List(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list rooms", "filter", filter, "error", err)
		return nil, storageError("Failed to retrieve rooms", err)
	}
	return rooms, nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.toAppError(err, id)
	}
	return room, nil
}

// Create registers a room. New rooms are active and start with a zero
// booking sequence.
func (s *roomService) Create(ctx context.Context, identity model.Identity, room *model.Room) (*model.Room, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}

	s.sanitize(room)
	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "error", err)
		return nil, validationError(err)
	}

	now := s.now().UTC()
	room.ID = ""
	room.IsActive = true
	room.BookingSeq = 0
	room.CreatedAt = now
	room.UpdatedAt = now

	if err := s.repo.Create(ctx, room); err != nil {
		return nil, s.toAppError(err, room.Name)
	}

	s.cfg.Log.Info("Room created", "room_id", room.ID, "name", room.Name, "building", room.Building, "by", identity.ID)
	return room, nil
}

func (s *roomService) Update(ctx context.Context, identity model.Identity, id string, update *model.RoomUpdate) (*model.Room, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}

	s.sanitizeUpdate(update)
	if err := s.validator.ValidateUpdate(update); err != nil {
		return nil, validationError(err)
	}

	room, err := s.repo.Update(ctx, id, update, s.now().UTC())
	if err != nil {
		return nil, s.toAppError(err, id)
	}

	s.cfg.Log.Info("Room updated", "room_id", id, "by", identity.ID)
	return room, nil
}

// SetActive toggles whether a room accepts new bookings. Existing bookings
// are left as they are.
func (s *roomService) SetActive(ctx context.Context, identity model.Identity, id string, active bool) (*model.Room, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}

	room, err := s.repo.SetActive(ctx, id, active, s.now().UTC())
	if err != nil {
		return nil, s.toAppError(err, id)
	}

	s.cfg.Log.Info("Room availability changed", "room_id", id, "is_active", active, "by", identity.ID)
	return room, nil
}

func (s *roomService) sanitize(room *model.Room) {
	room.Name = sanitizer.NormalizeRoomName(room.Name)
	room.Building = sanitizer.NormalizeBuilding(room.Building)
	room.Floor = sanitizer.TrimAndNormalize(room.Floor)
	room.Equipment = sanitizer.NormalizeEquipment(room.Equipment)
	if room.Description != nil {
		d := sanitizer.TrimAndNormalize(*room.Description)
		room.Description = &d
	}
}

func (s *roomService) sanitizeUpdate(update *model.RoomUpdate) {
	update.Name = sanitizer.NormalizeRoomName(update.Name)
	update.Building = sanitizer.NormalizeBuilding(update.Building)
	if update.Floor != nil {
		f := sanitizer.TrimAndNormalize(*update.Floor)
		update.Floor = &f
	}
	if update.Equipment != nil {
		e := sanitizer.NormalizeEquipment(*update.Equipment)
		update.Equipment = &e
	}
	if update.Description != nil {
		d := sanitizer.TrimAndNormalize(*update.Description)
		update.Description = &d
	}
}

func requireAdmin(identity model.Identity) error {
	if identity.ID == "" {
		return apperrors.Unauthorized("Authentication required")
	}
	if !identity.IsAdmin() {
		return apperrors.Forbidden("Only admins can manage rooms").WithCause(roomserrors.ErrForbidden)
	}
	return nil
}

func (s *roomService) toAppError(err error, id string) error {
	switch {
	case errors.Is(err, roomserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Room", id).WithCause(err)
	case errors.Is(err, roomserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid room ID format").WithCause(err)
	case errors.Is(err, roomserrors.ErrDuplicateName):
		return apperrors.Conflict(err.Error()).WithCause(err)
	case errors.Is(err, roomserrors.ErrEmptyUpdate):
		return apperrors.Validation(err.Error(), nil).WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("Room storage timed out").WithCause(err)
	}

	s.cfg.Log.Error("Room storage failure", "id", id, "error", err)
	return storageError("Room storage failure", err)
}

func storageError(message string, err error) error {
	if mongotx.IsUnavailable(err) {
		return apperrors.Unavailable("Room storage").WithCause(err)
	}
	return apperrors.Internal(message, err)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Room validation failed", verrs.Details()).WithCause(err)
	}
	return apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()}).WithCause(err)
}
