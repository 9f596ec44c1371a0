package service

import (
	"context"
	"errors"
	"roombook/internal/bookings/conflict"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"sync"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	publishTimeout = 5 * time.Second
)

// EventPublisher receives booking notifications after a decision is final.
// Delivery is best effort and never affects the outcome of a commit.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.BookingEvent) error
}

type BookingService interface {
	CheckConflicts(ctx context.Context, roomID string, r model.TimeRange, excludeID string) ([]*model.Booking, error)
	Create(ctx context.Context, identity model.Identity, req *model.CreateBookingRequest) (*model.Booking, error)
	Cancel(ctx context.Context, identity model.Identity, id string) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListForUser(ctx context.Context, identity model.Identity, filter config.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	DailySchedule(ctx context.Context, roomID string, date string, timeZone string) (*model.DailySchedule, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	publisher EventPublisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	publisher EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) CheckConflicts(ctx context.Context, roomID string, r model.TimeRange, excludeID string) ([]*model.Booking, error) {
	if roomID == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}
	tr, err := model.NewTimeRange(r.Start, r.End)
	if err != nil {
		return nil, s.toAppError(err, roomID)
	}

	existing, err := s.repo.FindOverlappingConfirmed(ctx, roomID, tr)
	if err != nil {
		s.cfg.Log.Error("Failed to query overlapping bookings", "room_id", roomID, "error", err)
		return nil, storageError("Failed to check conflicts", err)
	}

	return conflict.Detect(tr, existing, excludeID), nil
}

// Create commits a booking. Room lookup, capacity, conflict detection and
// the insert run in one transaction that also bumps the room's booking
// sequence, so two commits on the same room can never both pass detection.
func (s *bookingService) Create(ctx context.Context, identity model.Identity, req *model.CreateBookingRequest) (*model.Booking, error) {
	if identity.ID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	s.sanitize(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, validationError(err)
	}

	tr, err := model.NewTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, s.toAppError(err, req.RoomID)
	}
	if req.AttendeeCount < 1 {
		return nil, s.toAppError(bookingserrors.ErrInvalidAttendeeCount, req.RoomID)
	}

	commitCtx, cancel := context.WithTimeout(ctx, s.cfg.CommitTimeout)
	defer cancel()

	var created *model.Booking
	err = s.repo.ExecuteTransaction(commitCtx, func(txCtx context.Context) error {
		created = nil

		room, err := s.repo.LockRoomForCommit(txCtx, req.RoomID)
		if err != nil {
			return err
		}
		if !room.IsActive {
			return bookingserrors.ErrRoomInactive
		}
		if err := validator.ValidateCapacity(req.AttendeeCount, room.Capacity); err != nil {
			return err
		}

		existing, err := s.repo.FindOverlappingConfirmed(txCtx, room.ID, tr)
		if err != nil {
			return err
		}
		if conflicts := conflict.Detect(tr, existing, ""); len(conflicts) > 0 {
			return &bookingserrors.BookingConflictError{RoomID: room.ID, Conflicts: conflicts}
		}

		booking := s.newBooking(identity, req, room.ID, tr)
		if err := s.repo.Create(txCtx, booking); err != nil {
			return err
		}
		created = booking
		return nil
	})
	if err != nil {
		if errors.Is(err, bookingserrors.ErrConstraintViolation) {
			s.cfg.Log.Warn("Booking insert rejected by slot constraint", "room_id", req.RoomID, "start_time", tr.Start)
			err = s.conflictFromStore(ctx, req.RoomID, tr)
		}

		var conflictErr *bookingserrors.BookingConflictError
		if errors.As(err, &conflictErr) {
			s.cfg.Log.Info("Booking rejected due to conflict",
				"room_id", req.RoomID,
				"user_id", identity.ID,
				"start_time", tr.Start,
				"end_time", tr.End,
				"conflicts", len(conflictErr.Conflicts),
			)
			s.publish(ctx, &model.BookingEvent{
				Type:           model.EventBookingConflictDetected,
				RoomID:         conflictErr.RoomID,
				UserID:         identity.ID,
				StartTime:      tr.Start,
				EndTime:        tr.End,
				ConflictingIDs: conflictErr.ConflictIDs(),
			})
		}
		return nil, s.toAppError(err, req.RoomID)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", created.ID,
		"room_id", created.RoomID,
		"user_id", created.UserID,
		"start_time", created.StartTime,
		"end_time", created.EndTime,
	)
	s.publish(ctx, eventFor(model.EventBookingCreated, created))
	return created, nil
}

// Cancel moves a confirmed booking to cancelled. Only the owner or an
// admin may cancel, and no conflict checks run.
func (s *bookingService) Cancel(ctx context.Context, identity model.Identity, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if identity.ID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.toAppError(err, id)
	}
	if existing.UserID != identity.ID && !identity.IsAdmin() {
		s.cfg.Log.Warn("Booking cancel forbidden", "id", id, "user_id", identity.ID, "owner_id", existing.UserID)
		return nil, s.toAppError(bookingserrors.ErrForbidden, id)
	}
	if existing.Status == config.Cancelled {
		return nil, s.toAppError(bookingserrors.ErrAlreadyCancelled, id)
	}

	cancelled, err := s.repo.CancelIfConfirmed(ctx, id, identity.ID, s.now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return nil, s.toAppError(err, id)
	}

	s.cfg.Log.Info("Booking cancelled successfully", "id", id, "cancelled_by", identity.ID)
	s.publish(ctx, eventFor(model.EventBookingCancelled, cancelled))
	return cancelled, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.toAppError(err, id)
	}

	return booking, nil
}

func (s *bookingService) ListForUser(ctx context.Context, identity model.Identity, filter config.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	if identity.ID == "" {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	switch filter {
	case "":
		filter = config.FilterUpcoming
	case config.FilterUpcoming, config.FilterPast, config.FilterAll:
	default:
		return nil, 0, apperrors.InvalidInput("filter must be one of: upcoming, past, all")
	}

	now := s.now().UTC()
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByUser(ctx, identity.ID, filter, now)
		if err != nil {
			s.cfg.Log.Error("Failed to count user bookings", "user_id", identity.ID, "filter", filter, "error", err)
			errCount = storageError("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByUser(ctx, identity.ID, filter, now, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list user bookings",
				"user_id", identity.ID,
				"filter", filter,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = storageError("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// DailySchedule lists the confirmed bookings that start on date in the
// given zone. An empty date means today, an empty zone the configured one.
func (s *bookingService) DailySchedule(ctx context.Context, roomID string, date string, timeZone string) (*model.DailySchedule, error) {
	loc := s.cfg.Location()
	if timeZone != "" {
		l, err := time.LoadLocation(timeZone)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid time zone: " + timeZone)
		}
		loc = l
	}

	day := s.now().In(loc)
	if date != "" {
		d, err := time.ParseInLocation(dateLayout, date, loc)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid date format, must be YYYY-MM-DD")
		}
		day = d
	}
	dayRange := model.DayRange(day, loc)

	bookings, err := s.repo.FindConfirmedStartingIn(ctx, roomID, dayRange)
	if err != nil {
		s.cfg.Log.Error("Failed to load daily schedule", "room_id", roomID, "date", date, "error", err)
		return nil, storageError("Failed to load schedule", err)
	}

	return &model.DailySchedule{
		Date:     day.Format(dateLayout),
		TimeZone: loc.String(),
		RoomID:   roomID,
		Bookings: bookings,
	}, nil
}

// --- Helpers ---

func (s *bookingService) sanitize(req *model.CreateBookingRequest) {
	req.Title = sanitizer.SanitizeTitle(req.Title)
	if req.Description != nil {
		d := sanitizer.TrimAndNormalize(*req.Description)
		if d == "" {
			req.Description = nil
		} else {
			req.Description = &d
		}
	}
}

func (s *bookingService) newBooking(identity model.Identity, req *model.CreateBookingRequest, roomID string, tr model.TimeRange) *model.Booking {
	now := s.now().UTC().Truncate(time.Millisecond)
	return &model.Booking{
		RoomID:        roomID,
		UserID:        identity.ID,
		Title:         req.Title,
		Description:   req.Description,
		StartTime:     tr.Start,
		EndTime:       tr.End,
		AttendeeCount: req.AttendeeCount,
		Status:        config.Confirmed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// conflictFromStore rebuilds the conflict list after the storage constraint
// rejected an insert that passed detection.
func (s *bookingService) conflictFromStore(ctx context.Context, roomID string, tr model.TimeRange) error {
	existing, err := s.repo.FindOverlappingConfirmed(ctx, roomID, tr)
	if err != nil {
		s.cfg.Log.Warn("Failed to reload conflicts after constraint violation", "room_id", roomID, "error", err)
		existing = nil
	}
	return &bookingserrors.BookingConflictError{
		RoomID:    roomID,
		Conflicts: conflict.Detect(tr, existing, ""),
	}
}

func (s *bookingService) publish(ctx context.Context, event *model.BookingEvent) {
	if s.publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"type", event.Type,
			"booking_id", event.BookingID,
			"room_id", event.RoomID,
			"error", err,
		)
	}
}

func eventFor(eventType string, b *model.Booking) *model.BookingEvent {
	return &model.BookingEvent{
		Type:      eventType,
		BookingID: b.ID,
		RoomID:    b.RoomID,
		UserID:    b.UserID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    b.Status,
	}
}
