package service

import (
	"context"
	"errors"
	"net/http"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	roomID         = "507f1f77bcf86cd799439011"
	inactiveRoomID = "507f1f77bcf86cd799439012"
)

var (
	alice = model.Identity{ID: "alice", Role: config.RoleFaculty}
	bob   = model.Identity{ID: "bob", Role: config.RoleStudent}
	admin = model.Identity{ID: "root", Role: config.RoleAdmin}

	fixedNow = time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func testRooms() []*model.Room {
	return []*model.Room{
		{ID: roomID, Name: "Lecture Hall A", Type: config.Classroom, Capacity: 30, IsActive: true},
		{ID: inactiveRoomID, Name: "Old Lab", Type: config.Lab, Capacity: 10, IsActive: false},
	}
}

func newTestService(t *testing.T) (*bookingService, *memoryRepository, *recordingPublisher) {
	t.Helper()
	repo := newMemoryRepository(testRooms()...)
	pub := &recordingPublisher{}
	cfg := &config.Config{
		Log:             logger.Discard(),
		CommitTimeout:   5 * time.Second,
		DefaultTimeZone: "UTC",
	}
	svc := NewBookingService(repo, validator.NewBookingValidator(cfg.Log), pub, cfg).(*bookingService)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, pub
}

func request(start, end time.Time, attendees int) *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		RoomID:        roomID,
		Title:         "  Weekly   seminar ",
		StartTime:     start,
		EndTime:       end,
		AttendeeCount: attendees,
	}
}

func confirmed(user string, start, end time.Time) *model.Booking {
	return &model.Booking{
		RoomID:        roomID,
		UserID:        user,
		Title:         "existing",
		StartTime:     start,
		EndTime:       end,
		AttendeeCount: 5,
		Status:        config.Confirmed,
	}
}

func assertAppError(t *testing.T, err error, wantStatus int) *apperrors.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", wantStatus)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.StatusCode() != wantStatus {
		t.Fatalf("status = %d, want %d (%v)", appErr.StatusCode(), wantStatus, err)
	}
	return appErr
}

func TestCreate_Success(t *testing.T) {
	svc, repo, pub := newTestService(t)

	booking, err := svc.Create(context.Background(), alice, request(at(9, 0), at(10, 0), 20))
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if booking.ID == "" {
		t.Error("expected booking ID to be assigned")
	}
	if booking.Status != config.Confirmed {
		t.Errorf("Status = %s, want confirmed", booking.Status)
	}
	if booking.UserID != alice.ID {
		t.Errorf("UserID = %s, want %s", booking.UserID, alice.ID)
	}
	if booking.Title != "Weekly seminar" {
		t.Errorf("Title = %q, want sanitized title", booking.Title)
	}
	if stored := repo.get(booking.ID); stored == nil || stored.Status != config.Confirmed {
		t.Error("expected confirmed booking to be stored")
	}
	if repo.rooms[roomID].BookingSeq != 1 {
		t.Errorf("BookingSeq = %d, want 1", repo.rooms[roomID].BookingSeq)
	}
	if got := pub.types(); len(got) != 1 || got[0] != model.EventBookingCreated {
		t.Errorf("published events = %v, want [booking.created]", got)
	}
}

func TestCreate_NormalizesToUTC(t *testing.T) {
	svc, _, _ := newTestService(t)
	loc := time.FixedZone("UTC+2", 2*60*60)

	booking, err := svc.Create(context.Background(), alice, request(at(11, 0).In(loc), at(12, 0).In(loc), 1))
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if booking.StartTime.Location() != time.UTC {
		t.Errorf("StartTime location = %v, want UTC", booking.StartTime.Location())
	}
}

func TestCreate_AdjacentBookingsDoNotConflict(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.seed(confirmed("bob", at(10, 0), at(11, 0)))

	if _, err := svc.Create(context.Background(), alice, request(at(9, 0), at(10, 0), 5)); err != nil {
		t.Fatalf("booking ending at existing start should succeed: %v", err)
	}
	if _, err := svc.Create(context.Background(), alice, request(at(11, 0), at(12, 0), 5)); err != nil {
		t.Fatalf("booking starting at existing end should succeed: %v", err)
	}
	if repo.count() != 3 {
		t.Errorf("stored bookings = %d, want 3", repo.count())
	}
}

func TestCreate_ConflictReturnsAllOverlapping(t *testing.T) {
	svc, repo, pub := newTestService(t)
	late := repo.seed(confirmed("bob", at(11, 0), at(12, 0)))
	early := repo.seed(confirmed("bob", at(9, 30), at(10, 30)))
	repo.seed(&model.Booking{RoomID: roomID, UserID: "bob", StartTime: at(10, 0), EndTime: at(11, 0), Status: config.Cancelled})

	_, err := svc.Create(context.Background(), alice, request(at(9, 0), at(11, 30), 5))
	appErr := assertAppError(t, err, http.StatusConflict)

	var conflictErr *bookingserrors.BookingConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected BookingConflictError in chain, got %v", err)
	}
	if len(conflictErr.Conflicts) != 2 {
		t.Fatalf("conflicts = %d, want 2", len(conflictErr.Conflicts))
	}
	if conflictErr.Conflicts[0].ID != early.ID || conflictErr.Conflicts[1].ID != late.ID {
		t.Errorf("conflicts not ordered by start: %v", conflictErr.ConflictIDs())
	}
	if _, ok := appErr.Details["conflicts"]; !ok {
		t.Error("expected conflicts in error details")
	}
	if repo.count() != 3 {
		t.Errorf("stored bookings = %d, want 3 (nothing inserted)", repo.count())
	}
	if got := pub.types(); len(got) != 1 || got[0] != model.EventBookingConflictDetected {
		t.Errorf("published events = %v, want [booking.conflict_detected]", got)
	}
	if repo.rooms[roomID].BookingSeq != 0 {
		t.Error("rejected commit must not leave the room sequence bumped")
	}
}

func TestCreate_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		req     *model.CreateBookingRequest
		status  int
		wantErr error
	}{
		{
			name:    "end before start",
			req:     request(at(10, 0), at(9, 0), 5),
			status:  http.StatusUnprocessableEntity,
			wantErr: bookingserrors.ErrInvalidRange,
		},
		{
			name:    "zero-length range",
			req:     request(at(10, 0), at(10, 0), 5),
			status:  http.StatusUnprocessableEntity,
			wantErr: bookingserrors.ErrInvalidRange,
		},
		{
			name:    "zero attendees",
			req:     request(at(9, 0), at(10, 0), 0),
			status:  http.StatusUnprocessableEntity,
			wantErr: bookingserrors.ErrInvalidAttendeeCount,
		},
		{
			name: "inactive room",
			req: func() *model.CreateBookingRequest {
				r := request(at(9, 0), at(10, 0), 5)
				r.RoomID = inactiveRoomID
				return r
			}(),
			status:  http.StatusUnprocessableEntity,
			wantErr: bookingserrors.ErrRoomInactive,
		},
		{
			name: "unknown room",
			req: func() *model.CreateBookingRequest {
				r := request(at(9, 0), at(10, 0), 5)
				r.RoomID = "507f1f77bcf86cd7994390ff"
				return r
			}(),
			status:  http.StatusNotFound,
			wantErr: bookingserrors.ErrRoomNotFound,
		},
		{
			name: "missing title",
			req: func() *model.CreateBookingRequest {
				r := request(at(9, 0), at(10, 0), 5)
				r.Title = "   "
				return r
			}(),
			status: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub := newTestService(t)

			_, err := svc.Create(context.Background(), alice, tt.req)
			assertAppError(t, err, tt.status)
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v in chain", err, tt.wantErr)
			}
			if repo.count() != 0 {
				t.Error("failed commit must not store a booking")
			}
			if len(pub.types()) != 0 {
				t.Errorf("unexpected events: %v", pub.types())
			}
		})
	}
}

func TestCreate_Capacity(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Create(context.Background(), alice, request(at(9, 0), at(10, 0), 30)); err != nil {
		t.Fatalf("booking at exact capacity should succeed: %v", err)
	}

	_, err := svc.Create(context.Background(), alice, request(at(13, 0), at(14, 0), 31))
	appErr := assertAppError(t, err, http.StatusUnprocessableEntity)

	var capErr *bookingserrors.CapacityExceededError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityExceededError, got %v", err)
	}
	if capErr.Capacity != 30 {
		t.Errorf("Capacity = %d, want 30", capErr.Capacity)
	}
	if appErr.Details["capacity"] != 30 {
		t.Errorf("details capacity = %v, want 30", appErr.Details["capacity"])
	}
}

func TestCreate_RequiresIdentity(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), model.Identity{}, request(at(9, 0), at(10, 0), 5))
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestCreate_ConcurrentCommitsOnSameSlot(t *testing.T) {
	svc, repo, _ := newTestService(t)

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, conflicts := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every request overlaps the others by at least 30 minutes.
			start := at(9, 0).Add(time.Duration(i%3) * 10 * time.Minute)
			_, err := svc.Create(context.Background(), alice, request(start, start.Add(time.Hour), 5))

			mu.Lock()
			defer mu.Unlock()
			var conflictErr *bookingserrors.BookingConflictError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &conflictErr):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if conflicts != workers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, workers-1)
	}
	if repo.count() != 1 {
		t.Errorf("stored bookings = %d, want 1", repo.count())
	}
}

func TestCreate_ConstraintViolationBecomesConflict(t *testing.T) {
	svc, repo, _ := newTestService(t)
	existing := repo.seed(confirmed("bob", at(9, 0), at(10, 0)))
	repo.staleTxReads = true

	_, err := svc.Create(context.Background(), alice, request(at(9, 0), at(10, 0), 5))
	assertAppError(t, err, http.StatusConflict)

	var conflictErr *bookingserrors.BookingConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected BookingConflictError, got %v", err)
	}
	if len(conflictErr.Conflicts) != 1 || conflictErr.Conflicts[0].ID != existing.ID {
		t.Errorf("conflicts = %v, want [%s]", conflictErr.ConflictIDs(), existing.ID)
	}
	if errors.Is(err, bookingserrors.ErrConstraintViolation) {
		t.Error("constraint violation must not leak to the caller")
	}
}

func TestCreate_StorageFailureLeavesNoTrace(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.createErr = errors.New("connection reset")

	_, err := svc.Create(context.Background(), alice, request(at(9, 0), at(10, 0), 5))
	assertAppError(t, err, http.StatusInternalServerError)

	if repo.count() != 0 {
		t.Error("failed commit must not store a booking")
	}
	if repo.rooms[roomID].BookingSeq != 0 {
		t.Error("failed commit must roll back the room sequence")
	}
}

func TestCreate_UnreachableStorageIsUnavailable(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.createErr = mongo.ErrClientDisconnected

	_, err := svc.Create(context.Background(), alice, request(at(9, 0), at(10, 0), 5))
	appErr := assertAppError(t, err, http.StatusServiceUnavailable)
	if appErr.Code != apperrors.CodeUnavailable {
		t.Errorf("code = %s, want %s", appErr.Code, apperrors.CodeUnavailable)
	}
	if repo.count() != 0 {
		t.Error("failed commit must not store a booking")
	}
}

func TestCreate_PublishFailureDoesNotFailCommit(t *testing.T) {
	svc, repo, pub := newTestService(t)
	pub.err = errors.New("broker down")

	if _, err := svc.Create(context.Background(), alice, request(at(9, 0), at(10, 0), 5)); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if repo.count() != 1 {
		t.Error("expected booking to be stored")
	}
}

func TestCheckConflicts(t *testing.T) {
	svc, repo, _ := newTestService(t)
	first := repo.seed(confirmed("bob", at(9, 0), at(10, 0)))
	repo.seed(confirmed("bob", at(10, 0), at(11, 0)))

	tests := []struct {
		name      string
		r         model.TimeRange
		excludeID string
		want      int
		status    int
	}{
		{name: "free slot", r: model.TimeRange{Start: at(12, 0), End: at(13, 0)}, want: 0},
		{name: "overlaps both", r: model.TimeRange{Start: at(9, 30), End: at(10, 30)}, want: 2},
		{name: "exclude one", r: model.TimeRange{Start: at(9, 30), End: at(10, 30)}, excludeID: first.ID, want: 1},
		{name: "invalid range", r: model.TimeRange{Start: at(10, 0), End: at(9, 0)}, status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CheckConflicts(context.Background(), roomID, tt.r, tt.excludeID)
			if tt.status != 0 {
				assertAppError(t, err, tt.status)
				return
			}
			if err != nil {
				t.Fatalf("CheckConflicts() unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("conflicts = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name     string
		identity model.Identity
		status   string
		wantCode int
		wantErr  error
	}{
		{name: "owner cancels", identity: alice, status: config.Confirmed},
		{name: "admin cancels", identity: admin, status: config.Confirmed},
		{name: "other user forbidden", identity: bob, status: config.Confirmed, wantCode: http.StatusForbidden, wantErr: bookingserrors.ErrForbidden},
		{name: "already cancelled", identity: alice, status: config.Cancelled, wantCode: http.StatusConflict, wantErr: bookingserrors.ErrAlreadyCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub := newTestService(t)
			b := confirmed(alice.ID, at(9, 0), at(10, 0))
			b.Status = tt.status
			repo.seed(b)

			got, err := svc.Cancel(context.Background(), tt.identity, b.ID)
			if tt.wantCode != 0 {
				assertAppError(t, err, tt.wantCode)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v in chain", err, tt.wantErr)
				}
				if repo.get(b.ID).Status != tt.status {
					t.Error("failed cancel must leave status unchanged")
				}
				return
			}

			if err != nil {
				t.Fatalf("Cancel() unexpected error: %v", err)
			}
			if got.Status != config.Cancelled || got.CancelledBy != tt.identity.ID {
				t.Errorf("Cancel() = %+v", got)
			}
			if got := pub.types(); len(got) != 1 || got[0] != model.EventBookingCancelled {
				t.Errorf("published events = %v", got)
			}
		})
	}
}

func TestCancel_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Cancel(context.Background(), alice, "507f1f77bcf86cd799439099")
	assertAppError(t, err, http.StatusNotFound)
	if !errors.Is(err, bookingserrors.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound in chain", err)
	}
}

func TestCancel_DoesNotTouchOtherBookings(t *testing.T) {
	svc, repo, _ := newTestService(t)
	target := repo.seed(confirmed(alice.ID, at(9, 0), at(10, 0)))
	other := repo.seed(confirmed(bob.ID, at(10, 0), at(11, 0)))
	before := *repo.get(other.ID)

	if _, err := svc.Cancel(context.Background(), alice, target.ID); err != nil {
		t.Fatalf("Cancel() unexpected error: %v", err)
	}

	after := repo.get(other.ID)
	if after.Status != before.Status || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("other booking changed: before %+v after %+v", before, after)
	}
	if repo.txCalls != 0 {
		t.Error("cancel must not run the commit transaction")
	}
}

func TestCancel_FreesSlot(t *testing.T) {
	svc, repo, _ := newTestService(t)
	b := repo.seed(confirmed(bob.ID, at(9, 0), at(10, 0)))

	if _, err := svc.Cancel(context.Background(), bob, b.ID); err != nil {
		t.Fatalf("Cancel() unexpected error: %v", err)
	}
	if _, err := svc.Create(context.Background(), alice, request(at(9, 0), at(10, 0), 5)); err != nil {
		t.Fatalf("slot of a cancelled booking should be free: %v", err)
	}
}

func TestCancel_ConcurrentOnlyOneSucceeds(t *testing.T) {
	svc, repo, _ := newTestService(t)
	b := repo.seed(confirmed(alice.ID, at(9, 0), at(10, 0)))

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Cancel(context.Background(), alice, b.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, bookingserrors.ErrAlreadyCancelled) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
}

func TestListForUser(t *testing.T) {
	svc, repo, _ := newTestService(t)
	yesterday := fixedNow.Add(-24 * time.Hour)
	repo.seed(confirmed(alice.ID, yesterday, yesterday.Add(time.Hour)))
	repo.seed(confirmed(alice.ID, at(9, 0), at(10, 0)))
	repo.seed(confirmed(alice.ID, at(11, 0), at(12, 0)))
	repo.seed(confirmed(bob.ID, at(13, 0), at(14, 0)))

	tests := []struct {
		filter config.BookingFilter
		want   int
	}{
		{filter: "", want: 2},
		{filter: config.FilterUpcoming, want: 2},
		{filter: config.FilterPast, want: 1},
		{filter: config.FilterAll, want: 3},
	}

	for _, tt := range tests {
		t.Run("filter="+tt.filter, func(t *testing.T) {
			got, total, err := svc.ListForUser(context.Background(), alice, tt.filter, 10, 0)
			if err != nil {
				t.Fatalf("ListForUser() unexpected error: %v", err)
			}
			if len(got) != tt.want || total != int64(tt.want) {
				t.Errorf("ListForUser() = %d bookings (total %d), want %d", len(got), total, tt.want)
			}
			for i := 1; i < len(got); i++ {
				if got[i].StartTime.After(got[i-1].StartTime) {
					t.Error("expected bookings ordered by start descending")
				}
			}
		})
	}

	_, _, err := svc.ListForUser(context.Background(), alice, "someday", 10, 0)
	assertAppError(t, err, http.StatusBadRequest)
}

func TestDailySchedule(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.seed(confirmed(alice.ID, at(9, 0), at(10, 0)))
	repo.seed(confirmed(bob.ID, at(23, 30), at(23, 59)))
	repo.seed(confirmed(bob.ID, at(9, 0).Add(24*time.Hour), at(10, 0).Add(24*time.Hour)))
	cancelled := confirmed(bob.ID, at(12, 0), at(13, 0))
	cancelled.Status = config.Cancelled
	repo.seed(cancelled)

	schedule, err := svc.DailySchedule(context.Background(), roomID, "2025-03-10", "UTC")
	if err != nil {
		t.Fatalf("DailySchedule() unexpected error: %v", err)
	}
	if len(schedule.Bookings) != 2 {
		t.Fatalf("bookings = %d, want 2", len(schedule.Bookings))
	}
	if !schedule.Bookings[0].StartTime.Before(schedule.Bookings[1].StartTime) {
		t.Error("expected schedule ordered by start")
	}

	// 11 March in Tokyo runs from 15:00 UTC on the 10th to 15:00 UTC on the 11th.
	tokyo, err := svc.DailySchedule(context.Background(), roomID, "2025-03-11", "Asia/Tokyo")
	if err != nil {
		t.Fatalf("DailySchedule() unexpected error: %v", err)
	}
	if len(tokyo.Bookings) != 2 || tokyo.TimeZone != "Asia/Tokyo" {
		t.Errorf("tokyo schedule = %+v", tokyo)
	}

	_, err = svc.DailySchedule(context.Background(), roomID, "10/03/2025", "")
	assertAppError(t, err, http.StatusBadRequest)

	_, err = svc.DailySchedule(context.Background(), roomID, "", "Mars/Olympus")
	assertAppError(t, err, http.StatusBadRequest)
}
