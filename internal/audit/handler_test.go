package audit

import (
	"context"
	"errors"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"testing"
	"time"
)

type recordingRepository struct {
	saved [][]*model.ConflictRecord
	err   error
}

func (r *recordingRepository) Save(_ context.Context, records []*model.ConflictRecord) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, records)
	return nil
}

func buildMessage(t *testing.T, event *model.BookingEvent) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey(event.RoomID).
		WithValue(event).
		WithEventType(event.Type).
		WithEventID("evt-1").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return msg
}

func conflictEvent(ids ...string) *model.BookingEvent {
	return &model.BookingEvent{
		Type:           model.EventBookingConflictDetected,
		RoomID:         "room-1",
		UserID:         "user-9",
		StartTime:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC),
		ConflictingIDs: ids,
		OccurredAt:     time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandle_StoresOneRecordPerConflict(t *testing.T) {
	repo := &recordingRepository{}
	h := NewConflictHandler(repo, logger.Discard())

	if err := h.Handle(context.Background(), buildMessage(t, conflictEvent("b1", "b2"))); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(repo.saved) != 1 || len(repo.saved[0]) != 2 {
		t.Fatalf("saved = %v, want one batch of 2", repo.saved)
	}
	for i, want := range []string{"b1", "b2"} {
		rec := repo.saved[0][i]
		if rec.ConflictingBookingID != want || rec.RoomID != "room-1" || rec.RequestedBy != "user-9" {
			t.Errorf("record %d = %+v", i, rec)
		}
		if rec.EventID != "evt-1" || rec.Resolved {
			t.Errorf("record %d event/resolved = %q/%v", i, rec.EventID, rec.Resolved)
		}
		if !rec.DetectedAt.Equal(time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("record %d detected at %v, want event time", i, rec.DetectedAt)
		}
	}
}

func TestHandle_IgnoresOtherEvents(t *testing.T) {
	repo := &recordingRepository{}
	h := NewConflictHandler(repo, logger.Discard())

	for _, eventType := range []string{model.EventBookingCreated, model.EventBookingCancelled} {
		event := conflictEvent("b1")
		event.Type = eventType
		if err := h.Handle(context.Background(), buildMessage(t, event)); err != nil {
			t.Errorf("%s: unexpected error %v", eventType, err)
		}
	}
	if err := h.Handle(context.Background(), buildMessage(t, conflictEvent())); err != nil {
		t.Errorf("empty conflict list: unexpected error %v", err)
	}
	if len(repo.saved) != 0 {
		t.Errorf("saved %d batches, want 0", len(repo.saved))
	}
}

func TestHandle_Errors(t *testing.T) {
	repo := &recordingRepository{err: errors.New("no primary")}
	h := NewConflictHandler(repo, logger.Discard())

	err := h.Handle(context.Background(), buildMessage(t, conflictEvent("b1")))
	var kerr *kafka.KafkaError
	if !errors.As(err, &kerr) || !(kerr.Type == kafka.ErrorTypeTransient) {
		t.Errorf("storage failure should be transient, got %v", err)
	}

	bad := kafka.Message{
		Value:   []byte("{not json"),
		Headers: map[string]string{kafka.HeaderEventType: model.EventBookingConflictDetected},
	}
	err = h.Handle(context.Background(), bad)
	if !errors.As(err, &kerr) || !(kerr.Type == kafka.ErrorTypePermanent) {
		t.Errorf("undecodable payload should be permanent, got %v", err)
	}
}
