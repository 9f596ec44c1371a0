// Package audit records rejected booking attempts for later review. The
// records are informational and never feed back into booking decisions.
package audit

import (
	"context"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"time"
)

type ConflictHandler struct {
	repo ConflictRepository
	log  *logger.Logger
	now  func() time.Time
}

func NewConflictHandler(repo ConflictRepository, log *logger.Logger) *ConflictHandler {
	return &ConflictHandler{repo: repo, log: log, now: time.Now}
}

// Handle stores one record per conflicting booking of a
// booking.conflict_detected event. Other event types are acknowledged
// without work.
func (h *ConflictHandler) Handle(ctx context.Context, msg kafka.Message) error {
	if eventType := msg.GetEventType(); eventType != "" && eventType != model.EventBookingConflictDetected {
		return nil
	}

	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return err
	}
	if event.Type != model.EventBookingConflictDetected {
		return nil
	}
	if len(event.ConflictingIDs) == 0 {
		h.log.Warn("Conflict event without conflicting bookings", "event_id", msg.GetEventID(), "room_id", event.RoomID)
		return nil
	}

	records := Records(msg.GetEventID(), &event, h.now().UTC())
	if err := h.repo.Save(ctx, records); err != nil {
		return kafka.NewTransientError("failed to store conflict records", err)
	}

	h.log.Info("Conflict recorded",
		"event_id", msg.GetEventID(),
		"correlation_id", msg.GetCorrelationID(),
		"room_id", event.RoomID,
		"requested_by", event.UserID,
		"conflicts", len(records),
	)
	return nil
}

// Records expands a conflict event into one record per conflicting booking.
func Records(eventID string, event *model.BookingEvent, detectedAt time.Time) []*model.ConflictRecord {
	if !event.OccurredAt.IsZero() {
		detectedAt = event.OccurredAt.UTC()
	}

	records := make([]*model.ConflictRecord, 0, len(event.ConflictingIDs))
	for _, id := range event.ConflictingIDs {
		records = append(records, &model.ConflictRecord{
			RoomID:               event.RoomID,
			RequestedBy:          event.UserID,
			RequestedStart:       event.StartTime.UTC(),
			RequestedEnd:         event.EndTime.UTC(),
			ConflictingBookingID: id,
			EventID:              eventID,
			DetectedAt:           detectedAt,
		})
	}
	return records
}
