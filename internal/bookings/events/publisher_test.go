package events

import (
	"context"
	"errors"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"testing"
	"time"
)

type mockProducer struct {
	messages []kafka.Message
	err      error
}

func (m *mockProducer) Publish(ctx context.Context, msg kafka.Message) error {
	m.messages = append(m.messages, msg)
	return m.err
}

func testEvent() *model.BookingEvent {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return &model.BookingEvent{
		Type:       model.EventBookingCreated,
		BookingID:  "b-1",
		RoomID:     "room-1",
		UserID:     "alice",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		Status:     "confirmed",
		OccurredAt: start,
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &mockProducer{}
	pub := NewKafkaPublisher(producer)

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish() unexpected error: %v", err)
	}
	if len(producer.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(producer.messages))
	}

	msg := producer.messages[0]
	if msg.Key != "room-1" {
		t.Errorf("Key = %s, want room id", msg.Key)
	}
	if msg.GetEventType() != model.EventBookingCreated {
		t.Errorf("event type = %s", msg.GetEventType())
	}
	if msg.Headers[kafka.HeaderSource] != Source {
		t.Errorf("source = %s", msg.Headers[kafka.HeaderSource])
	}

	var decoded model.BookingEvent
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("DecodeValue() error: %v", err)
	}
	if decoded.BookingID != "b-1" || !decoded.StartTime.Equal(testEvent().StartTime) {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestKafkaPublisher_PropagatesError(t *testing.T) {
	want := errors.New("broker down")
	pub := NewKafkaPublisher(&mockProducer{err: want})

	if err := pub.Publish(context.Background(), testEvent()); !errors.Is(err, want) {
		t.Errorf("Publish() error = %v, want %v", err, want)
	}
}

func TestLogPublisher(t *testing.T) {
	if err := NewLogPublisher(logger.Discard()).Publish(context.Background(), testEvent()); err != nil {
		t.Errorf("LogPublisher.Publish() = %v", err)
	}
}
