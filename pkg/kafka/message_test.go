package kafka

import (
	"errors"
	"testing"
	"time"
)

func TestMessageBuilder(t *testing.T) {
	ts := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	msg, err := NewMessage().
		WithKey("room-1").
		WithValue(map[string]string{"type": "booking.created"}).
		WithEventType("booking.created").
		WithSource("bookings").
		WithTimestamp(ts).
		Build()
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	if msg.Key != "room-1" {
		t.Errorf("Key = %s", msg.Key)
	}
	if msg.GetEventID() == "" {
		t.Error("expected generated event id")
	}
	if msg.GetEventType() != "booking.created" {
		t.Errorf("event type = %s", msg.GetEventType())
	}
	if msg.Headers[HeaderTimestamp] != ts.Format(time.RFC3339Nano) {
		t.Errorf("timestamp header = %s", msg.Headers[HeaderTimestamp])
	}

	var payload map[string]string
	if err := msg.DecodeValue(&payload); err != nil || payload["type"] != "booking.created" {
		t.Errorf("DecodeValue() = %v, %v", payload, err)
	}
}

func TestMessageBuilder_EncodingErrorIsPermanent(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if ClassifyError(err) != ErrorTypePermanent {
		t.Errorf("ClassifyError(%v) should be permanent", err)
	}
}

func TestRetryCount(t *testing.T) {
	msg := Message{Headers: map[string]string{}}
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("GetRetryCount() = %d, want 12", got)
	}

	var empty Message
	empty.IncrementRetryCount()
	if empty.GetRetryCount() != 1 {
		t.Error("IncrementRetryCount must initialise headers")
	}
}

func TestDecodeValue_InvalidJSON(t *testing.T) {
	msg := Message{Value: []byte("{not json")}
	var v map[string]any
	err := msg.DecodeValue(&v)
	var kafkaErr *KafkaError
	if !errors.As(err, &kafkaErr) || !(kafkaErr.Type == ErrorTypePermanent) {
		t.Errorf("DecodeValue() error = %v, want permanent KafkaError", err)
	}
}
