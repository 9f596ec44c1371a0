package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"roombook/pkg/kafka"
	"roombook/pkg/logger"
)

func TestMetricsConsumerMiddleware(t *testing.T) {
	m := NewMetrics()
	mw := m.ConsumerMiddleware()

	ok := func(ctx context.Context, msg kafka.Message) error { return nil }
	fail := func(ctx context.Context, msg kafka.Message) error { return errors.New("boom") }

	_ = mw(context.Background(), kafka.Message{}, ok)
	_ = mw(context.Background(), kafka.Message{}, ok)
	if err := mw(context.Background(), kafka.Message{}, fail); err == nil {
		t.Error("middleware must return the handler error")
	}

	snap := m.Snapshot()
	if snap.Consumed != 2 || snap.ConsumeFailed != 1 {
		t.Errorf("snapshot = %+v, want 2 consumed and 1 failed", snap)
	}
}

func TestMetricsProducerMiddleware(t *testing.T) {
	m := NewMetrics()
	mw := m.ProducerMiddleware()

	_ = mw(context.Background(), kafka.Message{}, func(ctx context.Context, msg kafka.Message) error { return nil })

	if snap := m.Snapshot(); snap.Published != 1 || snap.PublishFailed != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestLoggingConsumerMiddleware_PassesThrough(t *testing.T) {
	mw := LoggingConsumerMiddleware(logger.Discard())
	want := errors.New("handler failed")

	got := mw(context.Background(), kafka.Message{Headers: map[string]string{}}, func(ctx context.Context, msg kafka.Message) error {
		return want
	})
	if !errors.Is(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
