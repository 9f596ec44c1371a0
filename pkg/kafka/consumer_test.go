package kafka

import (
	"context"
	"errors"
	"roombook/pkg/logger"
	"testing"
)

func newTestConsumer(handler MessageHandler, maxRetries int) *Consumer {
	return &Consumer{
		topic:      "booking-events",
		groupID:    "test",
		maxRetries: maxRetries,
		handler:    handler,
		log:        logger.Discard(),
	}
}

func TestProcessMessage_RetriesTransientErrors(t *testing.T) {
	calls := 0
	c := newTestConsumer(func(ctx context.Context, msg Message) error {
		calls++
		if calls < 3 {
			return NewTransientError("store unavailable", nil)
		}
		return nil
	}, 3)

	if err := c.processMessage(context.Background(), Message{Headers: map[string]string{}}); err != nil {
		t.Fatalf("processMessage() unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
}

func TestProcessMessage_StopsAtMaxRetries(t *testing.T) {
	calls := 0
	c := newTestConsumer(func(ctx context.Context, msg Message) error {
		calls++
		return NewTransientError("store unavailable", nil)
	}, 2)

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	if err == nil {
		t.Fatal("expected error after retries are exhausted")
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3 (1 + 2 retries)", calls)
	}
}

func TestProcessMessage_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	want := NewPermanentError("bad payload", nil)
	c := newTestConsumer(func(ctx context.Context, msg Message) error {
		calls++
		return want
	}, 5)

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	if !errors.Is(err, want) {
		t.Errorf("error = %v, want %v", err, want)
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

func TestProcessMessage_MiddlewareOrder(t *testing.T) {
	var order []string
	c := newTestConsumer(func(ctx context.Context, msg Message) error {
		order = append(order, "handler")
		return nil
	}, 0)
	for _, name := range []string{"first", "second"} {
		name := name
		c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	if err := c.processMessage(context.Background(), Message{Headers: map[string]string{}}); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "handler" {
		t.Errorf("order = %v", order)
	}
}
