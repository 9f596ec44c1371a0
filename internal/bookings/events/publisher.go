// Package events publishes booking notifications to Kafka.
package events

import (
	"context"
	"fmt"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"
)

const (
	SchemaVersion = "1"
	Source        = "bookings"
)

// MessagePublisher is the part of kafka.Producer the publisher needs.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer MessagePublisher
}

func NewKafkaPublisher(producer MessagePublisher) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish sends the event keyed by room id, so all events of one room keep
// their order on a single partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event *model.BookingEvent) error {
	msg, err := BuildMessage(ctx, event)
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

func BuildMessage(ctx context.Context, event *model.BookingEvent) (kafka.Message, error) {
	return kafka.NewMessage().
		WithKey(event.RoomID).
		WithValue(event).
		WithEventType(event.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithCorrelationID(middleware.GetRequestID(ctx)).
		WithTimestamp(event.OccurredAt).
		Build()
}

// LogPublisher is used when events are disabled. It only records the event
// at debug level.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, event *model.BookingEvent) error {
	p.log.Debug("Booking event (events disabled)",
		"type", event.Type,
		"booking_id", event.BookingID,
		"room_id", event.RoomID,
	)
	return nil
}
