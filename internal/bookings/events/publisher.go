package events

import (
	"context"
	"meshwar/pkg/kafka"
	"meshwar/pkg/middleware"
	"meshwar/pkg/model"
	"time"
)

const (
	TypeCreated       = "booking.created"
	TypeDeleted       = "booking.deleted"
	TypeStatusChanged = "booking.status_changed"

	schemaVersion = "1"
	source        = "meshwar-admin"
)

// Event describes a committed booking change. Events are keyed by activity id so every
// change to one activity's participant count lands on the same partition in order.
type Event struct {
	Type           string    `json:"type"`
	BookingID      string    `json:"booking_id"`
	UserID         string    `json:"user_id"`
	ActivityID     string    `json:"activity_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewEvent(eventType string, b *model.Booking) Event {
	return Event{
		Type:       eventType,
		BookingID:  b.ID,
		UserID:     b.UserID,
		ActivityID: b.ActivityID,
		Status:     b.Status,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type kafkaPublisher struct {
	producer *kafka.Producer
}

// NewPublisher publishes through producer, or drops events when producer is nil.
func NewPublisher(producer *kafka.Producer) Publisher {
	if producer == nil {
		return NoopPublisher{}
	}
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg := kafka.NewMessage().
		WithKey(event.ActivityID).
		WithValue(event).
		WithEventType(event.Type).
		WithCorrelationID(middleware.GetRequestID(ctx)).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		Build()

	return p.producer.Publish(ctx, msg)
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error {
	return nil
}
