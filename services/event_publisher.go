package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// StatusChangedEvent is emitted after the backend accepted a status change.
type StatusChangedEvent struct {
	ReservationID models.ReservationID `json:"reservation_id"`
	Date          string               `json:"date"`
	Time          string               `json:"time"`
	GuestName     string               `json:"guest_name"`
	PartySize     int                  `json:"party_size"`
	TableNumber   *string              `json:"table_number,omitempty"`
	From          models.Status        `json:"from"`
	To            models.Status        `json:"to"`
	ActorID       uint                 `json:"actor_id"`
	ActorName     string               `json:"actor_name"`
	ChangedAt     time.Time            `json:"changed_at"`
}

type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishStatusChanged(context.Context, StatusChangedEvent) error { return nil }

// AMQPPublisher sends events to a durable RabbitMQ queue. Each publish opens
// its own connection; status changes are rare enough for that.
type AMQPPublisher struct {
	URL   string
	Queue string
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = "floor.status_changed"
	}
	return &AMQPPublisher{URL: url, Queue: queue}
}

func (p *AMQPPublisher) PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    string(event.ReservationID),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	utils.ActionLog().WithField("reservation_id", event.ReservationID).Debug("Status change published")
	return nil
}

// MultiPublisher fans an event out to several publishers and returns the
// first error.
type MultiPublisher []EventPublisher

func (m MultiPublisher) PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error {
	var first error
	for _, p := range m {
		if err := p.PublishStatusChanged(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
