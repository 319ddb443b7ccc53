package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher sends booking events to the broker.  Publishing is
// fire-and-forget from the caller's point of view: every failure is
// logged and swallowed so the booking that already committed is never
// failed by a broker hiccup.
type Publisher struct {
	url string
	log zerolog.Logger
}

func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, log: log.With().Str("component", "amqp-publisher").Logger()}
}

// BookingConfirmed publishes a booking-confirmed event.
func (p *Publisher) BookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) {
	if err := p.publish(ctx, BookingConfirmedQueue, ev); err != nil {
		p.log.Error().Err(err).Uint64("ticket_id", ev.TicketID).Msg("publish booking.confirmed failed")
	}
}

// TicketRefunded publishes a ticket-refunded event.
func (p *Publisher) TicketRefunded(ctx context.Context, ev TicketRefundedEvent) {
	if err := p.publish(ctx, TicketRefundedQueue, ev); err != nil {
		p.log.Error().Err(err).Uint64("ticket_id", ev.TicketID).Msg("publish ticket.refunded failed")
	}
}

func (p *Publisher) publish(ctx context.Context, queueName string, event any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
