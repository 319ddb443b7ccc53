package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// StartConsumer connects to the broker, declares both booking queues
// and consumes them, logging each event as a notification record.  It
// runs a reconnect loop with exponential backoff and never returns;
// callers start it on its own goroutine.
func StartConsumer(url string, log zerolog.Logger) {
	log = log.With().Str("component", "amqp-consumer").Logger()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("broker dial failed")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, log); err != nil {
			log.Warn().Err(err).Msg("consume loop ended, reconnecting")
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, log zerolog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("set QoS failed")
	}
	for _, name := range []string{BookingConfirmedQueue, TicketRefundedQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	confirmed, err := ch.Consume(BookingConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", BookingConfirmedQueue, err)
	}
	refunded, err := ch.Consume(TicketRefundedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", TicketRefundedQueue, err)
	}

	for {
		select {
		case d, ok := <-confirmed:
			if !ok {
				return errors.New("booking.confirmed deliveries closed")
			}
			handle(d, log, handleBookingConfirmed)
		case d, ok := <-refunded:
			if !ok {
				return errors.New("ticket.refunded deliveries closed")
			}
			handle(d, log, handleTicketRefunded)
		}
	}
}

func handle(d amqp.Delivery, log zerolog.Logger, fn func([]byte, zerolog.Logger) error) {
	if err := fn(d.Body, log); err != nil {
		log.Error().Err(err).Msg("handle message failed")
		// Reject without requeue to avoid a tight redelivery loop.
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func handleBookingConfirmed(body []byte, log zerolog.Logger) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	log.Info().
		Uint64("ticket_id", ev.TicketID).
		Str("serial", ev.Serial).
		Uint64("customer_id", ev.CustomerID).
		Uint64("screening_id", ev.ScreeningID).
		Str("seat", ev.Seat).
		Time("show_at", ev.ShowAt).
		Uint32("price_cents", ev.PriceCents).
		Uint32("tokens_spent", ev.TokensSpent).
		Msg("booking confirmed")
	return nil
}

func handleTicketRefunded(body []byte, log zerolog.Logger) error {
	var ev TicketRefundedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	log.Info().
		Uint64("ticket_id", ev.TicketID).
		Str("serial", ev.Serial).
		Uint64("customer_id", ev.CustomerID).
		Uint32("tokens_returned", ev.TokensReturned).
		Msg("ticket refunded")
	return nil
}
