// Package queue carries the booking lifecycle events exchanged over the
// message broker, a publisher for the request path and a background
// consumer that turns events into notification log entries.
package queue

import "time"

// Queue names.  The routing key equals the queue name; everything goes
// through the default exchange.
const (
	BookingConfirmedQueue = "booking.confirmed"
	TicketRefundedQueue   = "ticket.refunded"
)

// BookingConfirmedEvent is published after a booking transaction
// commits.  It carries enough for downstream consumers to notify the
// customer without querying the primary database.
type BookingConfirmedEvent struct {
	TicketID    uint64    `json:"ticket_id"`
	Serial      string    `json:"serial"`
	CustomerID  uint64    `json:"customer_id"`
	ScreeningID uint64    `json:"screening_id"`
	Seat        string    `json:"seat"`
	ShowAt      time.Time `json:"show_at"`
	PriceCents  uint32    `json:"price_cents"`
	TokensSpent uint32    `json:"tokens_spent"`
}

// TicketRefundedEvent is published after a refund commits.
type TicketRefundedEvent struct {
	TicketID       uint64 `json:"ticket_id"`
	Serial         string `json:"serial"`
	CustomerID     uint64 `json:"customer_id"`
	TokensReturned uint32 `json:"tokens_returned"`
}
