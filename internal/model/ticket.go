package model

import "time"

// TicketType selects the base price of a booking.
type TicketType string

const (
	TicketChild  TicketType = "CHILD"
	TicketAdult  TicketType = "ADULT"
	TicketSenior TicketType = "SENIOR"
)

// Base prices in cents per ticket type.  These are fixed by the
// business; the worth of a loyalty token is configurable separately.
const (
	childPriceCents  uint32 = 800
	adultPriceCents  uint32 = 900
	seniorPriceCents uint32 = 1200
)

// Valid reports whether the ticket type is known.
func (t TicketType) Valid() bool {
	switch t {
	case TicketChild, TicketAdult, TicketSenior:
		return true
	}
	return false
}

// BasePriceCents returns the fixed price for the ticket type, or 0 for
// an unknown type (callers validate first).
func (t TicketType) BasePriceCents() uint32 {
	switch t {
	case TicketChild:
		return childPriceCents
	case TicketAdult:
		return adultPriceCents
	case TicketSenior:
		return seniorPriceCents
	}
	return 0
}

// TicketStatus tracks the lifecycle of an issued ticket.  Tickets are
// never hard-deleted; refunds flip the status and free the seat so the
// record stays for audit.
type TicketStatus string

const (
	TicketValid    TicketStatus = "VALID"
	TicketUsed     TicketStatus = "USED"
	TicketRefunded TicketStatus = "REFUNDED"
)

// Ticket is proof of a completed booking.  It belongs to one customer,
// occupies exactly one screening seat (linking the two is what marks
// the seat booked) and optionally references the payment card charged.
// PaymentCardID is nil when loyalty tokens covered the full price.
//
// Fields:
//  ID              – primary key identifier.
//  Serial          – opaque reference printed on the ticket.
//  CustomerID      – owning customer.
//  ScreeningSeatID – the booked seat.
//  PaymentCardID   – card charged, nil for token-only bookings.
//  Type            – CHILD/ADULT/SENIOR.
//  Status          – VALID/USED/REFUNDED.
//  PriceCents      – amount charged after the token discount.
//  TokensSpent     – loyalty tokens consumed by the booking.
//  CreatedAt       – booking timestamp.
type Ticket struct {
	ID              uint64       `json:"id"`                        // tickets.id
	Serial          string       `json:"serial"`                    // tickets.serial
	CustomerID      uint64       `json:"customer_id"`               // tickets.customer_id
	ScreeningSeatID uint64       `json:"screening_seat_id"`         // tickets.screening_seat_id
	PaymentCardID   *uint64      `json:"payment_card_id,omitempty"` // tickets.payment_card_id (nullable)
	Type            TicketType   `json:"ticket_type"`               // tickets.ticket_type
	Status          TicketStatus `json:"status"`                    // tickets.status
	PriceCents      uint32       `json:"price_cents"`               // tickets.price_cents
	TokensSpent     uint32       `json:"tokens_spent"`              // tickets.tokens_spent
	CreatedAt       time.Time    `json:"created_at"`                // tickets.created_at
}
