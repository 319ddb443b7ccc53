package model

import (
	"errors"
	"time"
)

// PaymentCard is a card on file for a customer.  Only the last four
// digits of the number are retained for display; the card is never
// actually charged by this system.  A customer may hold at most a
// configured maximum number of cards.
//
// Fields:
//  ID         – primary key identifier.
//  CustomerID – owning customer.
//  LastFour   – last four digits of the card number.
//  Billing    – billing street address.
//  City, State, Zip – remaining billing address parts.
//  ExpMonth   – expiration month (1–12).
//  ExpYear    – expiration four-digit year.
type PaymentCard struct {
	ID         uint64    `json:"id"`              // payment_cards.id
	CustomerID uint64    `json:"customer_id"`     // payment_cards.customer_id
	LastFour   string    `json:"last_four"`       // payment_cards.last_four
	Billing    string    `json:"billing_address"` // payment_cards.billing_address
	City       string    `json:"city"`            // payment_cards.city
	State      string    `json:"state"`           // payment_cards.state
	Zip        string    `json:"zipcode"`         // payment_cards.zipcode
	ExpMonth   int       `json:"exp_month"`       // payment_cards.exp_month
	ExpYear    int       `json:"exp_year"`        // payment_cards.exp_year
	CreatedAt  time.Time `json:"created_at"`      // payment_cards.created_at
}

// Expired reports whether the card has expired relative to now.  A card
// is usable through the last day of its expiration month.
func (p PaymentCard) Expired(now time.Time) bool {
	endOfMonth := time.Date(p.ExpYear, time.Month(p.ExpMonth), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, 0)
	return !now.Before(endOfMonth)
}

// ErrBadCardNumber is returned by MaskCardNumber for inputs that do not
// look like a card number.
var ErrBadCardNumber = errors.New("card number must be 12-19 digits")

// MaskCardNumber validates a raw card number and returns the four
// digits retained for display.  The full number is discarded.
func MaskCardNumber(number string) (string, error) {
	if len(number) < 12 || len(number) > 19 {
		return "", ErrBadCardNumber
	}
	for i := 0; i < len(number); i++ {
		if number[i] < '0' || number[i] > '9' {
			return "", ErrBadCardNumber
		}
	}
	return number[len(number)-4:], nil
}
