package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ecinema/ecinema/internal/model"
	"github.com/ecinema/ecinema/internal/queue"
	"github.com/ecinema/ecinema/internal/repository"
)

// BookingStore is the persistence surface the booking engine needs.
type BookingStore interface {
	CustomerByUserID(ctx context.Context, userID uint64) (*model.Customer, error)
	CustomerByID(ctx context.Context, id uint64) (*model.Customer, error)
	AddTokens(ctx context.Context, customerID uint64, n uint32) error

	ScreeningSeat(ctx context.Context, id uint64) (*model.ScreeningSeat, *model.Screening, error)

	CreateTicket(ctx context.Context, t *model.Ticket) error
	TicketByID(ctx context.Context, id uint64) (*model.Ticket, error)
	TicketWithShowtime(ctx context.Context, id uint64) (*model.Ticket, time.Time, error)
	RefundTicket(ctx context.Context, t *model.Ticket) error
	TicketsByCustomer(ctx context.Context, customerID uint64) ([]model.Ticket, error)

	CreateCard(ctx context.Context, card *model.PaymentCard) error
	CardByID(ctx context.Context, id uint64) (*model.PaymentCard, error)
	CardsByCustomer(ctx context.Context, customerID uint64) ([]model.PaymentCard, error)
	CountCards(ctx context.Context, customerID uint64) (int, error)
	DeleteCard(ctx context.Context, id, customerID uint64) error
}

// Notifier publishes booking lifecycle events.  Publishing is
// fire-and-forget: failures are logged by the implementation and never
// fail the booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent)
	TicketRefunded(ctx context.Context, ev queue.TicketRefundedEvent)
}

// BookingConfig carries the tunables of the token economy and the card
// wallet.
type BookingConfig struct {
	// TokenValueCents is the purchase value of one loyalty token.
	TokenValueCents uint32
	// MaxCards is the most payment cards a customer may keep on file.
	MaxCards int
}

// BookingService sells, lists and refunds tickets, and manages the
// customer's payment cards and loyalty tokens.
type BookingService struct {
	store    BookingStore
	notifier Notifier
	cfg      BookingConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewBookingService(store BookingStore, notifier Notifier, cfg BookingConfig, log zerolog.Logger) *BookingService {
	if cfg.TokenValueCents == 0 {
		cfg.TokenValueCents = 100
	}
	if cfg.MaxCards == 0 {
		cfg.MaxCards = 5
	}
	return &BookingService{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With().Str("svc", "booking").Logger(),
		now:      time.Now,
	}
}

// BookSeat sells one ticket for a screening seat.  tokens is the number
// of loyalty tokens the customer wants to apply; the discount is capped
// at the ticket price and only the tokens needed to cover it are spent.
// Any remainder must be covered by a card the customer owns that has
// not expired.  A seat lost to a concurrent booking returns Conflict.
func (s *BookingService) BookSeat(ctx context.Context, userID, screeningSeatID uint64, ticketType model.TicketType, paymentCardID *uint64, tokens uint32) (*model.Ticket, error) {
	customer, err := s.store.CustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, fmt.Errorf("%w: user %d holds no customer authority", ErrPermissionDenied, userID)
		}
		return nil, err
	}
	if !ticketType.Valid() {
		return nil, fmt.Errorf("%w: unknown ticket type %q", ErrInvalidArgument, ticketType)
	}

	seat, screening, err := s.store.ScreeningSeat(ctx, screeningSeatID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return nil, fmt.Errorf("%w: screening seat %d", ErrNotFound, screeningSeatID)
		}
		return nil, err
	}
	if seat.Booked() {
		return nil, fmt.Errorf("%w: seat %s is already booked", ErrConflict, seat.Label())
	}
	now := s.now()
	if screening.Started(now) {
		return nil, fmt.Errorf("%w: screening started at %s", ErrExpired, screening.ShowAt.Format(time.RFC3339))
	}

	price := ticketType.BasePriceCents()
	if tokens > customer.Tokens {
		return nil, fmt.Errorf("%w: %d tokens requested, %d held", ErrInvalidArgument, tokens, customer.Tokens)
	}
	// Widened so a large balance times the token value cannot wrap.
	discount := uint64(tokens) * uint64(s.cfg.TokenValueCents)
	spent := tokens
	if discount > uint64(price) {
		discount = uint64(price)
		// Only the tokens needed to cover the price are consumed.
		spent = (price + s.cfg.TokenValueCents - 1) / s.cfg.TokenValueCents
	}
	remaining := price - uint32(discount)

	if remaining > 0 {
		if paymentCardID == nil {
			return nil, fmt.Errorf("%w: %d cents remain after tokens and no card was given", ErrPermissionDenied, remaining)
		}
		card, err := s.store.CardByID(ctx, *paymentCardID)
		if err != nil {
			if errors.Is(err, repository.ErrCardNotFound) {
				return nil, fmt.Errorf("%w: payment card %d", ErrNotFound, *paymentCardID)
			}
			return nil, err
		}
		if card.CustomerID != customer.ID {
			return nil, fmt.Errorf("%w: payment card %d belongs to another customer", ErrPermissionDenied, *paymentCardID)
		}
		if card.Expired(now) {
			return nil, fmt.Errorf("%w: payment card %d expired %02d/%d", ErrExpired, card.ID, card.ExpMonth, card.ExpYear)
		}
	} else {
		// Fully covered by tokens; any supplied card is ignored.
		paymentCardID = nil
	}

	ticket := &model.Ticket{
		Serial:          uuid.NewString(),
		CustomerID:      customer.ID,
		ScreeningSeatID: screeningSeatID,
		PaymentCardID:   paymentCardID,
		Type:            ticketType,
		Status:          model.TicketValid,
		PriceCents:      remaining,
		TokensSpent:     spent,
	}
	if err := s.store.CreateTicket(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: seat %s was booked concurrently", ErrConflict, seat.Label())
		}
		return nil, err
	}
	ticket.CreatedAt = now

	s.log.Info().Uint64("ticket_id", ticket.ID).Str("serial", ticket.Serial).
		Uint64("customer_id", customer.ID).Str("seat", seat.Label()).
		Uint32("price_cents", price-uint32(discount)).Uint32("tokens_spent", spent).
		Msg("seat booked")
	if s.notifier != nil {
		s.notifier.BookingConfirmed(ctx, queue.BookingConfirmedEvent{
			TicketID:    ticket.ID,
			Serial:      ticket.Serial,
			CustomerID:  customer.ID,
			ScreeningID: screening.ID,
			Seat:        seat.Label(),
			ShowAt:      screening.ShowAt,
			PriceCents:  remaining,
			TokensSpent: spent,
		})
	}
	return ticket, nil
}

// RefundTicket refunds a customer's own ticket.  Refunds close at
// showtime; a refunded ticket releases its seat and returns the spent
// tokens.
func (s *BookingService) RefundTicket(ctx context.Context, ticketID, userID uint64) error {
	customer, err := s.store.CustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return fmt.Errorf("%w: user %d holds no customer authority", ErrPermissionDenied, userID)
		}
		return err
	}
	ticket, showAt, err := s.store.TicketWithShowtime(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return fmt.Errorf("%w: ticket %d", ErrNotFound, ticketID)
		}
		return err
	}
	if ticket.CustomerID != customer.ID {
		return fmt.Errorf("%w: ticket %d belongs to another customer", ErrPermissionDenied, ticketID)
	}
	if ticket.Status != model.TicketValid {
		return fmt.Errorf("%w: ticket %d is %s", ErrConflict, ticketID, ticket.Status)
	}
	if !s.now().Before(showAt) {
		return fmt.Errorf("%w: refunds close at showtime %s", ErrExpired, showAt.Format(time.RFC3339))
	}
	if err := s.store.RefundTicket(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("%w: ticket %d was already refunded", ErrConflict, ticketID)
		}
		return err
	}
	s.log.Info().Uint64("ticket_id", ticketID).Uint64("customer_id", customer.ID).Msg("ticket refunded")
	if s.notifier != nil {
		s.notifier.TicketRefunded(ctx, queue.TicketRefundedEvent{
			TicketID:       ticketID,
			Serial:         ticket.Serial,
			CustomerID:     customer.ID,
			TokensReturned: ticket.TokensSpent,
		})
	}
	return nil
}

// Ticket returns one of the calling customer's tickets.
func (s *BookingService) Ticket(ctx context.Context, userID, ticketID uint64) (*model.Ticket, error) {
	customer, err := s.store.CustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, fmt.Errorf("%w: user %d holds no customer authority", ErrPermissionDenied, userID)
		}
		return nil, err
	}
	ticket, err := s.store.TicketByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, fmt.Errorf("%w: ticket %d", ErrNotFound, ticketID)
		}
		return nil, err
	}
	if ticket.CustomerID != customer.ID {
		return nil, fmt.Errorf("%w: ticket %d belongs to another customer", ErrPermissionDenied, ticketID)
	}
	return ticket, nil
}

// Tickets lists the calling customer's tickets, newest first.
func (s *BookingService) Tickets(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	customer, err := s.store.CustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, fmt.Errorf("%w: user %d holds no customer authority", ErrPermissionDenied, userID)
		}
		return nil, err
	}
	return s.store.TicketsByCustomer(ctx, customer.ID)
}

// GrantTokens credits loyalty tokens to a customer and returns the new
// balance.  This is the only path that grows a balance; spending and
// refunds move it back and forth.
func (s *BookingService) GrantTokens(ctx context.Context, customerID uint64, n uint32) (uint32, error) {
	if n == 0 {
		return 0, fmt.Errorf("%w: token grant must be positive", ErrInvalidArgument)
	}
	if err := s.store.AddTokens(ctx, customerID, n); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return 0, fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
		}
		return 0, err
	}
	customer, err := s.store.CustomerByID(ctx, customerID)
	if err != nil {
		return 0, err
	}
	s.log.Info().Uint64("customer_id", customerID).Uint32("tokens", n).
		Uint32("balance", customer.Tokens).Msg("tokens granted")
	return customer.Tokens, nil
}

// Balance returns the calling customer's loyalty token balance.
func (s *BookingService) Balance(ctx context.Context, userID uint64) (uint32, error) {
	customer, err := s.store.CustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return 0, fmt.Errorf("%w: user %d holds no customer authority", ErrPermissionDenied, userID)
		}
		return 0, err
	}
	return customer.Tokens, nil
}

// AddCard stores a payment card for the calling customer, keeping only
// the last four digits of the number.
func (s *BookingService) AddCard(ctx context.Context, userID uint64, number, billing, city, state, zip string, expMonth, expYear int) (*model.PaymentCard, error) {
	customer, err := s.store.CustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, fmt.Errorf("%w: user %d holds no customer authority", ErrPermissionDenied, userID)
		}
		return nil, err
	}
	lastFour, err := model.MaskCardNumber(number)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if expMonth < 1 || expMonth > 12 {
		return nil, fmt.Errorf("%w: expiration month must be 1-12", ErrInvalidArgument)
	}
	n, err := s.store.CountCards(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	if n >= s.cfg.MaxCards {
		return nil, fmt.Errorf("%w: at most %d payment cards may be kept", ErrInvalidArgument, s.cfg.MaxCards)
	}
	card := &model.PaymentCard{
		CustomerID: customer.ID,
		LastFour:   lastFour,
		Billing:    billing,
		City:       city,
		State:      state,
		Zip:        zip,
		ExpMonth:   expMonth,
		ExpYear:    expYear,
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Cards lists the calling customer's stored payment cards.
func (s *BookingService) Cards(ctx context.Context, userID uint64) ([]model.PaymentCard, error) {
	customer, err := s.store.CustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, fmt.Errorf("%w: user %d holds no customer authority", ErrPermissionDenied, userID)
		}
		return nil, err
	}
	return s.store.CardsByCustomer(ctx, customer.ID)
}

// RemoveCard deletes one of the calling customer's cards.
func (s *BookingService) RemoveCard(ctx context.Context, userID, cardID uint64) error {
	customer, err := s.store.CustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return fmt.Errorf("%w: user %d holds no customer authority", ErrPermissionDenied, userID)
		}
		return err
	}
	if err := s.store.DeleteCard(ctx, cardID, customer.ID); err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return fmt.Errorf("%w: payment card %d", ErrNotFound, cardID)
		}
		return err
	}
	return nil
}
