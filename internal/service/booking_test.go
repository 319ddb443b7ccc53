package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecinema/ecinema/internal/model"
	"github.com/ecinema/ecinema/internal/queue"
	"github.com/ecinema/ecinema/internal/repository"
)

type fakeBookingStore struct {
	nextID     uint64
	customers  map[uint64]*model.Customer // by customer ID
	byUser     map[uint64]uint64          // user ID -> customer ID
	seats      map[uint64]*model.ScreeningSeat
	screenings map[uint64]*model.Screening
	tickets    map[uint64]*model.Ticket
	cards      map[uint64]*model.PaymentCard
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		customers:  map[uint64]*model.Customer{},
		byUser:     map[uint64]uint64{},
		seats:      map[uint64]*model.ScreeningSeat{},
		screenings: map[uint64]*model.Screening{},
		tickets:    map[uint64]*model.Ticket{},
		cards:      map[uint64]*model.PaymentCard{},
	}
}

func (f *fakeBookingStore) id() uint64 { f.nextID++; return f.nextID }

func (f *fakeBookingStore) addCustomer(userID uint64, tokens uint32) *model.Customer {
	c := &model.Customer{ID: f.id(), UserID: userID, Tokens: tokens}
	f.customers[c.ID] = c
	f.byUser[userID] = c.ID
	return c
}

func (f *fakeBookingStore) addScreening(showAt time.Time) *model.Screening {
	sc := &model.Screening{ID: f.id(), ShowAt: showAt, EndAt: showAt.Add(2 * time.Hour)}
	f.screenings[sc.ID] = sc
	return sc
}

func (f *fakeBookingStore) addSeat(sc *model.Screening, row string, number uint32) *model.ScreeningSeat {
	seat := &model.ScreeningSeat{ID: f.id(), ScreeningID: sc.ID, Row: row, Number: number}
	f.seats[seat.ID] = seat
	return seat
}

func (f *fakeBookingStore) addCard(customerID uint64, expMonth, expYear int) *model.PaymentCard {
	card := &model.PaymentCard{ID: f.id(), CustomerID: customerID, LastFour: "4242", ExpMonth: expMonth, ExpYear: expYear}
	f.cards[card.ID] = card
	return card
}

func (f *fakeBookingStore) CustomerByUserID(_ context.Context, userID uint64) (*model.Customer, error) {
	id, ok := f.byUser[userID]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	c := *f.customers[id]
	return &c, nil
}

func (f *fakeBookingStore) CustomerByID(_ context.Context, id uint64) (*model.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeBookingStore) AddTokens(_ context.Context, customerID uint64, n uint32) error {
	c, ok := f.customers[customerID]
	if !ok {
		return repository.ErrCustomerNotFound
	}
	c.AddTokens(n)
	return nil
}

func (f *fakeBookingStore) ScreeningSeat(_ context.Context, id uint64) (*model.ScreeningSeat, *model.Screening, error) {
	seat, ok := f.seats[id]
	if !ok {
		return nil, nil, repository.ErrSeatNotFound
	}
	sp := *seat
	sc := *f.screenings[seat.ScreeningID]
	return &sp, &sc, nil
}

func (f *fakeBookingStore) CreateTicket(_ context.Context, t *model.Ticket) error {
	seat := f.seats[t.ScreeningSeatID]
	if seat.TicketID != nil {
		return repository.ErrDuplicate
	}
	f.customers[t.CustomerID].SubtractTokens(t.TokensSpent)
	t.ID = f.id()
	t.CreatedAt = time.Now()
	f.tickets[t.ID] = t
	tid := t.ID
	seat.TicketID = &tid
	return nil
}

func (f *fakeBookingStore) TicketByID(_ context.Context, id uint64) (*model.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	return t, nil
}

func (f *fakeBookingStore) TicketWithShowtime(_ context.Context, id uint64) (*model.Ticket, time.Time, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, time.Time{}, repository.ErrTicketNotFound
	}
	tp := *t
	seat := f.seats[t.ScreeningSeatID]
	return &tp, f.screenings[seat.ScreeningID].ShowAt, nil
}

func (f *fakeBookingStore) RefundTicket(_ context.Context, t *model.Ticket) error {
	stored := f.tickets[t.ID]
	if stored.Status != model.TicketValid {
		return repository.ErrDuplicate
	}
	stored.Status = model.TicketRefunded
	f.seats[stored.ScreeningSeatID].TicketID = nil
	f.customers[stored.CustomerID].AddTokens(stored.TokensSpent)
	return nil
}

func (f *fakeBookingStore) TicketsByCustomer(_ context.Context, customerID uint64) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, t := range f.tickets {
		if t.CustomerID == customerID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) CreateCard(_ context.Context, card *model.PaymentCard) error {
	card.ID = f.id()
	f.cards[card.ID] = card
	return nil
}

func (f *fakeBookingStore) CardByID(_ context.Context, id uint64) (*model.PaymentCard, error) {
	card, ok := f.cards[id]
	if !ok {
		return nil, repository.ErrCardNotFound
	}
	cp := *card
	return &cp, nil
}

func (f *fakeBookingStore) CardsByCustomer(_ context.Context, customerID uint64) ([]model.PaymentCard, error) {
	var out []model.PaymentCard
	for _, card := range f.cards {
		if card.CustomerID == customerID {
			out = append(out, *card)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) CountCards(_ context.Context, customerID uint64) (int, error) {
	n := 0
	for _, card := range f.cards {
		if card.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeBookingStore) DeleteCard(_ context.Context, id, customerID uint64) error {
	card, ok := f.cards[id]
	if !ok || card.CustomerID != customerID {
		return repository.ErrCardNotFound
	}
	delete(f.cards, id)
	return nil
}

type recordingNotifier struct {
	confirmed []queue.BookingConfirmedEvent
	refunded  []queue.TicketRefundedEvent
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) {
	n.confirmed = append(n.confirmed, ev)
}

func (n *recordingNotifier) TicketRefunded(_ context.Context, ev queue.TicketRefundedEvent) {
	n.refunded = append(n.refunded, ev)
}

func newBookingForTest(t *testing.T) (*BookingService, *fakeBookingStore, *recordingNotifier) {
	t.Helper()
	store := newFakeBookingStore()
	notifier := &recordingNotifier{}
	svc := NewBookingService(store, notifier, BookingConfig{TokenValueCents: 100, MaxCards: 3}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return svc, store, notifier
}

func futureShowtime() time.Time {
	return time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
}

func TestBookSeatWithCard(t *testing.T) {
	svc, store, notifier := newBookingForTest(t)
	ctx := context.Background()

	customer := store.addCustomer(10, 0)
	sc := store.addScreening(futureShowtime())
	seat := store.addSeat(sc, "C", 7)
	card := store.addCard(customer.ID, 12, 2027)

	ticket, err := svc.BookSeat(ctx, 10, seat.ID, model.TicketAdult, &card.ID, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.Serial)
	assert.Equal(t, uint32(900), ticket.PriceCents)
	assert.Equal(t, uint32(0), ticket.TokensSpent)
	require.NotNil(t, ticket.PaymentCardID)
	assert.Equal(t, card.ID, *ticket.PaymentCardID)

	require.NotNil(t, store.seats[seat.ID].TicketID)
	assert.Equal(t, ticket.ID, *store.seats[seat.ID].TicketID)

	require.Len(t, notifier.confirmed, 1)
	assert.Equal(t, "C7", notifier.confirmed[0].Seat)
}

func TestBookSeatTokenDiscountCapped(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	customer := store.addCustomer(10, 20)
	sc := store.addScreening(futureShowtime())
	seat := store.addSeat(sc, "A", 1)

	// 20 tokens at 100 cents each exceed the 900-cent adult price; only
	// the 9 tokens needed are spent and no card is required.
	ticket, err := svc.BookSeat(ctx, 10, seat.ID, model.TicketAdult, nil, 20)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), ticket.PriceCents)
	assert.Equal(t, uint32(9), ticket.TokensSpent)
	assert.Nil(t, ticket.PaymentCardID)
	assert.Equal(t, uint32(11), store.customers[customer.ID].Tokens)
}

func TestBookSeatMoreTokensThanHeld(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	store.addCustomer(10, 3)
	sc := store.addScreening(futureShowtime())
	seat := store.addSeat(sc, "A", 1)

	_, err := svc.BookSeat(ctx, 10, seat.ID, model.TicketChild, nil, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBookSeatPartialTokensNeedCard(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	store.addCustomer(10, 3)
	sc := store.addScreening(futureShowtime())
	seat := store.addSeat(sc, "A", 1)

	// A remainder with no card to charge it to is a missing payment
	// authority, not a malformed request.
	_, err := svc.BookSeat(ctx, 10, seat.ID, model.TicketChild, nil, 3)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestBookSeatHugeTokenBalance(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	// 42_949_673 tokens at 100 cents would wrap uint32 to 4 cents; the
	// discount must still cap at the ticket price.
	customer := store.addCustomer(10, 42_949_673)
	sc := store.addScreening(futureShowtime())
	seat := store.addSeat(sc, "A", 1)

	ticket, err := svc.BookSeat(ctx, 10, seat.ID, model.TicketAdult, nil, 42_949_673)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), ticket.PriceCents)
	assert.Equal(t, uint32(9), ticket.TokensSpent)
	assert.Equal(t, uint32(42_949_664), store.customers[customer.ID].Tokens)
}

func TestBookSeatAlreadyBooked(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	c1 := store.addCustomer(10, 0)
	store.addCustomer(11, 0)
	sc := store.addScreening(futureShowtime())
	seat := store.addSeat(sc, "A", 1)
	card1 := store.addCard(c1.ID, 12, 2027)

	_, err := svc.BookSeat(ctx, 10, seat.ID, model.TicketAdult, &card1.ID, 0)
	require.NoError(t, err)

	c2ID := store.byUser[11]
	card2 := store.addCard(c2ID, 12, 2027)
	_, err = svc.BookSeat(ctx, 11, seat.ID, model.TicketAdult, &card2.ID, 0)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBookSeatAfterShowtime(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	c := store.addCustomer(10, 0)
	sc := store.addScreening(time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)) // before the fixed clock
	seat := store.addSeat(sc, "A", 1)
	card := store.addCard(c.ID, 12, 2027)

	_, err := svc.BookSeat(ctx, 10, seat.ID, model.TicketAdult, &card.ID, 0)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestBookSeatCardChecks(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	c1 := store.addCustomer(10, 0)
	other := store.addCustomer(11, 0)
	sc := store.addScreening(futureShowtime())
	seat := store.addSeat(sc, "A", 1)

	expired := store.addCard(c1.ID, 1, 2026)
	_, err := svc.BookSeat(ctx, 10, seat.ID, model.TicketAdult, &expired.ID, 0)
	assert.ErrorIs(t, err, ErrExpired)

	foreign := store.addCard(other.ID, 12, 2027)
	_, err = svc.BookSeat(ctx, 10, seat.ID, model.TicketAdult, &foreign.ID, 0)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	missing := uint64(9999)
	_, err = svc.BookSeat(ctx, 10, seat.ID, model.TicketAdult, &missing, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefundTicketReleasesSeatAndTokens(t *testing.T) {
	svc, store, notifier := newBookingForTest(t)
	ctx := context.Background()

	customer := store.addCustomer(10, 9)
	sc := store.addScreening(futureShowtime())
	seat := store.addSeat(sc, "A", 1)

	ticket, err := svc.BookSeat(ctx, 10, seat.ID, model.TicketAdult, nil, 9)
	require.NoError(t, err)
	require.Equal(t, uint32(0), store.customers[customer.ID].Tokens)

	require.NoError(t, svc.RefundTicket(ctx, ticket.ID, 10))
	assert.Equal(t, model.TicketRefunded, store.tickets[ticket.ID].Status)
	assert.Nil(t, store.seats[seat.ID].TicketID)
	assert.Equal(t, uint32(9), store.customers[customer.ID].Tokens)
	require.Len(t, notifier.refunded, 1)

	// Double refund conflicts.
	assert.ErrorIs(t, svc.RefundTicket(ctx, ticket.ID, 10), ErrConflict)

	// The freed seat can be booked again.
	store.addCustomer(11, 9)
	_, err = svc.BookSeat(ctx, 11, seat.ID, model.TicketAdult, nil, 9)
	assert.NoError(t, err)
}

func TestRefundTicketOwnershipAndShowtime(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	store.addCustomer(10, 9)
	store.addCustomer(11, 0)
	sc := store.addScreening(futureShowtime())
	seat := store.addSeat(sc, "A", 1)

	ticket, err := svc.BookSeat(ctx, 10, seat.ID, model.TicketAdult, nil, 9)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RefundTicket(ctx, ticket.ID, 11), ErrPermissionDenied)

	// Move the clock past showtime: refunds are closed.
	svc.now = func() time.Time { return sc.ShowAt.Add(time.Minute) }
	assert.ErrorIs(t, svc.RefundTicket(ctx, ticket.ID, 10), ErrExpired)
}

func TestTicketLookup(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	c := store.addCustomer(10, 0)
	store.addCustomer(11, 0)
	sc := store.addScreening(futureShowtime())
	seat := store.addSeat(sc, "B", 4)
	card := store.addCard(c.ID, 12, 2027)

	booked, err := svc.BookSeat(ctx, 10, seat.ID, model.TicketAdult, &card.ID, 0)
	require.NoError(t, err)

	got, err := svc.Ticket(ctx, 10, booked.ID)
	require.NoError(t, err)
	assert.Equal(t, booked.Serial, got.Serial)

	_, err = svc.Ticket(ctx, 11, booked.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.Ticket(ctx, 10, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGrantTokens(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	customer := store.addCustomer(10, 2)
	balance, err := svc.GrantTokens(ctx, customer.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), balance)
	assert.Equal(t, uint32(7), store.customers[customer.ID].Tokens)

	_, err = svc.GrantTokens(ctx, customer.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.GrantTokens(ctx, 9999, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddCardLimitAndMasking(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	customer := store.addCustomer(10, 0)

	card, err := svc.AddCard(ctx, 10, "4111111111111111", "1 Main St", "Springfield", "IL", "62704", 12, 2027)
	require.NoError(t, err)
	assert.Equal(t, "1111", card.LastFour)

	_, err = svc.AddCard(ctx, 10, "not-a-number", "", "", "", "", 12, 2027)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	store.addCard(customer.ID, 12, 2027)
	store.addCard(customer.ID, 12, 2027)
	_, err = svc.AddCard(ctx, 10, "4111111111111111", "", "", "", "", 12, 2027)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBookSeatWithoutCustomerAuthority(t *testing.T) {
	svc, store, _ := newBookingForTest(t)
	ctx := context.Background()

	sc := store.addScreening(futureShowtime())
	seat := store.addSeat(sc, "A", 1)

	_, err := svc.BookSeat(ctx, 77, seat.ID, model.TicketAdult, nil, 0)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
