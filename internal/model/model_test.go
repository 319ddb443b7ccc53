package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatGrid(t *testing.T) {
	seats := SeatGrid(3, 4)
	require.Len(t, seats, 12)

	seen := make(map[string]bool, len(seats))
	for _, s := range seats {
		seen[s.Label()] = true
	}
	assert.Len(t, seen, 12, "every (row,number) pair must be unique")
	assert.True(t, seen["A1"])
	assert.True(t, seen["C4"])
	assert.False(t, seen["D1"])
}

func TestRoomLetterValid(t *testing.T) {
	assert.True(t, RoomLetter("A").Valid())
	assert.True(t, RoomLetter("Z").Valid())
	assert.False(t, RoomLetter("a").Valid())
	assert.False(t, RoomLetter("AA").Valid())
	assert.False(t, RoomLetter("").Valid())
	assert.False(t, RoomLetter("1").Valid())
}

func TestSearchTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Spider-Man: No Way Home", "SPIDERMANNOWAYHOME"},
		{"spiderman no way home", "SPIDERMANNOWAYHOME"},
		{"2001: A Space Odyssey", "2001ASPACEODYSSEY"},
		{"  WALL·E  ", "WALLE"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SearchTitle(tc.in), "input %q", tc.in)
	}
}

func TestOverlapsInclusive(t *testing.T) {
	base := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	end := base.Add(2 * time.Hour)

	// Disjoint before and after.
	assert.False(t, Overlaps(base, end, end.Add(time.Minute), end.Add(time.Hour)))
	assert.False(t, Overlaps(base, end, base.Add(-time.Hour), base.Add(-time.Minute)))

	// Contained and partially overlapping.
	assert.True(t, Overlaps(base, end, base.Add(30*time.Minute), base.Add(time.Hour)))
	assert.True(t, Overlaps(base, end, base.Add(-time.Hour), base.Add(time.Minute)))

	// Touching endpoints count as a clash (inclusive on both ends).
	assert.True(t, Overlaps(base, end, end, end.Add(time.Hour)))
	assert.True(t, Overlaps(base, end, base.Add(-time.Hour), base))
}

func TestCustomerTokens(t *testing.T) {
	c := Customer{Tokens: 3}

	removed := c.SubtractTokens(10)
	assert.Equal(t, uint32(3), removed)
	assert.Equal(t, uint32(0), c.Tokens, "balance clamps at zero")

	c.AddTokens(5)
	assert.Equal(t, uint32(5), c.Tokens)
	removed = c.SubtractTokens(3)
	assert.Equal(t, uint32(3), removed)
	assert.Equal(t, uint32(2), c.Tokens)
}

func TestFloorAverage(t *testing.T) {
	assert.Equal(t, 7, FloorAverage([]int{7, 7, 8}), "floor(22/3)")
	assert.Equal(t, 10, FloorAverage([]int{10}))
	assert.Equal(t, 0, FloorAverage(nil))
}

func TestTicketTypePrices(t *testing.T) {
	assert.Equal(t, uint32(800), TicketChild.BasePriceCents())
	assert.Equal(t, uint32(900), TicketAdult.BasePriceCents())
	assert.Equal(t, uint32(1200), TicketSenior.BasePriceCents())
	assert.False(t, TicketType("INFANT").Valid())
	assert.Equal(t, uint32(0), TicketType("INFANT").BasePriceCents())
}

func TestPaymentCardExpired(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	current := PaymentCard{ExpMonth: 8, ExpYear: 2026}
	assert.False(t, current.Expired(now), "valid through end of its month")

	past := PaymentCard{ExpMonth: 7, ExpYear: 2026}
	assert.True(t, past.Expired(now))

	future := PaymentCard{ExpMonth: 1, ExpYear: 2027}
	assert.False(t, future.Expired(now))
}

func TestMaskCardNumber(t *testing.T) {
	last4, err := MaskCardNumber("4111111111111111")
	require.NoError(t, err)
	assert.Equal(t, "1111", last4)

	for _, bad := range []string{"", "411", "4111-1111-1111-1111", "41111111111111111111"} {
		_, err := MaskCardNumber(bad)
		assert.ErrorIs(t, err, ErrBadCardNumber, "input %q", bad)
	}
}

func TestWireShapes(t *testing.T) {
	// Responses use the same snake_case keys as request bodies.
	ticket := Ticket{ID: 1, Serial: "abc", CustomerID: 2, ScreeningSeatID: 3,
		Type: TicketAdult, Status: TicketValid, PriceCents: 900}
	raw, err := json.Marshal(ticket)
	require.NoError(t, err)
	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))
	assert.Contains(t, keys, "screening_seat_id")
	assert.Contains(t, keys, "ticket_type")
	assert.Contains(t, keys, "price_cents")
	assert.NotContains(t, keys, "payment_card_id", "nil card is omitted")

	d, err := NewDuration(2, 35)
	require.NoError(t, err)
	raw, err = json.Marshal(Movie{Title: "Heat", SearchTitle: "HEAT", Duration: d})
	require.NoError(t, err)
	var movieKeys map[string]any
	require.NoError(t, json.Unmarshal(raw, &movieKeys))
	assert.Equal(t, "2:35", movieKeys["duration"])
	assert.NotContains(t, movieKeys, "SearchTitle")

	var back Duration
	require.NoError(t, json.Unmarshal([]byte(`"2:35"`), &back))
	assert.Equal(t, d, back)
}

func TestScreeningSeatBooked(t *testing.T) {
	seat := ScreeningSeat{Row: "B", Number: 7}
	assert.False(t, seat.Booked())
	tid := uint64(42)
	seat.TicketID = &tid
	assert.True(t, seat.Booked())
}
