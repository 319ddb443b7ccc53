package handler

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/ecinema/ecinema/internal/model"
	"github.com/ecinema/ecinema/internal/service"
)

// CustomerHandler serves the authenticated customer surface: booking,
// refunds, tickets, payment cards and the token balance.
type CustomerHandler struct {
	Booking *service.BookingService
}

func NewCustomerHandler(booking *service.BookingService) *CustomerHandler {
	return &CustomerHandler{Booking: booking}
}

type bookSeatReq struct {
	ScreeningSeatID uint64  `json:"screening_seat_id"`
	TicketType      string  `json:"ticket_type"`
	PaymentCardID   *uint64 `json:"payment_card_id"`
	Tokens          uint32  `json:"tokens"`
}

func (r bookSeatReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ScreeningSeatID, validation.Required),
		validation.Field(&r.TicketType, validation.Required,
			validation.In("CHILD", "ADULT", "SENIOR")),
	)
}

// BookSeat handles POST /v1/bookings.
func (h *CustomerHandler) BookSeat(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookSeatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ticket, err := h.Booking.BookSeat(c.Request().Context(), userID, req.ScreeningSeatID,
		model.TicketType(req.TicketType), req.PaymentCardID, req.Tokens)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, ticket)
}

// RefundTicket handles POST /v1/tickets/:id/refund.
func (h *CustomerHandler) RefundTicket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	if err := h.Booking.RefundTicket(c.Request().Context(), ticketID, userID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Ticket handles GET /v1/tickets/:id.
func (h *CustomerHandler) Ticket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ticket, err := h.Booking.Ticket(c.Request().Context(), userID, ticketID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// Tickets handles GET /v1/tickets.
func (h *CustomerHandler) Tickets(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tickets, err := h.Booking.Tickets(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	return c.JSON(http.StatusOK, tickets)
}

// Balance handles GET /v1/tokens.
func (h *CustomerHandler) Balance(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	balance, err := h.Booking.Balance(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tokens": balance})
}

type addCardReq struct {
	Number   string `json:"number"`
	Billing  string `json:"billing_address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zipcode"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

func (r addCardReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Number, validation.Required),
		validation.Field(&r.ExpMonth, validation.Required, validation.Min(1), validation.Max(12)),
		validation.Field(&r.ExpYear, validation.Required, validation.Min(2000)),
	)
}

// AddCard handles POST /v1/cards.
func (h *CustomerHandler) AddCard(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addCardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	card, err := h.Booking.AddCard(c.Request().Context(), userID, req.Number,
		req.Billing, req.City, req.State, req.Zip, req.ExpMonth, req.ExpYear)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, card)
}

// Cards handles GET /v1/cards.
func (h *CustomerHandler) Cards(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cards, err := h.Booking.Cards(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	if cards == nil {
		cards = []model.PaymentCard{}
	}
	return c.JSON(http.StatusOK, cards)
}

// RemoveCard handles DELETE /v1/cards/:id.
func (h *CustomerHandler) RemoveCard(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cardID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid card id"})
	}
	if err := h.Booking.RemoveCard(c.Request().Context(), userID, cardID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
