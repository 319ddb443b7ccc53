package handler

import (
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/ecinema/ecinema/internal/model"
	"github.com/ecinema/ecinema/internal/repository"
	"github.com/ecinema/ecinema/internal/service"
)

// AdminHandler serves the ADMIN-only surface: showrooms, screenings,
// catalog, role grants and loyalty token grants.
type AdminHandler struct {
	Theater *service.TheaterService
	Catalog *service.CatalogService
	Booking *service.BookingService
	Store   *repository.Store
}

func NewAdminHandler(theater *service.TheaterService, catalog *service.CatalogService, booking *service.BookingService, store *repository.Store) *AdminHandler {
	return &AdminHandler{Theater: theater, Catalog: catalog, Booking: booking, Store: store}
}

type createShowroomReq struct {
	Letter      string `json:"letter"`
	Rows        int    `json:"rows"`
	SeatsPerRow int    `json:"seats_per_row"`
}

func (r createShowroomReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Letter, validation.Required, validation.Length(1, 1)),
		validation.Field(&r.Rows, validation.Required, validation.Min(1), validation.Max(26)),
		validation.Field(&r.SeatsPerRow, validation.Required, validation.Min(1)),
	)
}

// CreateShowroom handles POST /v1/admin/showrooms.
func (h *AdminHandler) CreateShowroom(c echo.Context) error {
	var req createShowroomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	room, err := h.Theater.DefineShowroom(c.Request().Context(), model.RoomLetter(req.Letter), req.Rows, req.SeatsPerRow)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

// DeleteShowroom handles DELETE /v1/admin/showrooms/:id.
func (h *AdminHandler) DeleteShowroom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showroom id"})
	}
	if err := h.Theater.RemoveShowroom(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type scheduleScreeningReq struct {
	MovieID    uint64    `json:"movie_id"`
	ShowroomID uint64    `json:"showroom_id"`
	ShowAt     time.Time `json:"show_at"`
}

func (r scheduleScreeningReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MovieID, validation.Required),
		validation.Field(&r.ShowroomID, validation.Required),
		validation.Field(&r.ShowAt, validation.Required),
	)
}

// ScheduleScreening handles POST /v1/admin/screenings.
func (h *AdminHandler) ScheduleScreening(c echo.Context) error {
	var req scheduleScreeningReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	sc, err := h.Theater.ScheduleScreening(c.Request().Context(), req.MovieID, req.ShowroomID, req.ShowAt)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, sc)
}

// CancelScreening handles DELETE /v1/admin/screenings/:id.
func (h *AdminHandler) CancelScreening(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	if err := h.Theater.CancelScreening(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type addMovieReq struct {
	Title       string   `json:"title"`
	Director    string   `json:"director"`
	Synopsis    string   `json:"synopsis"`
	Duration    string   `json:"duration"` // "H:MM"
	ReleaseDate string   `json:"release_date"`
	Rating      string   `json:"msrb_rating"`
	Cast        []string `json:"cast"`
	Writers     []string `json:"writers"`
	Categories  []string `json:"categories"`
}

func (r addMovieReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Duration, validation.Required),
		validation.Field(&r.ReleaseDate, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&r.Rating, validation.Required),
	)
}

// AddMovie handles POST /v1/admin/movies.
func (h *AdminHandler) AddMovie(c echo.Context) error {
	var req addMovieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	duration, err := model.ParseDuration(req.Duration)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration must look like H:MM"})
	}
	release, err := time.Parse("2006-01-02", req.ReleaseDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "release_date must look like YYYY-MM-DD"})
	}
	movie, err := h.Catalog.AddMovie(c.Request().Context(), service.MovieInput{
		Title:       req.Title,
		Director:    req.Director,
		Synopsis:    req.Synopsis,
		Duration:    duration,
		ReleaseDate: release,
		Rating:      model.MsrbRating(req.Rating),
		Cast:        req.Cast,
		Writers:     req.Writers,
		Categories:  req.Categories,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, movie)
}

// DeleteMovie handles DELETE /v1/admin/movies/:id.
func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	if err := h.Catalog.RemoveMovie(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type grantRoleReq struct {
	Role string `json:"role"`
}

// GrantRole handles POST /v1/admin/users/:id/roles.
func (h *AdminHandler) GrantRole(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req grantRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	if err := h.Store.GrantRole(c.Request().Context(), userID, role); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "grant failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// RevokeRole handles DELETE /v1/admin/users/:id/roles/:role.
func (h *AdminHandler) RevokeRole(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	role := model.Role(c.Param("role"))
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	if err := h.Store.RevokeRole(c.Request().Context(), userID, role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

type grantTokensReq struct {
	Tokens uint32 `json:"tokens"`
}

// GrantTokens handles POST /v1/admin/customers/:id/tokens.
func (h *AdminHandler) GrantTokens(c echo.Context) error {
	customerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}
	var req grantTokensReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	balance, err := h.Booking.GrantTokens(c.Request().Context(), customerID, req.Tokens)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tokens": balance})
}
