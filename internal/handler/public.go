package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecinema/ecinema/internal/model"
	"github.com/ecinema/ecinema/internal/service"
)

// PublicHandler serves the unauthenticated browse surface: movies,
// showrooms, screenings, seat maps, public reviews and ratings.
type PublicHandler struct {
	Theater *service.TheaterService
	Catalog *service.CatalogService
	Reviews *service.ReviewService
}

func NewPublicHandler(theater *service.TheaterService, catalog *service.CatalogService, reviews *service.ReviewService) *PublicHandler {
	return &PublicHandler{Theater: theater, Catalog: catalog, Reviews: reviews}
}

// Movies handles GET /v1/movies.  With ?title=... it performs the
// format-insensitive title lookup instead of listing.
func (h *PublicHandler) Movies(c echo.Context) error {
	if title := c.QueryParam("title"); title != "" {
		movie, err := h.Catalog.FindByTitle(c.Request().Context(), title)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, []model.Movie{*movie})
	}
	movies, err := h.Catalog.Movies(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if movies == nil {
		movies = []model.Movie{}
	}
	return c.JSON(http.StatusOK, movies)
}

// Movie handles GET /v1/movies/:id.
func (h *PublicHandler) Movie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	movie, err := h.Catalog.Movie(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, movie)
}

// MovieScreenings handles GET /v1/movies/:id/screenings.
func (h *PublicHandler) MovieScreenings(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	screenings, err := h.Theater.ScreeningsByMovie(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	if screenings == nil {
		screenings = []model.Screening{}
	}
	return c.JSON(http.StatusOK, screenings)
}

// Showrooms handles GET /v1/showrooms.
func (h *PublicHandler) Showrooms(c echo.Context) error {
	rooms, err := h.Theater.Showrooms(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if rooms == nil {
		rooms = []model.Showroom{}
	}
	return c.JSON(http.StatusOK, rooms)
}

// ShowroomScreenings handles GET /v1/showrooms/:id/screenings.
func (h *PublicHandler) ShowroomScreenings(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showroom id"})
	}
	screenings, err := h.Theater.ScreeningsByShowroom(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	if screenings == nil {
		screenings = []model.Screening{}
	}
	return c.JSON(http.StatusOK, screenings)
}

// seatView is the public shape of a screening seat.
type seatView struct {
	ID     uint64 `json:"id"`
	Label  string `json:"label"`
	Booked bool   `json:"booked"`
}

// SeatMap handles GET /v1/screenings/:id/seats.
func (h *PublicHandler) SeatMap(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	seats, err := h.Theater.SeatMap(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	views := make([]seatView, len(seats))
	for i, seat := range seats {
		views[i] = seatView{ID: seat.ID, Label: seat.Label(), Booked: seat.Booked()}
	}
	return c.JSON(http.StatusOK, views)
}

// MovieReviews handles GET /v1/movies/:id/reviews, censored reviews
// filtered out.
func (h *PublicHandler) MovieReviews(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	reviews, err := h.Reviews.Reviews(c.Request().Context(), id, false)
	if err != nil {
		return respondError(c, err)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return c.JSON(http.StatusOK, reviews)
}

// MovieRating handles GET /v1/movies/:id/rating.
func (h *PublicHandler) MovieRating(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	avg, err := h.Reviews.AverageRating(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"average_rating": avg})
}
