package handler

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/ecinema/ecinema/internal/model"
	"github.com/ecinema/ecinema/internal/service"
)

// ReviewHandler serves review submission, voting and the moderator
// censorship surface.
type ReviewHandler struct {
	Reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews}
}

type submitReviewReq struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func (r submitReviewReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rating, validation.Min(model.MinRating), validation.Max(model.MaxRating)),
		validation.Field(&r.Text, validation.Length(0, 4000)),
	)
}

// SubmitReview handles POST /v1/movies/:id/reviews.
func (h *ReviewHandler) SubmitReview(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var req submitReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	review, err := h.Reviews.SubmitReview(c.Request().Context(), userID, movieID, req.Rating, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, review)
}

// UpdateReview handles PUT /v1/reviews/:id.
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviewID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	var req submitReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Reviews.UpdateReview(c.Request().Context(), userID, reviewID, req.Rating, req.Text); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type castVoteReq struct {
	Vote string `json:"vote"`
}

func (r castVoteReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Vote, validation.Required, validation.In("UPVOTE", "DOWNVOTE")),
	)
}

// CastVote handles POST /v1/reviews/:id/votes.
func (h *ReviewHandler) CastVote(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviewID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	var req castVoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Reviews.CastVote(c.Request().Context(), userID, reviewID, model.Vote(req.Vote)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// VoteTally handles GET /v1/reviews/:id/votes.
func (h *ReviewHandler) VoteTally(c echo.Context) error {
	reviewID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	up, down, err := h.Reviews.VoteTally(c.Request().Context(), reviewID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"upvotes": up, "downvotes": down})
}

// Censor handles POST /v1/mod/reviews/:id/censor.
func (h *ReviewHandler) Censor(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviewID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	if err := h.Reviews.Censor(c.Request().Context(), userID, reviewID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Uncensor handles DELETE /v1/mod/reviews/:id/censor.
func (h *ReviewHandler) Uncensor(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviewID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	if err := h.Reviews.Uncensor(c.Request().Context(), userID, reviewID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CensorCustomer handles POST /v1/mod/customers/:id/censor.
func (h *ReviewHandler) CensorCustomer(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	customerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}
	if err := h.Reviews.CensorCustomer(c.Request().Context(), userID, customerID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UncensorCustomer handles DELETE /v1/mod/customers/:id/censor.
func (h *ReviewHandler) UncensorCustomer(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	customerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}
	if err := h.Reviews.UncensorCustomer(c.Request().Context(), userID, customerID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ModReviews handles GET /v1/mod/movies/:id/reviews, the moderation
// view with censored reviews included.
func (h *ReviewHandler) ModReviews(c echo.Context) error {
	movieID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	reviews, err := h.Reviews.Reviews(c.Request().Context(), movieID, true)
	if err != nil {
		return respondError(c, err)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return c.JSON(http.StatusOK, reviews)
}
