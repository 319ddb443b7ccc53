// Package router registers every route and its middleware chain.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ecinema/ecinema/internal/handler"
	"github.com/ecinema/ecinema/internal/middleware"
	"github.com/ecinema/ecinema/internal/model"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Admin    *handler.AdminHandler
	Customer *handler.CustomerHandler
	Review   *handler.ReviewHandler
	Public   *handler.PublicHandler
}

// Register mounts all routes on e.  Public browse endpoints carry no
// auth; the customer surface requires a valid token with CUSTOMER
// authority; moderation requires MODERATOR or ADMIN; administration
// requires ADMIN.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	// Session endpoints.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout, middleware.JWTAuth(jwtSecret))

	// Public browse.
	e.GET("/v1/movies", h.Public.Movies)
	e.GET("/v1/movies/:id", h.Public.Movie)
	e.GET("/v1/movies/:id/screenings", h.Public.MovieScreenings)
	e.GET("/v1/movies/:id/reviews", h.Public.MovieReviews)
	e.GET("/v1/movies/:id/rating", h.Public.MovieRating)
	e.GET("/v1/showrooms", h.Public.Showrooms)
	e.GET("/v1/showrooms/:id/screenings", h.Public.ShowroomScreenings)
	e.GET("/v1/screenings/:id/seats", h.Public.SeatMap)
	e.GET("/v1/reviews/:id/votes", h.Review.VoteTally)

	// Customer surface.
	customer := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(string(model.RoleCustomer)))
	customer.POST("/bookings", h.Customer.BookSeat)
	customer.GET("/tickets", h.Customer.Tickets)
	customer.GET("/tickets/:id", h.Customer.Ticket)
	customer.POST("/tickets/:id/refund", h.Customer.RefundTicket)
	customer.GET("/tokens", h.Customer.Balance)
	customer.POST("/cards", h.Customer.AddCard)
	customer.GET("/cards", h.Customer.Cards)
	customer.DELETE("/cards/:id", h.Customer.RemoveCard)
	customer.POST("/movies/:id/reviews", h.Review.SubmitReview)
	customer.PUT("/reviews/:id", h.Review.UpdateReview)
	customer.POST("/reviews/:id/votes", h.Review.CastVote)

	// Moderation.
	mod := e.Group("/v1/mod",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(string(model.RoleModerator), string(model.RoleAdmin)))
	mod.POST("/reviews/:id/censor", h.Review.Censor)
	mod.DELETE("/reviews/:id/censor", h.Review.Uncensor)
	mod.POST("/customers/:id/censor", h.Review.CensorCustomer)
	mod.DELETE("/customers/:id/censor", h.Review.UncensorCustomer)
	mod.GET("/movies/:id/reviews", h.Review.ModReviews)

	// Administration.
	admin := e.Group("/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(string(model.RoleAdmin)))
	admin.POST("/showrooms", h.Admin.CreateShowroom)
	admin.DELETE("/showrooms/:id", h.Admin.DeleteShowroom)
	admin.POST("/screenings", h.Admin.ScheduleScreening)
	admin.DELETE("/screenings/:id", h.Admin.CancelScreening)
	admin.POST("/movies", h.Admin.AddMovie)
	admin.DELETE("/movies/:id", h.Admin.DeleteMovie)
	admin.POST("/users/:id/roles", h.Admin.GrantRole)
	admin.DELETE("/users/:id/roles/:role", h.Admin.RevokeRole)
	admin.POST("/customers/:id/tokens", h.Admin.GrantTokens)
}
