package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ecinema/ecinema/internal/config"
	"github.com/ecinema/ecinema/internal/database"
	"github.com/ecinema/ecinema/internal/handler"
	"github.com/ecinema/ecinema/internal/middleware"
	"github.com/ecinema/ecinema/internal/queue"
	"github.com/ecinema/ecinema/internal/repository"
	"github.com/ecinema/ecinema/internal/router"
	"github.com/ecinema/ecinema/internal/service"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unreachable, rate limiting and rating cache disabled")
	}

	store := repository.NewStore(db)
	publisher := queue.NewPublisher(cfg.RabbitURL, log)
	go queue.StartConsumer(cfg.RabbitURL, log)

	theater := service.NewTheaterService(store, log)
	catalog := service.NewCatalogService(store, log)
	booking := service.NewBookingService(store, publisher, service.BookingConfig{
		TokenValueCents: cfg.TokenValueCents,
		MaxCards:        cfg.MaxPaymentCards,
	}, log)
	reviews := service.NewReviewService(store, rdb, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, store),
		Admin:    handler.NewAdminHandler(theater, catalog, booking, store),
		Customer: handler.NewCustomerHandler(booking),
		Review:   handler.NewReviewHandler(reviews),
		Public:   handler.NewPublicHandler(theater, catalog, reviews),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
