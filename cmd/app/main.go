package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/metroreserve/config"
	"github.com/Domenick1991/metroreserve/internal/auth"
	"github.com/Domenick1991/metroreserve/internal/bootstrap"
	"github.com/Domenick1991/metroreserve/internal/cache"
	"github.com/Domenick1991/metroreserve/internal/kafka"
	"github.com/Domenick1991/metroreserve/internal/repository"
	"github.com/Domenick1991/metroreserve/internal/service/booking"
	"github.com/Domenick1991/metroreserve/internal/service/passenger"
	"github.com/Domenick1991/metroreserve/internal/service/seats"
	"github.com/Domenick1991/metroreserve/internal/service/selection"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	price, err := cfg.Booking.Price()
	if err != nil {
		logger.Fatalf("seat price: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SeatsCacheDuration(), cfg.Booking.SelectionTTL())
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		logger.WithError(err).Warn("kafka unavailable at startup")
	}

	seatRepo := repository.NewSeatRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	passengerRepo := repository.NewPassengerRepository(pool)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	bookingService := booking.NewBookingService(
		bookingRepo,
		seatRepo,
		passengerRepo,
		price,
		booking.WithCache(redisCache),
		booking.WithSelection(redisCache),
		booking.WithProducer(producer, cfg.Kafka.BookingTopic),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithTicketValidity(cfg.Booking.TicketValidity()),
		booking.WithLogger(logger),
	)

	router := bootstrap.NewRouter(cfg, bootstrap.Services{
		Seats:      seats.NewSeatService(seatRepo, passengerRepo, redisCache, logger),
		Selection:  selection.NewSelectionService(redisCache, seatRepo, passengerRepo),
		Bookings:   bookingService,
		Passengers: passenger.NewPassengerService(passengerRepo, tokens, cfg.Auth.BcryptCost, cfg.Auth.AdminEmails, logger),
		Tokens:     tokens,
		Checks: map[string]func(context.Context) error{
			"postgres": pool.Ping,
			"redis":    redisCache.Ping,
			"kafka":    producer.CheckConnection,
		},
	}, logger)

	if err := bootstrap.Run(ctx, cfg, router, logger); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
