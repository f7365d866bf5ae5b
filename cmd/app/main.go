package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/skybook/api"
	"github.com/Domenick1991/skybook/config"
	"github.com/Domenick1991/skybook/internal/auth"
	"github.com/Domenick1991/skybook/internal/bootstrap"
	"github.com/Domenick1991/skybook/internal/cache"
	"github.com/Domenick1991/skybook/internal/database"
	"github.com/Domenick1991/skybook/internal/events"
	"github.com/Domenick1991/skybook/internal/kafka"
	"github.com/Domenick1991/skybook/internal/logging"
	"github.com/Domenick1991/skybook/internal/middleware"
	"github.com/Domenick1991/skybook/internal/rabbitmq"
	"github.com/Domenick1991/skybook/internal/repository"
	"github.com/Domenick1991/skybook/internal/seed"
	authservice "github.com/Domenick1991/skybook/internal/service/auth"
	"github.com/Domenick1991/skybook/internal/service/booking"
	"github.com/Domenick1991/skybook/internal/service/flights"
	"github.com/Domenick1991/skybook/internal/service/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := database.NewMigrator(pool, logger)
	if err != nil {
		logger.Fatal("init migrator", zap.Error(err))
	}
	if err := migrator.Up(ctx); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}
	_ = migrator.Close()

	userRepo := repository.NewUserRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	if cfg.Seed.Enabled {
		if err := seed.Run(ctx, userRepo, flightRepo, cfg.Auth.BcryptCost, logger.Named("seed")); err != nil {
			logger.Error("seed data", zap.Error(err))
		}
	}

	rdb := cache.NewRedisClient(cfg.Redis)
	defer rdb.Close()
	redisCache := cache.NewRedisCache(rdb, cfg.Booking.FlightsCacheTTL)

	publisher, bookingTopic, closePublisher := newPublisher(ctx, cfg, logger)
	defer closePublisher()

	var bookingOpts []booking.BookingServiceOption
	bookingOpts = append(bookingOpts,
		booking.WithFlatFee(cfg.Booking.FlatFee),
		booking.WithSeatHoldTTL(cfg.Booking.SeatHoldTTL),
	)
	if cfg.Events.Broker == config.BrokerKafka {
		bookingOpts = append(bookingOpts, booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := authservice.NewAuthService(userRepo, tokens, cfg.Auth.BcryptCost, logger)
	userService := users.NewUserService(userRepo, logger, users.WithFlightCache(redisCache))
	flightService := flights.NewFlightService(flightRepo, redisCache, logger,
		flights.WithPageLimits(cfg.Catalog.DefaultLimit, cfg.Catalog.MaxLimit))
	bookingService := booking.NewBookingService(
		bookingRepo,
		flightRepo,
		redisCache,
		publisher,
		bookingTopic,
		logger,
		bookingOpts...,
	)

	router := api.NewRouter(api.RouterDeps{
		Logger:    logger,
		ClientURL: cfg.HTTP.ClientURL,
		Auth:      authService,
		Flights:   flightService,
		Bookings:  bookingService,
		Users:     userService,
		RateLimit: middleware.RateLimit(cfg.RateLimit, rdb, logger),
	})

	if err := bootstrap.Run(ctx, cfg, router, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newPublisher picks the booking event transport. An unreachable RabbitMQ
// falls back to dropping events.
func newPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (events.Publisher, string, func()) {
	switch cfg.Events.Broker {
	case config.BrokerKafka:
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := producer.CheckConnection(checkCtx); err != nil {
			logger.Warn("kafka unavailable at startup", zap.Error(err))
		}
		return producer, cfg.Kafka.BookingTopic, func() { _ = producer.Close() }
	case config.BrokerRabbitMQ:
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable, booking events disabled", zap.Error(err))
			return events.Nop{}, cfg.RabbitMQ.Queue, func() {}
		}
		return publisher, cfg.RabbitMQ.Queue, func() { _ = publisher.Close() }
	default:
		return events.Nop{}, "", func() {}
	}
}
