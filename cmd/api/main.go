package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/database/gormstore"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/fixtures"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, sqliteDB, err := initStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if seedPath := os.Getenv("SEED_PATH"); seedPath != "" {
		res, err := fixtures.LoadAndApply(ctx, store, seedPath)
		if err != nil {
			logger.Error().Err(err).Str("seed_path", seedPath).Msg("apply seed")
			return err
		}
		logger.Info().Int("users", res.Users).Int("items", res.Items).Msg("seed applied")
	}

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, closePublisher := initEvents(cfg, logger)
	defer closePublisher()

	metrics.Register()

	projector := service.NewItemBookingProjector(store, cfg.Booking.PromoteNextToLastEnabled())
	services := api.Services{
		Reservations: service.NewReservationService(store, store, store, publisher, cfg.Booking.RetryDelay,
			logging.Component(logger, "reservations")),
		Queries:         service.NewAvailabilityQueryEngine(store, store, logging.Component(logger, "queries")),
		Items:           service.NewItemService(store, store, store, projector, logging.Component(logger, "items")),
		UserLimiter:     initUserLimiter(redisClient, logger),
		DefaultPageSize: cfg.Booking.DefaultPageSize,
	}

	if sqliteDB != nil && cfg.Backup.Enabled {
		backups := database.NewBackupService(sqliteDB, cfg.Backup, logging.Component(logger, "backup"))
		go backups.Start(ctx)
	}

	startMetrics(ctx, cfg, logger)

	httpServer := api.NewHTTPServer(cfg.API, services, logging.Component(logger, "http"))
	return startServer(ctx, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

// initStore opens the configured backend. The SQLite handle is returned
// separately because only that backend supports file backups.
func initStore(cfg *config.Config, logger *zerolog.Logger) (domain.Store, *database.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err := gormstore.Open(cfg.Database.Postgres, logging.Component(logger, "postgres"))
		if err != nil {
			logger.Error().Err(err).Str("host", cfg.Database.Postgres.Host).Msg("init postgres")
			return nil, nil, err
		}
		logger.Info().Str("host", cfg.Database.Postgres.Host).Msg("postgres connected")
		return store, nil, nil
	default:
		db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "sqlite"))
		if err != nil {
			logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
			return nil, nil, err
		}
		return db, db, nil
	}
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = repository.Close(redisClient)
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initUserLimiter(redisClient *redis.Client, logger *zerolog.Logger) domain.RateLimitRepository {
	memory := repository.NewMemoryRateLimiter()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverRateLimiter(
		repository.NewRedisRateLimiter(redisClient),
		memory,
		logging.Component(logger, "rate-limit"),
	)
}

func initEvents(cfg *config.Config, logger *zerolog.Logger) (domain.EventPublisher, func()) {
	bus := events.NewEventBus()
	eventLogger := logging.Component(logger, "events")
	for _, et := range []string{events.EventBookingCreated, events.EventBookingApproved, events.EventBookingRejected} {
		bus.Subscribe(et, func(e *events.Event) error {
			eventLogger.Debug().Str("event_type", e.Type).RawJSON("payload", e.Payload).Msg("booking event")
			return nil
		})
	}

	if !cfg.Kafka.Enabled() {
		return bus, func() {}
	}

	kafka := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID, eventLogger)
	logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka publisher enabled")
	return events.Fanout{bus, kafka}, func() {
		if err := kafka.Close(); err != nil {
			logger.Warn().Err(err).Msg("close kafka publisher")
		}
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server forced shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
