package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Reservations domain.ReservationService
	Queries      domain.BookingQueryService
	Items        domain.ItemService
	// UserLimiter throttles callers by X-Sharer-User-Id. Optional.
	UserLimiter     domain.RateLimitRepository
	DefaultPageSize int
}

// HTTPServer exposes the booking API.
type HTTPServer struct {
	cfg             config.APIConfig
	reservations    domain.ReservationService
	queries         domain.BookingQueryService
	items           domain.ItemService
	defaultPageSize int
	engine          *gin.Engine
	server          *http.Server
	logger          *zerolog.Logger
	now             func() time.Time
}

func NewHTTPServer(cfg config.APIConfig, svc Services, logger *zerolog.Logger) *HTTPServer {
	pageSize := svc.DefaultPageSize
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}

	s := &HTTPServer{
		cfg:             cfg,
		reservations:    svc.Reservations,
		queries:         svc.Queries,
		items:           svc.Items,
		defaultPageSize: pageSize,
		logger:          logger,
		now:             time.Now,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestIDMiddleware())
	engine.Use(recoveryMiddleware(logger))
	engine.Use(loggingMiddleware(logger))

	engine.GET("/healthz", s.healthz)

	auth := NewHTTPAuth(cfg)
	limits := limitSettings{limit: cfg.RateLimit.UserLimit, window: cfg.RateLimit.UserWindow}
	api := engine.Group("/", auth.Middleware(), sharerMiddleware(svc.UserLimiter, limits, logger))
	{
		bookings := api.Group("/bookings")
		bookings.POST("", s.createBooking)
		bookings.GET("", s.listForBooker)
		bookings.GET("/owner", s.listForOwner)
		bookings.GET("/:id", s.getBooking)
		bookings.PATCH("/:id", s.setApproval)

		items := api.Group("/items")
		items.GET("", s.listOwnerItems)
		items.GET("/:id", s.getItem)
		items.GET("/:id/comment-eligibility", s.canComment)
	}

	s.engine = engine
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the routed gin engine.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
