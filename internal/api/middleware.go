package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
	sharerIDKey     = "sharer_id"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func recoveryMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error().
			Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Msg("panic recovered")
		abortWithError(c, http.StatusInternalServerError, "internal server error")
	})
}

func loggingMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		dur := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.IncHTTP(route, strconv.Itoa(status))

		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", dur).
			Msg("http request")
	}
}

// sharerMiddleware resolves the caller id header and applies the per-caller window.
func sharerMiddleware(limiter domain.RateLimitRepository, cfg limitSettings, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(models.SharerUserHeader))
		if raw == "" {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("%s header is required", models.SharerUserHeader))
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("invalid %s header: %s", models.SharerUserHeader, raw))
			return
		}
		c.Set(sharerIDKey, id)

		if limiter != nil && cfg.limit > 0 {
			allowed, err := limiter.CheckRateLimit(c.Request.Context(), id, cfg.limit, cfg.window)
			if err != nil {
				logger.Warn().Err(err).Int64("user_id", id).Msg("rate limit check failed")
			} else if !allowed {
				abortWithError(c, http.StatusTooManyRequests, errRateLimitExceeded.Error())
				return
			}
		}

		c.Next()
	}
}

type limitSettings struct {
	limit  int
	window time.Duration
}

func sharerID(c *gin.Context) int64 {
	return c.GetInt64(sharerIDKey)
}
