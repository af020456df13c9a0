package api

import (
	"errors"
	"net/http"

	"shareit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrUnsupportedState),
		errors.Is(err, domain.ErrInvalidPage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders a service error. Internal errors never leak their text.
func writeServiceError(c *gin.Context, logger *zerolog.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		logger.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("request failed")
		message = "internal server error"
	case http.StatusServiceUnavailable:
		logger.Warn().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("storage unavailable")
		message = domain.ErrUnavailable.Error()
	}
	abortWithError(c, status, message)
}
