package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
)

// Timestamp accepts RFC 3339 values and zone-less local date-times, read as UTC.
type Timestamp struct {
	time.Time
}

const localDateTime = "2006-01-02T15:04:05"

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	parsed, err := time.ParseInLocation(localDateTime, raw, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", raw)
	}
	t.Time = parsed
	return nil
}

type createBookingRequest struct {
	ItemID *int64     `json:"itemId" binding:"required"`
	Start  *Timestamp `json:"start" binding:"required"`
	End    *Timestamp `json:"end" binding:"required"`
}

func (s *HTTPServer) createBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	now := s.now()
	if req.Start.Before(now) || req.End.Before(now) {
		abortWithError(c, http.StatusBadRequest, "start and end must not be in the past")
		return
	}

	booking, err := s.reservations.CreateBooking(c.Request.Context(), *req.ItemID, sharerID(c), req.Start.Time, req.End.Time)
	if err != nil {
		writeServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (s *HTTPServer) setApproval(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	approved, err := strconv.ParseBool(c.Query("approved"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "approved must be true or false")
		return
	}

	booking, err := s.reservations.SetApproval(c.Request.Context(), id, sharerID(c), approved)
	if err != nil {
		writeServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (s *HTTPServer) getBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	booking, err := s.reservations.GetBooking(c.Request.Context(), id, sharerID(c))
	if err != nil {
		writeServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (s *HTTPServer) listForBooker(c *gin.Context) {
	s.listBookings(c, s.queries.ListForBooker)
}

func (s *HTTPServer) listForOwner(c *gin.Context) {
	s.listBookings(c, s.queries.ListForOwner)
}

type listFunc func(ctx context.Context, userID int64, state string, from, size int) ([]*models.Booking, error)

func (s *HTTPServer) listBookings(c *gin.Context, list listFunc) {
	state := c.DefaultQuery("state", string(models.StateAll))
	from, err := queryInt(c, "from", 0)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := queryInt(c, "size", s.defaultPageSize)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if size > models.MaxPageSize {
		size = models.MaxPageSize
	}

	bookings, err := list(c.Request.Context(), sharerID(c), state, from, size)
	if errors.Is(err, domain.ErrUnsupportedState) {
		abortWithError(c, http.StatusBadRequest, "Unknown state: "+strings.ToUpper(strings.TrimSpace(state)))
		return
	}
	if err != nil {
		writeServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (s *HTTPServer) listOwnerItems(c *gin.Context) {
	items, err := s.items.ListOwnerItems(c.Request.Context(), sharerID(c))
	if err != nil {
		writeServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *HTTPServer) getItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	item, err := s.items.GetItem(c.Request.Context(), id, sharerID(c))
	if err != nil {
		writeServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *HTTPServer) canComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	allowed, err := s.items.CanComment(c.Request.Context(), id, sharerID(c))
	if err != nil {
		writeServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"itemId": id, "canComment": allowed})
}

func (s *HTTPServer) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("invalid id: %s", c.Param("id")))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}
