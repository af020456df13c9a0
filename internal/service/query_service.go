package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// stateQueries builds the store filter of every listing state. Both viewpoints share it.
var stateQueries = map[models.State]func(now time.Time) models.BookingQuery{
	models.StateAll: func(time.Time) models.BookingQuery {
		return models.BookingQuery{Order: models.SortStartDesc}
	},
	models.StateCurrent: func(now time.Time) models.BookingQuery {
		return models.BookingQuery{StartAtOrBefore: now, EndAfter: now, Order: models.SortStartAsc}
	},
	models.StatePast: func(now time.Time) models.BookingQuery {
		return models.BookingQuery{EndAtOrBefore: now, Order: models.SortStartDesc}
	},
	models.StateFuture: func(now time.Time) models.BookingQuery {
		return models.BookingQuery{StartAfter: now, Order: models.SortStartDesc}
	},
	models.StateWaiting: func(time.Time) models.BookingQuery {
		return models.BookingQuery{Status: models.StatusWaiting, Order: models.SortStartDesc}
	},
	models.StateRejected: func(time.Time) models.BookingQuery {
		return models.BookingQuery{Status: models.StatusRejected, Order: models.SortStartDesc}
	},
}

// AvailabilityQueryEngine serves paginated booking listings.
type AvailabilityQueryEngine struct {
	store  domain.BookingStore
	users  domain.UserLookup
	logger *zerolog.Logger
	now    func() time.Time
}

func NewAvailabilityQueryEngine(store domain.BookingStore, users domain.UserLookup, logger *zerolog.Logger) *AvailabilityQueryEngine {
	return &AvailabilityQueryEngine{
		store:  store,
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

func (e *AvailabilityQueryEngine) ListForBooker(ctx context.Context, bookerID int64, state string, from, size int) ([]*models.Booking, error) {
	return e.list(ctx, models.ViewpointBooker, bookerID, state, from, size)
}

func (e *AvailabilityQueryEngine) ListForOwner(ctx context.Context, ownerID int64, state string, from, size int) ([]*models.Booking, error) {
	return e.list(ctx, models.ViewpointOwner, ownerID, state, from, size)
}

func (e *AvailabilityQueryEngine) list(ctx context.Context, vp models.Viewpoint, userID int64, token string, from, size int) ([]*models.Booking, error) {
	state, ok := models.ParseState(token)
	if !ok {
		metrics.IncOperationError("list", errorKind(domain.ErrUnsupportedState))
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedState, strings.ToUpper(strings.TrimSpace(token)))
	}
	if size <= 0 || from < 0 {
		metrics.IncOperationError("list", errorKind(domain.ErrInvalidPage))
		return nil, fmt.Errorf("from=%d size=%d: %w", from, size, domain.ErrInvalidPage)
	}
	if _, err := e.users.GetUser(ctx, userID); err != nil {
		metrics.IncOperationError("list", errorKind(err))
		return nil, err
	}

	page := models.Page{From: from, Size: size}
	q := stateQueries[state](e.now().UTC())
	q.Viewpoint = vp
	q.UserID = userID
	q.Limit = page.Size
	q.Offset = page.Offset()

	bookings, err := e.store.FindBookings(ctx, q)
	if err != nil {
		metrics.IncOperationError("list", errorKind(err))
		return nil, err
	}

	metrics.IncListing(string(vp), string(state))
	e.logger.Debug().
		Int64("user_id", userID).
		Str("viewpoint", string(vp)).
		Str("state", string(state)).
		Int("count", len(bookings)).
		Msg("bookings listed")

	return bookings, nil
}
