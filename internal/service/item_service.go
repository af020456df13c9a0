package service

import (
	"context"
	"sort"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// ItemService exposes items with owner-only booking summaries.
type ItemService struct {
	items     domain.ItemLookup
	users     domain.UserLookup
	bookings  domain.BookingStore
	projector *ItemBookingProjector
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewItemService(
	items domain.ItemLookup,
	users domain.UserLookup,
	bookings domain.BookingStore,
	projector *ItemBookingProjector,
	logger *zerolog.Logger,
) *ItemService {
	return &ItemService{
		items:     items,
		users:     users,
		bookings:  bookings,
		projector: projector,
		logger:    logger,
		now:       time.Now,
	}
}

// ListOwnerItems returns the owner's items, soonest next booking first.
func (s *ItemService) ListOwnerItems(ctx context.Context, ownerID int64) ([]*models.ItemWithBookings, error) {
	if _, err := s.users.GetUser(ctx, ownerID); err != nil {
		return nil, err
	}

	items, err := s.items.GetItemsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	projections, err := s.projector.ProjectLastNext(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*models.ItemWithBookings, 0, len(items))
	for _, item := range items {
		ln := projections[item.ID]
		result = append(result, &models.ItemWithBookings{
			Item:        *item,
			LastBooking: models.ShortOf(ln.Last),
			NextBooking: models.ShortOf(ln.Next),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].NextBooking, result[j].NextBooking
		switch {
		case a != nil && b != nil && !a.Start.Equal(b.Start):
			return a.Start.Before(b.Start)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return result[i].ID < result[j].ID
	})

	s.logger.Debug().Int64("user_id", ownerID).Int("count", len(result)).Msg("owner items listed")
	return result, nil
}

// GetItem returns the item. Only its owner sees the last and next bookings.
func (s *ItemService) GetItem(ctx context.Context, itemID, requesterID int64) (*models.ItemWithBookings, error) {
	if _, err := s.users.GetUser(ctx, requesterID); err != nil {
		return nil, err
	}

	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	view := &models.ItemWithBookings{Item: *item}
	if item.OwnerID != requesterID {
		return view, nil
	}

	projections, err := s.projector.ProjectLastNext(ctx, []int64{item.ID})
	if err != nil {
		return nil, err
	}
	ln := projections[item.ID]
	view.LastBooking = models.ShortOf(ln.Last)
	view.NextBooking = models.ShortOf(ln.Next)
	return view, nil
}

// CanComment reports whether the user has a booking of the item that already ended.
func (s *ItemService) CanComment(ctx context.Context, itemID, userID int64) (bool, error) {
	if _, err := s.items.GetItem(ctx, itemID); err != nil {
		return false, err
	}

	bookings, err := s.bookings.FindByItemAndBooker(ctx, itemID, userID, s.now().UTC())
	if err != nil {
		return false, err
	}
	return len(bookings) > 0, nil
}
