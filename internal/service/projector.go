package service

import (
	"context"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// ItemBookingProjector computes the last and next approved bookings of items.
// Callers must pass only items owned by the requester.
type ItemBookingProjector struct {
	store             domain.BookingStore
	promoteNextToLast bool
	now               func() time.Time
}

// NewItemBookingProjector builds a projector. With promoteNextToLast set, an
// item that has no concluded booking reports its upcoming one as last.
func NewItemBookingProjector(store domain.BookingStore, promoteNextToLast bool) *ItemBookingProjector {
	return &ItemBookingProjector{
		store:             store,
		promoteNextToLast: promoteNextToLast,
		now:               time.Now,
	}
}

// ProjectLastNext returns one entry per requested item id.
func (p *ItemBookingProjector) ProjectLastNext(ctx context.Context, itemIDs []int64) (map[int64]models.LastNext, error) {
	return p.projectAt(ctx, itemIDs, p.now().UTC())
}

func (p *ItemBookingProjector) projectAt(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]models.LastNext, error) {
	result := make(map[int64]models.LastNext, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	last, err := p.store.FindLastApproved(ctx, itemIDs, now)
	if err != nil {
		return nil, err
	}
	next, err := p.store.FindNextApproved(ctx, itemIDs, now)
	if err != nil {
		return nil, err
	}

	for _, id := range itemIDs {
		ln := models.LastNext{Last: last[id], Next: next[id]}
		if p.promoteNextToLast && ln.Last == nil && ln.Next != nil {
			ln.Last, ln.Next = ln.Next, nil
		}
		result[id] = ln
	}
	return result, nil
}
