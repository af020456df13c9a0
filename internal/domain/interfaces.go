package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

// BookingStore persists booking records.
type BookingStore interface {
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	// CreateBookingWithLock re-checks the item and inserts the booking in one transaction.
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	// UpdateBookingStatusWithVersion returns the updated_at value it stored.
	UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.BookingStatus) (time.Time, error)
	FindBookings(ctx context.Context, q models.BookingQuery) ([]*models.Booking, error)
	FindLastApproved(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]*models.Booking, error)
	FindNextApproved(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]*models.Booking, error)
	FindByItemAndBooker(ctx context.Context, itemID, bookerID int64, before time.Time) ([]*models.Booking, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

type ItemLookup interface {
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error)
}

// Store is everything a storage backend provides to the services.
type Store interface {
	BookingStore
	UserLookup
	ItemLookup
	CreateUser(ctx context.Context, user *models.User) error
	CreateItem(ctx context.Context, item *models.Item) error
	Close() error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type ReservationService interface {
	CreateBooking(ctx context.Context, itemID, bookerID int64, start, end time.Time) (*models.Booking, error)
	SetApproval(ctx context.Context, bookingID, approverID int64, approved bool) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID, requesterID int64) (*models.Booking, error)
	FindByItemAndBooker(ctx context.Context, itemID, bookerID int64, before time.Time) ([]*models.Booking, error)
}

type BookingQueryService interface {
	ListForBooker(ctx context.Context, bookerID int64, state string, from, size int) ([]*models.Booking, error)
	ListForOwner(ctx context.Context, ownerID int64, state string, from, size int) ([]*models.Booking, error)
}

type ItemService interface {
	ListOwnerItems(ctx context.Context, ownerID int64) ([]*models.ItemWithBookings, error)
	GetItem(ctx context.Context, itemID, requesterID int64) (*models.ItemWithBookings, error)
	CanComment(ctx context.Context, itemID, userID int64) (bool, error)
}
