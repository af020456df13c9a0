package api

import (
	"context"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockReservations struct {
	mock.Mock
}

func (m *mockReservations) CreateBooking(ctx context.Context, itemID, bookerID int64, start, end time.Time) (*models.Booking, error) {
	args := m.Called(ctx, itemID, bookerID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockReservations) SetApproval(ctx context.Context, bookingID, approverID int64, approved bool) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, approverID, approved)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockReservations) GetBooking(ctx context.Context, bookingID, requesterID int64) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockReservations) FindByItemAndBooker(ctx context.Context, itemID, bookerID int64, before time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, itemID, bookerID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

type mockQueries struct {
	mock.Mock
}

func (m *mockQueries) ListForBooker(ctx context.Context, id int64, state string, from, size int) ([]*models.Booking, error) {
	args := m.Called(ctx, id, state, from, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockQueries) ListForOwner(ctx context.Context, id int64, state string, from, size int) ([]*models.Booking, error) {
	args := m.Called(ctx, id, state, from, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

type mockItems struct {
	mock.Mock
}

func (m *mockItems) ListOwnerItems(ctx context.Context, ownerID int64) ([]*models.ItemWithBookings, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ItemWithBookings), args.Error(1)
}
func (m *mockItems) GetItem(ctx context.Context, itemID, requesterID int64) (*models.ItemWithBookings, error) {
	args := m.Called(ctx, itemID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ItemWithBookings), args.Error(1)
}
func (m *mockItems) CanComment(ctx context.Context, itemID, userID int64) (bool, error) {
	args := m.Called(ctx, itemID, userID)
	return args.Bool(0), args.Error(1)
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}
