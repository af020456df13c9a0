package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 12, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func createTestItem(t *testing.T, db *DB, ownerID int64, available bool) *models.Item {
	t.Helper()
	item := &models.Item{Name: "drill", Description: "cordless", Available: available, OwnerID: ownerID}
	require.NoError(t, db.CreateItem(context.Background(), item))
	return item
}

func createTestBooking(t *testing.T, db *DB, itemID, bookerID int64, start, end time.Time, status models.BookingStatus) *models.Booking {
	t.Helper()
	ctx := context.Background()
	b := &models.Booking{ItemID: itemID, BookerID: bookerID, Start: start, End: end}
	require.NoError(t, db.CreateBookingWithLock(ctx, b))
	if status != models.StatusWaiting {
		updatedAt, err := db.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, status)
		require.NoError(t, err)
		b.UpdatedAt = updatedAt
		b.Status = status
		b.Version++
	}
	return b
}

func TestNewDBFile(t *testing.T) {
	logger := zerolog.New(io.Discard)
	path := filepath.Join(t.TempDir(), "data", "shareit.db")
	db, err := NewDB(path, &logger)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	require.NoError(t, db.Close())

	// reopening keeps the schema idempotent
	db, err = NewDB(path, &logger)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "alice")
	assert.NotZero(t, user.ID)

	got, err := db.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = db.GetUser(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	fixed := &models.User{ID: 42, Name: "owner", Email: "owner@example.com"}
	require.NoError(t, db.CreateUser(ctx, fixed))
	assert.Equal(t, int64(42), fixed.ID)

	dup := &models.User{Name: "again", Email: "alice@example.com"}
	assert.Error(t, db.CreateUser(ctx, dup))
}

func TestItems(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")
	first := createTestItem(t, db, owner.ID, true)
	second := createTestItem(t, db, owner.ID, false)
	createTestItem(t, db, other.ID, true)

	got, err := db.GetItem(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.True(t, got.Available)
	assert.Nil(t, got.RequestID)

	_, err = db.GetItem(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	items, err := db.GetItemsByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)

	require.NoError(t, db.SetItemAvailable(ctx, second.ID, true))
	got, err = db.GetItem(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.ErrorIs(t, db.SetItemAvailable(ctx, 999, true), domain.ErrNotFound)

	requestID := int64(7)
	withRequest := &models.Item{Name: "tent", OwnerID: owner.ID, Available: true, RequestID: &requestID}
	require.NoError(t, db.CreateItem(ctx, withRequest))
	got, err = db.GetItem(ctx, withRequest.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RequestID)
	assert.Equal(t, int64(7), *got.RequestID)

	err = db.CreateItem(ctx, &models.Item{Name: "orphan", OwnerID: 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClosedDB(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	ctx := context.Background()
	_, err = db.GetBooking(ctx, 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	err = db.CreateBookingWithLock(ctx, &models.Booking{ItemID: 1, BookerID: 2, Start: testNow, End: testNow.Add(time.Hour)})
	assert.Error(t, err)

	_, err = db.FindBookings(ctx, models.BookingQuery{Viewpoint: models.ViewpointBooker, UserID: 1})
	assert.Error(t, err)
}
