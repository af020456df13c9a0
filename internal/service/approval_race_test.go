package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetApprovalRaceSQLite(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(filepath.Join(t.TempDir(), "race.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	owner := &models.User{Name: "owner", Email: "owner@example.com"}
	booker := &models.User{Name: "booker", Email: "booker@example.com"}
	require.NoError(t, db.CreateUser(ctx, owner))
	require.NoError(t, db.CreateUser(ctx, booker))
	item := &models.Item{Name: "drill", Available: true, OwnerID: owner.ID}
	require.NoError(t, db.CreateItem(ctx, item))

	bus := events.NewEventBus()
	var (
		mu        sync.Mutex
		published []string
	)
	for _, et := range []string{events.EventBookingApproved, events.EventBookingRejected} {
		bus.Subscribe(et, func(e *events.Event) error {
			mu.Lock()
			published = append(published, e.Type)
			mu.Unlock()
			return nil
		})
	}

	svc := NewReservationService(db, db, db, bus, time.Millisecond, &logger)
	booking, err := svc.CreateBooking(ctx, item.ID, booker.ID, bookingStart, bookingEnd)
	require.NoError(t, err)

	const workers = 10
	var (
		wg        sync.WaitGroup
		successes int
		conflicts int
		others    []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.SetApproval(ctx, booking.ID, owner.ID, true)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, []string{events.EventBookingApproved}, published)

	stored, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
}

func TestCreateBookingSQLiteScenarios(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	owner := &models.User{Name: "owner", Email: "owner@example.com"}
	booker := &models.User{Name: "booker", Email: "booker@example.com"}
	require.NoError(t, db.CreateUser(ctx, owner))
	require.NoError(t, db.CreateUser(ctx, booker))
	available := &models.Item{Name: "drill", Available: true, OwnerID: owner.ID}
	hidden := &models.Item{Name: "saw", Available: false, OwnerID: owner.ID}
	require.NoError(t, db.CreateItem(ctx, available))
	require.NoError(t, db.CreateItem(ctx, hidden))

	svc := NewReservationService(db, db, db, nil, time.Millisecond, &logger)

	_, err = svc.CreateBooking(ctx, available.ID, owner.ID, bookingStart, bookingEnd)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.CreateBooking(ctx, hidden.ID, booker.ID, bookingStart, bookingEnd)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.CreateBooking(ctx, available.ID, booker.ID, bookingEnd, bookingStart)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	all, err := db.FindBookings(ctx, models.BookingQuery{Viewpoint: models.ViewpointOwner, UserID: owner.ID, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, all)

	b, err := svc.CreateBooking(ctx, available.ID, booker.ID, bookingStart, bookingEnd)
	require.NoError(t, err)

	_, err = svc.SetApproval(ctx, b.ID, booker.ID, true)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := svc.SetApproval(ctx, b.ID, owner.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)

	_, err = svc.SetApproval(ctx, b.ID, owner.ID, true)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestListBookingsPartitionAtEndSQLite(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	owner := &models.User{Name: "owner", Email: "owner@example.com"}
	booker := &models.User{Name: "booker", Email: "booker@example.com"}
	require.NoError(t, db.CreateUser(ctx, owner))
	require.NoError(t, db.CreateUser(ctx, booker))
	item := &models.Item{Name: "drill", Available: true, OwnerID: owner.ID}
	require.NoError(t, db.CreateItem(ctx, item))

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	endsNow := &models.Booking{ItemID: item.ID, BookerID: booker.ID, Start: now.Add(-time.Hour), End: now}
	startsNow := &models.Booking{ItemID: item.ID, BookerID: booker.ID, Start: now, End: now.Add(time.Hour)}
	require.NoError(t, db.CreateBookingWithLock(ctx, endsNow))
	require.NoError(t, db.CreateBookingWithLock(ctx, startsNow))

	engine := NewAvailabilityQueryEngine(db, db, &logger)
	engine.now = func() time.Time { return now }

	ids := func(state string) []int64 {
		got, err := engine.ListForBooker(ctx, booker.ID, state, 0, 10)
		require.NoError(t, err)
		out := make([]int64, 0, len(got))
		for _, b := range got {
			out = append(out, b.ID)
		}
		return out
	}

	assert.Equal(t, []int64{endsNow.ID}, ids("PAST"))
	assert.Equal(t, []int64{startsNow.ID}, ids("CURRENT"))
	assert.Empty(t, ids("FUTURE"))
}
