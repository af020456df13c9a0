package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// ReservationService is the only writer of bookings.
type ReservationService struct {
	store     domain.BookingStore
	users     domain.UserLookup
	items     domain.ItemLookup
	publisher domain.EventPublisher
	retry     RetryPolicy
	logger    *zerolog.Logger
}

func NewReservationService(
	store domain.BookingStore,
	users domain.UserLookup,
	items domain.ItemLookup,
	publisher domain.EventPublisher,
	retryDelay time.Duration,
	logger *zerolog.Logger,
) *ReservationService {
	return &ReservationService{
		store:     store,
		users:     users,
		items:     items,
		publisher: publisher,
		retry:     storeRetry(retryDelay),
		logger:    logger,
	}
}

// CreateBooking validates the request and stores a WAITING booking.
func (s *ReservationService) CreateBooking(ctx context.Context, itemID, bookerID int64, start, end time.Time) (*models.Booking, error) {
	if !start.Before(end) {
		metrics.IncOperationError("create", errorKind(domain.ErrInvalidRange))
		return nil, domain.ErrInvalidRange
	}

	var (
		booking *models.Booking
		item    *models.Item
	)
	err := s.retry.Do(ctx, func() error {
		if _, err := s.users.GetUser(ctx, bookerID); err != nil {
			return err
		}

		var err error
		item, err = s.items.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID == bookerID {
			return fmt.Errorf("owner cannot book own item %d: %w", itemID, domain.ErrForbidden)
		}
		if !item.Available {
			return fmt.Errorf("item %d is not available: %w", itemID, domain.ErrConflict)
		}

		// Повторная проверка вещи выполняется внутри транзакции хранилища
		booking = &models.Booking{
			ItemID:   itemID,
			BookerID: bookerID,
			Start:    start,
			End:      end,
			Status:   models.StatusWaiting,
		}
		return s.store.CreateBookingWithLock(ctx, booking)
	})
	if err != nil {
		metrics.IncOperationError("create", errorKind(err))
		return nil, err
	}

	metrics.IncBookingCreated()
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", itemID).
		Int64("user_id", bookerID).
		Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking, item.OwnerID, bookerID)

	return booking, nil
}

// SetApproval moves a booking to APPROVED or REJECTED on behalf of the item owner.
// A concurrent decision that commits first makes this call fail with ErrConflict.
func (s *ReservationService) SetApproval(ctx context.Context, bookingID, approverID int64, approved bool) (*models.Booking, error) {
	target := models.StatusFor(approved)

	var (
		booking   *models.Booking
		item      *models.Item
		updatedAt time.Time
	)
	err := s.retry.Do(ctx, func() error {
		var err error
		booking, err = s.store.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		item, err = s.items.GetItem(ctx, booking.ItemID)
		if err != nil {
			return err
		}
		if item.OwnerID != approverID {
			return fmt.Errorf("user %d does not own item %d: %w", approverID, item.ID, domain.ErrForbidden)
		}
		if booking.Status == target {
			return fmt.Errorf("booking %d already %s: %w", bookingID, target, domain.ErrConflict)
		}

		updatedAt, err = s.store.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, target)
		if errors.Is(err, domain.ErrConcurrentModification) {
			return fmt.Errorf("booking %d decided concurrently: %w", bookingID, domain.ErrConflict)
		}
		return err
	})
	if err != nil {
		metrics.IncOperationError("approve", errorKind(err))
		return nil, err
	}

	booking.Status = target
	booking.Version++
	booking.UpdatedAt = updatedAt

	metrics.IncDecision(target.String())
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("user_id", approverID).
		Str("status", target.String()).
		Msg("booking decision stored")

	eventType := events.EventBookingRejected
	if approved {
		eventType = events.EventBookingApproved
	}
	s.publishEvent(eventType, booking, item.OwnerID, approverID)

	return booking, nil
}

// GetBooking returns a booking to its booker or to the owner of its item.
func (s *ReservationService) GetBooking(ctx context.Context, bookingID, requesterID int64) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.BookerID == requesterID {
		return booking, nil
	}

	item, err := s.items.GetItem(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != requesterID {
		return nil, fmt.Errorf("user %d cannot view booking %d: %w", requesterID, bookingID, domain.ErrForbidden)
	}
	return booking, nil
}

// FindByItemAndBooker lists the booker's bookings of an item that ended before the given instant.
func (s *ReservationService) FindByItemAndBooker(ctx context.Context, itemID, bookerID int64, before time.Time) ([]*models.Booking, error) {
	return s.store.FindByItemAndBooker(ctx, itemID, bookerID, before)
}

func (s *ReservationService) publishEvent(eventType string, booking *models.Booking, ownerID, changedBy int64) {
	if s.publisher == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		ItemID:      booking.ItemID,
		BookerID:    booking.BookerID,
		OwnerID:     ownerID,
		Status:      booking.Status.String(),
		Start:       booking.Start,
		End:         booking.End,
		ChangedByID: changedBy,
	}

	if err := s.publisher.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
