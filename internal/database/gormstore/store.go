package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the PostgreSQL implementation of domain.Store.
type Store struct {
	db     *gorm.DB
	logger *zerolog.Logger
}

// Open connects to PostgreSQL and migrates the schema.
func Open(cfg config.PostgresConfig, logger *zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if cfg.MaxConnections > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	}

	return New(db, logger)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB, logger *zerolog.Logger) (*Store, error) {
	if err := db.AutoMigrate(&UserModel{}, &ItemModel{}, &BookingModel{}); err != nil {
		return nil, fmt.Errorf("failed to run auto-migration: %w", err)
	}
	logger.Info().Msg("postgres store migrated")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	m := UserModel{ID: user.ID, Name: user.Name, Email: user.Email, CreatedAt: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", classify(err))
	}
	if user.ID != 0 {
		if err := s.syncSequence(ctx, "users"); err != nil {
			return err
		}
	}
	*user = *toDomainUser(&m)
	return nil
}

// syncSequence moves the id sequence past rows inserted with explicit ids.
func (s *Store) syncSequence(ctx context.Context, table string) error {
	err := s.db.WithContext(ctx).
		Exec(fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), (SELECT MAX(id) FROM %[1]s))`, table)).Error
	if err != nil {
		return fmt.Errorf("failed to sync %s id sequence: %w", table, err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var m UserModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user: %w", classify(err))
	}
	return toDomainUser(&m), nil
}

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	m := ItemModel{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
		OwnerID:     item.OwnerID,
		RequestID:   item.RequestID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Omit("Owner").Create(&m).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", classify(err))
	}
	if item.ID != 0 {
		if err := s.syncSequence(ctx, "items"); err != nil {
			return err
		}
	}
	*item = *toDomainItem(&m)
	return nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var m ItemModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find item: %w", classify(err))
	}
	return toDomainItem(&m), nil
}

func (s *Store) GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error) {
	var ms []ItemModel
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to find owner items: %w", classify(err))
	}
	items := make([]*models.Item, len(ms))
	for i := range ms {
		items[i] = toDomainItem(&ms[i])
	}
	return items, nil
}

// SetItemAvailable toggles whether an item accepts new bookings.
func (s *Store) SetItemAvailable(ctx context.Context, id int64, available bool) error {
	result := s.db.WithContext(ctx).Model(&ItemModel{}).Where("id = ?", id).Update("available", available)
	if result.Error != nil {
		return fmt.Errorf("failed to update item availability: %w", classify(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var m BookingModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find booking: %w", classify(err))
	}
	return toDomainBooking(&m), nil
}

// CreateBookingWithLock locks the item row while checking it, so a concurrent
// availability change cannot interleave with the insert.
func (s *Store) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	if booking.Status == "" {
		booking.Status = models.StatusWaiting
	}

	var created BookingModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item ItemModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", booking.ItemID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("item %d: %w", booking.ItemID, domain.ErrNotFound)
			}
			return fmt.Errorf("failed to lock item: %w", classify(err))
		}
		if item.OwnerID == booking.BookerID {
			return fmt.Errorf("owner cannot book own item %d: %w", booking.ItemID, domain.ErrForbidden)
		}
		if !item.Available {
			return fmt.Errorf("item %d is not available: %w", booking.ItemID, domain.ErrConflict)
		}

		now := time.Now().UTC()
		created = BookingModel{
			StartTime: booking.Start.UTC(),
			EndTime:   booking.End.UTC(),
			ItemID:    booking.ItemID,
			BookerID:  booking.BookerID,
			Status:    string(booking.Status),
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Omit("Item", "Booker").Create(&created).Error; err != nil {
			return fmt.Errorf("failed to insert booking: %w", classify(err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	*booking = *toDomainBooking(&created)
	return nil
}

func (s *Store) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.BookingStatus) (time.Time, error) {
	// timestamptz keeps microseconds
	updatedAt := time.Now().UTC().Truncate(time.Microsecond)
	result := s.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", id, fromVersion).
		Updates(map[string]interface{}{
			"status":     string(status),
			"version":    gorm.Expr("version + 1"),
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return time.Time{}, fmt.Errorf("failed to update booking status: %w", classify(result.Error))
	}
	if result.RowsAffected == 0 {
		return time.Time{}, fmt.Errorf("booking %d version %d: %w", id, fromVersion, domain.ErrConcurrentModification)
	}
	return updatedAt, nil
}

func (s *Store) FindBookings(ctx context.Context, q models.BookingQuery) ([]*models.Booking, error) {
	tx := s.db.WithContext(ctx).Model(&BookingModel{})
	switch q.Viewpoint {
	case models.ViewpointBooker:
		tx = tx.Where("bookings.booker_id = ?", q.UserID)
	case models.ViewpointOwner:
		tx = tx.Joins("JOIN items ON items.id = bookings.item_id").Where("items.owner_id = ?", q.UserID)
	default:
		return nil, fmt.Errorf("unknown viewpoint %q", q.Viewpoint)
	}

	if q.Status != "" {
		tx = tx.Where("bookings.status = ?", string(q.Status))
	}
	if !q.StartAtOrBefore.IsZero() {
		tx = tx.Where("bookings.start_time <= ?", q.StartAtOrBefore)
	}
	if !q.StartAfter.IsZero() {
		tx = tx.Where("bookings.start_time > ?", q.StartAfter)
	}
	if !q.EndAfter.IsZero() {
		tx = tx.Where("bookings.end_time > ?", q.EndAfter)
	}
	if !q.EndAtOrBefore.IsZero() {
		tx = tx.Where("bookings.end_time <= ?", q.EndAtOrBefore)
	}

	if q.Order == models.SortStartAsc {
		tx = tx.Order("bookings.start_time ASC").Order("bookings.id ASC")
	} else {
		tx = tx.Order("bookings.start_time DESC").Order("bookings.id DESC")
	}
	if q.Limit > 0 {
		tx = tx.Offset(q.Offset).Limit(q.Limit)
	}

	var ms []BookingModel
	if err := tx.Select("bookings.*").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", classify(err))
	}
	return toDomainBookings(ms), nil
}

func (s *Store) FindLastApproved(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]*models.Booking, error) {
	return s.findApprovedPerItem(ctx, itemIDs, "end_time <= ?", "item_id, end_time DESC, id DESC", now)
}

func (s *Store) FindNextApproved(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]*models.Booking, error) {
	return s.findApprovedPerItem(ctx, itemIDs, "start_time > ?", "item_id, start_time ASC, id ASC", now)
}

func (s *Store) findApprovedPerItem(ctx context.Context, itemIDs []int64, predicate, order string, now time.Time) (map[int64]*models.Booking, error) {
	result := make(map[int64]*models.Booking, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	var ms []BookingModel
	err := s.db.WithContext(ctx).
		Model(&BookingModel{}).
		Clauses(clause.Select{Expression: clause.Expr{SQL: "DISTINCT ON (item_id) *"}}).
		Where("status = ?", string(models.StatusApproved)).
		Where(predicate, now.UTC()).
		Where("item_id IN ?", itemIDs).
		Order(order).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find approved bookings: %w", classify(err))
	}
	for i := range ms {
		result[ms[i].ItemID] = toDomainBooking(&ms[i])
	}
	return result, nil
}

func (s *Store) FindByItemAndBooker(ctx context.Context, itemID, bookerID int64, before time.Time) ([]*models.Booking, error) {
	var ms []BookingModel
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND booker_id = ? AND end_time < ?", itemID, bookerID, before.UTC()).
		Order("start_time ASC").Order("id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings by item and booker: %w", classify(err))
	}
	return toDomainBookings(ms), nil
}

// classify maps PostgreSQL error codes onto domain errors.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03", "57014":
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	case "23503":
		return fmt.Errorf("%w: referenced record does not exist", domain.ErrNotFound)
	case "23505":
		return fmt.Errorf("%w: duplicate record", domain.ErrConflict)
	}
	return err
}
