package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const bookingColumns = `b.id, b.start_time, b.end_time, b.item_id, b.booker_id, b.status, b.version, b.created_at, b.updated_at`

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", classify(err))
	}
	return booking, nil
}

// CreateBookingWithLock re-reads the item inside the write transaction so
// that ownership and availability are checked against what gets committed.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var ownerID int64
	var available bool
	err = tx.QueryRowContext(ctx, `SELECT owner_id, available FROM items WHERE id = ?`, booking.ItemID).
		Scan(&ownerID, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("item %d: %w", booking.ItemID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read item in tx: %w", classify(err))
	}
	if ownerID == booking.BookerID {
		return fmt.Errorf("owner cannot book own item %d: %w", booking.ItemID, domain.ErrForbidden)
	}
	if !available {
		return fmt.Errorf("item %d is not available: %w", booking.ItemID, domain.ErrConflict)
	}

	if booking.Status == "" {
		booking.Status = models.StatusWaiting
	}
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `INSERT INTO bookings (
				start_time, end_time, item_id, booker_id, status, version, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		formatTime(booking.Start),
		formatTime(booking.End),
		booking.ItemID,
		booking.BookerID,
		booking.Status,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", classify(err))
	}

	booking.ID = id
	booking.Start = booking.Start.UTC()
	booking.End = booking.End.UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.BookingStatus) (time.Time, error) {
	updatedAt := time.Now().UTC()
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, formatTime(updatedAt), id, fromVersion)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to update booking status: %w", classify(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return time.Time{}, fmt.Errorf("booking %d version %d: %w", id, fromVersion, domain.ErrConcurrentModification)
	}
	return updatedAt, nil
}

func (db *DB) FindBookings(ctx context.Context, q models.BookingQuery) ([]*models.Booking, error) {
	var sb strings.Builder
	var args []any

	sb.WriteString(`SELECT ` + bookingColumns + ` FROM bookings b`)
	switch q.Viewpoint {
	case models.ViewpointBooker:
		sb.WriteString(` WHERE b.booker_id = ?`)
	case models.ViewpointOwner:
		sb.WriteString(` JOIN items i ON i.id = b.item_id WHERE i.owner_id = ?`)
	default:
		return nil, fmt.Errorf("unknown viewpoint %q", q.Viewpoint)
	}
	args = append(args, q.UserID)

	if q.Status != "" {
		sb.WriteString(` AND b.status = ?`)
		args = append(args, q.Status)
	}
	if !q.StartAtOrBefore.IsZero() {
		sb.WriteString(` AND b.start_time <= ?`)
		args = append(args, formatTime(q.StartAtOrBefore))
	}
	if !q.StartAfter.IsZero() {
		sb.WriteString(` AND b.start_time > ?`)
		args = append(args, formatTime(q.StartAfter))
	}
	if !q.EndAfter.IsZero() {
		sb.WriteString(` AND b.end_time > ?`)
		args = append(args, formatTime(q.EndAfter))
	}
	if !q.EndAtOrBefore.IsZero() {
		sb.WriteString(` AND b.end_time <= ?`)
		args = append(args, formatTime(q.EndAtOrBefore))
	}

	if q.Order == models.SortStartAsc {
		sb.WriteString(` ORDER BY b.start_time ASC, b.id ASC`)
	} else {
		sb.WriteString(` ORDER BY b.start_time DESC, b.id DESC`)
	}

	if q.Limit > 0 {
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, q.Limit, q.Offset)
	}

	return db.queryBookings(ctx, sb.String(), args...)
}

// FindLastApproved returns, per item, the approved booking with the latest end at or before now.
func (db *DB) FindLastApproved(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]*models.Booking, error) {
	return db.findApprovedPerItem(ctx, itemIDs, `b.end_time <= ?`, `b.end_time DESC, b.id DESC`, now)
}

// FindNextApproved returns, per item, the approved booking with the earliest start after now.
func (db *DB) FindNextApproved(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]*models.Booking, error) {
	return db.findApprovedPerItem(ctx, itemIDs, `b.start_time > ?`, `b.start_time ASC, b.id ASC`, now)
}

func (db *DB) findApprovedPerItem(ctx context.Context, itemIDs []int64, predicate, order string, now time.Time) (map[int64]*models.Booking, error) {
	result := make(map[int64]*models.Booking, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(itemIDs)), ",")
	query := `SELECT ` + bookingColumns + ` FROM (
                SELECT b.*, ROW_NUMBER() OVER (PARTITION BY b.item_id ORDER BY ` + order + `) AS rn
                FROM bookings b
                WHERE b.status = ? AND ` + predicate + ` AND b.item_id IN (` + placeholders + `)
              ) b WHERE b.rn = 1`

	args := make([]any, 0, len(itemIDs)+2)
	args = append(args, models.StatusApproved, formatTime(now))
	for _, id := range itemIDs {
		args = append(args, id)
	}

	bookings, err := db.queryBookings(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		result[b.ItemID] = b
	}
	return result, nil
}

// FindByItemAndBooker returns the booker's bookings of an item that ended before the given instant.
func (db *DB) FindByItemAndBooker(ctx context.Context, itemID, bookerID int64, before time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              WHERE b.item_id = ? AND b.booker_id = ? AND b.end_time < ?
              ORDER BY b.start_time ASC, b.id ASC`
	return db.queryBookings(ctx, query, itemID, bookerID, formatTime(before))
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", classify(err))
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", classify(err))
	}
	return bookings, nil
}

func scanBooking(row scanner) (*models.Booking, error) {
	var b models.Booking
	var status, start, end, createdAt, updatedAt string
	if err := row.Scan(
		&b.ID, &start, &end, &b.ItemID, &b.BookerID,
		&status, &b.Version, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	var ok bool
	if b.Status, ok = models.ParseBookingStatus(status); !ok {
		return nil, fmt.Errorf("booking %d has unknown status %q", b.ID, status)
	}

	var err error
	if b.Start, err = parseTime(start); err != nil {
		return nil, err
	}
	if b.End, err = parseTime(end); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
