package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const itemColumns = `id, name, description, available, owner_id, request_id, created_at`

// CreateItem inserts an item. A non-zero ID is kept as given.
func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (id, name, description, available, owner_id, request_id, created_at)
              VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.Available,
		item.OwnerID,
		item.RequestID,
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	return nil
}

func (db *DB) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`
	item, err := scanItem(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", classify(err))
	}
	return item, nil
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = ? ORDER BY id`
	rows, err := db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items by owner: %w", classify(err))
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetItemAvailable toggles whether an item accepts new bookings.
func (db *DB) SetItemAvailable(ctx context.Context, id int64, available bool) error {
	result, err := db.ExecContext(ctx, `UPDATE items SET available = ? WHERE id = ?`, available, id)
	if err != nil {
		return fmt.Errorf("failed to update item availability: %w", classify(err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanItem(row scanner) (*models.Item, error) {
	var item models.Item
	var requestID sql.NullInt64
	var createdAt string
	if err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Available,
		&item.OwnerID, &requestID, &createdAt,
	); err != nil {
		return nil, err
	}
	if requestID.Valid {
		item.RequestID = &requestID.Int64
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	item.CreatedAt = t
	return &item, nil
}
