package gormstore

import (
	"time"

	"shareit/internal/models"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:255;not null"`
	Email     string    `gorm:"size:512;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

// ItemModel is the GORM model for the items table.
type ItemModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"size:255;not null"`
	Description string    `gorm:"size:1000;not null;default:''"`
	Available   bool      `gorm:"not null"`
	OwnerID     int64     `gorm:"index;not null"`
	Owner       UserModel `gorm:"foreignKey:OwnerID"`
	RequestID   *int64
	CreatedAt   time.Time `gorm:"not null"`
}

func (ItemModel) TableName() string {
	return "items"
}

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	StartTime time.Time `gorm:"column:start_time;not null;index:idx_bookings_booker_start,priority:2;check:chk_bookings_range,start_time < end_time"`
	EndTime   time.Time `gorm:"column:end_time;not null"`
	ItemID    int64     `gorm:"not null;index:idx_bookings_item_status,priority:1"`
	Item      ItemModel `gorm:"foreignKey:ItemID"`
	BookerID  int64     `gorm:"not null;index:idx_bookings_booker_start,priority:1"`
	Booker    UserModel `gorm:"foreignKey:BookerID"`
	Status    string    `gorm:"size:16;not null;default:'WAITING';index:idx_bookings_item_status,priority:2"`
	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (BookingModel) TableName() string {
	return "bookings"
}

func toDomainUser(m *UserModel) *models.User {
	return &models.User{ID: m.ID, Name: m.Name, Email: m.Email, CreatedAt: m.CreatedAt}
}

func toDomainItem(m *ItemModel) *models.Item {
	return &models.Item{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Available:   m.Available,
		OwnerID:     m.OwnerID,
		RequestID:   m.RequestID,
		CreatedAt:   m.CreatedAt,
	}
}

func toDomainBooking(m *BookingModel) *models.Booking {
	return &models.Booking{
		ID:        m.ID,
		Start:     m.StartTime.UTC(),
		End:       m.EndTime.UTC(),
		ItemID:    m.ItemID,
		BookerID:  m.BookerID,
		Status:    models.BookingStatus(m.Status),
		Version:   m.Version,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func toDomainBookings(ms []BookingModel) []*models.Booking {
	out := make([]*models.Booking, len(ms))
	for i := range ms {
		out[i] = toDomainBooking(&ms[i])
	}
	return out
}
