package models

import "time"

type Item struct {
	ID          int64     `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Available   bool      `yaml:"available" json:"available"`
	OwnerID     int64     `yaml:"owner_id" json:"ownerId"`
	RequestID   *int64    `yaml:"request_id" json:"requestId,omitempty"`
	CreatedAt   time.Time `yaml:"-" json:"-"`
}

// LastNext holds the most recently concluded and the soonest upcoming
// approved bookings of one item.
type LastNext struct {
	Last *Booking `json:"lastBooking"`
	Next *Booking `json:"nextBooking"`
}

// ItemWithBookings is an item as its owner sees it.
type ItemWithBookings struct {
	Item
	LastBooking *BookingShort `json:"lastBooking"`
	NextBooking *BookingShort `json:"nextBooking"`
}

// BookingShort is the booking summary shown next to an item.
type BookingShort struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// ShortOf returns nil for a nil booking.
func ShortOf(b *Booking) *BookingShort {
	if b == nil {
		return nil
	}
	return &BookingShort{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
}
