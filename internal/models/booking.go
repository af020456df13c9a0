package models

import (
	"strings"
	"time"
)

// BookingStatus is the approval status of a booking.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

// IsValid reports whether s is one of the known statuses.
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a raw value into a BookingStatus.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	s := BookingStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", false
	}
	return s, true
}

// StatusFor returns the status an owner decision resolves to.
func StatusFor(approved bool) BookingStatus {
	if approved {
		return StatusApproved
	}
	return StatusRejected
}

type Booking struct {
	ID        int64         `json:"id"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	ItemID    int64         `json:"itemId"`
	BookerID  int64         `json:"bookerId"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Version   int64         `json:"-"`
}
