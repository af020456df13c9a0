package models

import "time"

// SortOrder is the direction bookings are ordered by start time.
// Ties on start break on id in the same direction.
type SortOrder int

const (
	SortStartDesc SortOrder = iota
	SortStartAsc
)

// BookingQuery is a store-level booking filter. Zero time bounds are ignored.
type BookingQuery struct {
	Viewpoint Viewpoint
	UserID    int64
	Status    BookingStatus

	StartAtOrBefore time.Time
	StartAfter      time.Time
	EndAfter        time.Time
	EndAtOrBefore   time.Time

	Order  SortOrder
	Limit  int
	Offset int
}

// Page is a from/size window over an ordered listing.
type Page struct {
	From int
	Size int
}

// Index returns the zero-based page number containing From.
func (p Page) Index() int {
	if p.Size <= 0 {
		return 0
	}
	return p.From / p.Size
}

// Offset returns the first row of the page.
func (p Page) Offset() int {
	return p.Index() * p.Size
}
