package models

import "time"

type Booking struct {
	ID          int64     `db:"id" json:"id"`
	TouristID   int64     `db:"tourist_id" json:"tourist_id"`
	TourID      int64     `db:"tour_id" json:"tour_id"`
	BookingDate Date      `db:"booking_date" json:"booking_date"`
	TimeSlot    string    `db:"time_slot" json:"time_slot"`
	GroupSize   int       `db:"group_size" json:"group_size"`
	TotalPrice  float64   `db:"total_price" json:"total_price"`
	Status      string    `db:"status" json:"status"`
	Notes       string    `db:"notes" json:"notes"`
	Version     int64     `db:"version" json:"version"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields.
	GuideID     int64  `db:"guide_id" json:"guide_id"`
	TourTitle   string `db:"tour_title" json:"tour_title"`
	TouristName string `db:"tourist_name" json:"tourist_name"`
	GuideName   string `db:"guide_name" json:"guide_name"`

	// Derived on read relative to the current date.
	DaysUntilBooking int  `db:"-" json:"days_until_booking"`
	CanCancel        bool `db:"-" json:"can_cancel"`
	CanReview        bool `db:"-" json:"can_review"`
}

// IsTerminal reports whether no further transition is allowed.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

// DaysUntil returns the whole days between today and the booking date.
func (b *Booking) DaysUntil(today Date) int {
	return b.BookingDate.DaysSince(today)
}

// Decorate fills the derived read fields. minCancelDays is the cancellation lead time.
func (b *Booking) Decorate(today Date, minCancelDays int) {
	b.DaysUntilBooking = b.DaysUntil(today)
	b.CanCancel = !b.IsTerminal() && b.DaysUntilBooking >= minCancelDays
	b.CanReview = b.Status == StatusCompleted
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	TouristID int64
	GuideID   int64
	TourID    int64
	Status    string
	From      *Date
	To        *Date
	Ascending bool
	Limit     int
	Offset    int
}
