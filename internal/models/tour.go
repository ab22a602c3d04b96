package models

import "time"

type Tour struct {
	ID               int64      `db:"id" json:"id"`
	GuideID          int64      `db:"guide_id" json:"guide_id"`
	Title            string     `db:"title" json:"title"`
	Description      string     `db:"description" json:"description"`
	WilayaID         int64      `db:"wilaya_id" json:"wilaya_id"`
	DurationHours    float64    `db:"duration_hours" json:"duration_hours"`
	MaxGroupSize     int        `db:"max_group_size" json:"max_group_size"`
	IncludedServices StringList `db:"included_services" json:"included_services"`
	ExcludedServices StringList `db:"excluded_services" json:"excluded_services"`
	MeetingPoint     string     `db:"meeting_point" json:"meeting_point"`
	Price            float64    `db:"price" json:"price"`
	Status           string     `db:"status" json:"status"`
	Slug             string     `db:"slug" json:"slug"`
	Tags             StringList `db:"tags" json:"tags"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`

	// Read-side projections filled by listing queries.
	GuideName     string  `db:"guide_name" json:"guide_name,omitempty"`
	GuideRating   float64 `db:"guide_rating" json:"guide_rating"`
	GuideVerified bool    `db:"guide_verified" json:"-"`
	WilayaName    string  `db:"wilaya_name" json:"wilaya_name,omitempty"`
	BookingCount  int     `db:"booking_count" json:"booking_count"`
	ReviewCount   int     `db:"review_count" json:"review_count"`
}

// IsPublic reports whether anonymous callers may see the tour.
func (t *Tour) IsPublic() bool {
	return t.Status == TourActive && t.GuideVerified
}

// TourFilter narrows tour listings. Zero values disable a criterion.
type TourFilter struct {
	GuideID      int64
	WilayaID     int64
	Status       string
	PublicOnly   bool
	Query        string
	MinPrice     float64
	MaxPrice     float64
	MinDuration  float64
	MaxDuration  float64
	MinGroupSize int
	MinRating    float64
	Ordering     string
	Limit        int
	Offset       int
}

// GuideDashboard summarizes a guide's catalog and bookings.
type GuideDashboard struct {
	GuideID           int64      `json:"guide_id"`
	Name              string     `json:"name"`
	Rating            float64    `json:"rating"`
	TotalReviews      int        `json:"total_reviews"`
	TotalTours        int        `json:"total_tours"`
	ActiveTours       int        `json:"active_tours"`
	TotalBookings     int        `json:"total_bookings"`
	CompletedBookings int        `json:"completed_bookings"`
	CompletionRate    float64    `json:"completion_rate"`
	Tours             []*Tour    `json:"tours"`
	RecentBookings    []*Booking `json:"recent_bookings"`
}
