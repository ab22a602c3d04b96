package models

import (
	"math"
	"time"
)

type Review struct {
	ID               int64      `db:"id" json:"id"`
	TouristID        int64      `db:"tourist_id" json:"tourist_id"`
	GuideID          int64      `db:"guide_id" json:"guide_id"`
	TourID           int64      `db:"tour_id" json:"tour_id"`
	BookingID        int64      `db:"booking_id" json:"booking_id"`
	Rating           int        `db:"rating" json:"rating"`
	Title            string     `db:"title" json:"title"`
	Comment          string     `db:"comment" json:"comment"`
	IsApproved       bool       `db:"is_approved" json:"is_approved"`
	IsFeatured       bool       `db:"is_featured" json:"is_featured"`
	GuideResponse    string     `db:"guide_response" json:"guide_response"`
	GuideRespondedAt *time.Time `db:"guide_responded_at" json:"guide_responded_at"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`

	TouristName string `db:"tourist_name" json:"tourist_name"`
	GuideName   string `db:"guide_name" json:"guide_name"`
	TourTitle   string `db:"tour_title" json:"tour_title"`
}

// RatingSummary is the aggregate kept on the guide profile.
type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}

// SummarizeRatings averages ratings, rounded to two decimals.
func SummarizeRatings(ratings []int) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return RatingSummary{
		AverageRating: math.Round(avg*100) / 100,
		TotalReviews:  len(ratings),
	}
}

// ReviewFilter narrows review listings.
type ReviewFilter struct {
	TourID       int64
	GuideID      int64
	TouristID    int64
	ApprovedOnly bool
	Limit        int
	Offset       int
}
