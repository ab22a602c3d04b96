package models

import "time"

type TouristProfile struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	Bio               string    `db:"bio" json:"bio"`
	DateOfBirth       *Date     `db:"date_of_birth" json:"date_of_birth"`
	Nationality       string    `db:"nationality" json:"nationality"`
	PreferredLanguage string    `db:"preferred_language" json:"preferred_language"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`

	User *User `db:"-" json:"user,omitempty"`
}

// RateCard is a guide's three-tier price table.
type RateCard struct {
	HalfDay   float64 `json:"half_day_price"`
	FullDay   float64 `json:"full_day_price"`
	ExtraHour float64 `json:"extra_hour_price"`
}

type GuideProfile struct {
	ID                  int64      `db:"id" json:"id"`
	UserID              int64      `db:"user_id" json:"user_id"`
	Bio                 string     `db:"bio" json:"bio"`
	YearsOfExperience   int        `db:"years_of_experience" json:"years_of_experience"`
	Languages           StringList `db:"languages" json:"languages"`
	HalfDayPrice        float64    `db:"half_day_price" json:"half_day_price"`
	FullDayPrice        float64    `db:"full_day_price" json:"full_day_price"`
	ExtraHourPrice      float64    `db:"extra_hour_price" json:"extra_hour_price"`
	VerificationStatus  string     `db:"verification_status" json:"verification_status"`
	VerificationNotes   string     `db:"verification_notes" json:"verification_notes,omitempty"`
	AverageRating       float64    `db:"average_rating" json:"average_rating"`
	TotalReviews        int        `db:"total_reviews" json:"total_reviews"`
	TotalToursCompleted int        `db:"total_tours_completed" json:"total_tours_completed"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`

	CoverageAreas []int64 `db:"-" json:"coverage_areas"`
	User          *User   `db:"-" json:"user,omitempty"`
}

func (g *GuideProfile) IsVerified() bool {
	return g.VerificationStatus == VerificationVerified
}

func (g *GuideProfile) RateCard() RateCard {
	return RateCard{HalfDay: g.HalfDayPrice, FullDay: g.FullDayPrice, ExtraHour: g.ExtraHourPrice}
}

// Covers reports whether the guide works in the given wilaya.
func (g *GuideProfile) Covers(wilayaID int64) bool {
	for _, id := range g.CoverageAreas {
		if id == wilayaID {
			return true
		}
	}
	return false
}

// GuideFilter narrows public guide listings.
type GuideFilter struct {
	WilayaID  int64
	Language  string
	MinRating float64
	Search    string
	Ordering  string
	Limit     int
	Offset    int
}

// GuideAvailability marks a guide's slot on a date as open or closed.
type GuideAvailability struct {
	ID          int64     `db:"id" json:"id"`
	GuideID     int64     `db:"guide_id" json:"guide_id"`
	Date        Date      `db:"available_date" json:"date"`
	TimeSlot    string    `db:"time_slot" json:"time_slot"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DayAvailability is one row of a guide's availability calendar.
type DayAvailability struct {
	Date  Date            `json:"date"`
	Slots map[string]bool `json:"slots"`
}
