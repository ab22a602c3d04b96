package models

// Weather is a single-day forecast summary.
type Weather struct {
	Temperature int     `json:"temperature"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	IconURL     string  `json:"icon_url"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// PlatformStats are the public platform counters.
type PlatformStats struct {
	TotalUsers        int `db:"total_users" json:"total_users"`
	TotalGuides       int `db:"total_guides" json:"total_guides"`
	TotalTours        int `db:"total_tours" json:"total_tours"`
	TotalBookings     int `db:"total_bookings" json:"total_bookings"`
	CompletedBookings int `db:"completed_bookings" json:"completed_bookings"`
}
