package models

import "time"

// Wilaya is an administrative region used as the geographic key for tours and guide coverage.
type Wilaya struct {
	ID        int64     `db:"id" json:"id" yaml:"-"`
	Code      string    `db:"code" json:"code" yaml:"code"`
	NameAr    string    `db:"name_ar" json:"name_ar" yaml:"name_ar"`
	NameEn    string    `db:"name_en" json:"name_en" yaml:"name_en"`
	NameFr    string    `db:"name_fr" json:"name_fr" yaml:"name_fr"`
	Latitude  float64   `db:"latitude" json:"latitude" yaml:"latitude"`
	Longitude float64   `db:"longitude" json:"longitude" yaml:"longitude"`
	CreatedAt time.Time `db:"created_at" json:"created_at" yaml:"-"`
}

// HasCoordinates reports whether the wilaya can be used for weather lookups.
func (w *Wilaya) HasCoordinates() bool {
	return w.Latitude != 0 || w.Longitude != 0
}
