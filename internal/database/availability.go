package database

import (
	"context"

	"tourguide/internal/models"

	"github.com/jmoiron/sqlx"
)

// SetAvailability upserts the guide's availability for a date and slot.
func (db *DB) SetAvailability(ctx context.Context, a *models.GuideAvailability) error {
	now := db.now()
	id, err := insert(ctx, db.DB, `INSERT INTO guide_availability (guide_id, available_date, time_slot, is_available, created_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (guide_id, available_date, time_slot) DO UPDATE SET is_available = excluded.is_available`,
		a.GuideID, a.Date, a.TimeSlot, a.IsAvailable, now)
	if err != nil {
		return mapError(err, "set availability")
	}
	a.ID = id
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	return nil
}

// ListAvailability returns explicit availability marks in [from, to].
func (db *DB) ListAvailability(ctx context.Context, guideID int64, from, to models.Date) ([]*models.GuideAvailability, error) {
	var out []*models.GuideAvailability
	err := selectAll(ctx, db.DB, &out, `SELECT id, guide_id, available_date, time_slot, is_available, created_at
        FROM guide_availability
        WHERE guide_id = ? AND available_date >= ? AND available_date <= ?
        ORDER BY available_date, time_slot`, guideID, from, to)
	if err != nil {
		return nil, mapError(err, "list availability")
	}
	return out, nil
}

// BookedSlots returns the live bookings of the guide's tours in [from, to], keyed by date.
func (db *DB) BookedSlots(ctx context.Context, guideID int64, from, to models.Date) (map[string][]string, error) {
	var rows []struct {
		Date string `db:"booking_date"`
		Slot string `db:"time_slot"`
	}
	err := selectAll(ctx, db.DB, &rows, `SELECT b.booking_date, b.time_slot
        FROM bookings b JOIN tours t ON t.id = b.tour_id
        WHERE t.guide_id = ? AND b.booking_date >= ? AND b.booking_date <= ?
          AND b.status IN ('pending', 'confirmed')`, guideID, from, to)
	if err != nil {
		return nil, mapError(err, "list booked slots")
	}
	out := make(map[string][]string)
	for _, r := range rows {
		out[r.Date] = append(out[r.Date], r.Slot)
	}
	return out, nil
}

// slotBlocked reports whether the guide marked the slot, or the whole day, unavailable.
func slotBlocked(ctx context.Context, q sqlx.ExtContext, guideID int64, date models.Date, slot string) (bool, error) {
	var n int
	err := get(ctx, q, &n, `SELECT COUNT(*) FROM guide_availability
        WHERE guide_id = ? AND available_date = ? AND is_available = ? AND time_slot IN (?, ?)`,
		guideID, date, false, slot, models.SlotFullDay)
	if err != nil {
		return false, mapError(err, "check availability")
	}
	return n > 0, nil
}
