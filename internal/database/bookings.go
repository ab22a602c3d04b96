package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tourguide/internal/domain"
	"tourguide/internal/models"

	"github.com/jmoiron/sqlx"
)

const bookingSelect = `SELECT b.id, b.tourist_id, b.tour_id, b.booking_date, b.time_slot, b.group_size,
        b.total_price, b.status, b.notes, b.version, b.created_at, b.updated_at,
        t.guide_id, t.title AS tour_title,
        TRIM(tu.first_name || ' ' || tu.last_name) AS tourist_name,
        TRIM(gu.first_name || ' ' || gu.last_name) AS guide_name
    FROM bookings b
    JOIN tours t ON t.id = b.tour_id
    JOIN tourist_profiles tp ON tp.id = b.tourist_id
    JOIN users tu ON tu.id = tp.user_id
    JOIN guide_profiles gp ON gp.id = t.guide_id
    JOIN users gu ON gu.id = gp.user_id`

// CreateBookingWithLock re-checks the slot inside a transaction and inserts the booking.
// A guide holds one live booking per slot across all of their tours, and full_day
// conflicts with every other slot of that date. The partial unique index on live
// bookings backs the per-tour check.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var guideID int64
	if err := get(ctx, tx, &guideID, `SELECT guide_id FROM tours WHERE id = ?`, booking.TourID); err != nil {
		return mapError(err, "load tour")
	}
	if db.isPostgres() {
		// Serializes bookings of the same guide so the conflict check below holds.
		var locked int64
		if err := get(ctx, tx, &locked, `SELECT id FROM guide_profiles WHERE id = ? FOR UPDATE`, guideID); err != nil {
			return mapError(err, "lock guide")
		}
	}

	blocked, err := slotBlocked(ctx, tx, guideID, booking.BookingDate, booking.TimeSlot)
	if err != nil {
		return err
	}
	if blocked {
		return domain.ErrSlotUnavailable
	}

	taken, err := guideSlotTaken(ctx, tx, guideID, booking.BookingDate, booking.TimeSlot)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrSlotTaken
	}

	now := db.now()
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	id, err := insert(ctx, tx, `INSERT INTO bookings (
            tourist_id, tour_id, booking_date, time_slot, group_size, total_price,
            status, notes, version, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.TouristID, booking.TourID, booking.BookingDate, booking.TimeSlot, booking.GroupSize,
		booking.TotalPrice, booking.Status, booking.Notes, 1, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlotTaken
		}
		return mapError(err, "insert booking in tx")
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlotTaken
		}
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.GuideID = guideID
	booking.Version = 1
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// guideSlotTaken reports whether a live booking of any of the guide's tours holds
// the slot on date. A full_day request conflicts with any booking of that date.
func guideSlotTaken(ctx context.Context, q sqlx.ExtContext, guideID int64, date models.Date, slot string) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings b JOIN tours t ON t.id = b.tour_id
        WHERE t.guide_id = ? AND b.booking_date = ? AND b.status IN ('pending', 'confirmed')`
	args := []any{guideID, date}
	if slot != models.SlotFullDay {
		query += ` AND b.time_slot IN (?, ?)`
		args = append(args, slot, models.SlotFullDay)
	}
	var n int
	if err := get(ctx, q, &n, query, args...); err != nil {
		return false, mapError(err, "check guide slot")
	}
	return n > 0, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	if err := get(ctx, db.DB, &b, bookingSelect+` WHERE b.id = ?`, id); err != nil {
		return nil, mapError(err, "get booking")
	}
	return &b, nil
}

// UpdateBookingStatusWithVersion moves the booking to status when its version still matches.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status, notes string) error {
	result, err := exec(ctx, db.DB, `UPDATE bookings SET status = ?, notes = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?`, status, notes, db.now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return versionApplied(result)
}

// versionApplied maps an optimistic update that matched no row to ErrConcurrentModification.
func versionApplied(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// CompleteBooking marks a confirmed booking completed and bumps the guide's tour counter atomically.
func (db *DB) CompleteBooking(ctx context.Context, id, fromVersion int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := db.now()
	result, err := exec(ctx, tx, `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND version = ? AND status = ?`,
		models.StatusCompleted, now, id, fromVersion, models.StatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to complete booking: %w", err)
	}
	if err := versionApplied(result); err != nil {
		return err
	}

	_, err = exec(ctx, tx, `UPDATE guide_profiles SET total_tours_completed = total_tours_completed + 1, updated_at = ?
        WHERE id = (SELECT t.guide_id FROM bookings b JOIN tours t ON t.id = b.tour_id WHERE b.id = ?)`, now, id)
	if err != nil {
		return fmt.Errorf("failed to increment completed tours: %w", err)
	}

	return tx.Commit()
}

func (db *DB) ListBookings(ctx context.Context, f models.BookingFilter) ([]*models.Booking, error) {
	var (
		where []string
		args  []any
	)
	if f.TouristID > 0 {
		where = append(where, "b.tourist_id = ?")
		args = append(args, f.TouristID)
	}
	if f.GuideID > 0 {
		where = append(where, "t.guide_id = ?")
		args = append(args, f.GuideID)
	}
	if f.TourID > 0 {
		where = append(where, "b.tour_id = ?")
		args = append(args, f.TourID)
	}
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, f.Status)
	}
	if f.From != nil {
		where = append(where, "b.booking_date >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "b.booking_date <= ?")
		args = append(args, *f.To)
	}

	query := bookingSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Ascending {
		query += " ORDER BY b.booking_date ASC, b.id ASC"
	} else {
		query += " ORDER BY b.booking_date DESC, b.id DESC"
	}
	limit, offset := pageArgs(f.Limit, f.Offset)
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var out []*models.Booking
	if err := selectAll(ctx, db.DB, &out, query, args...); err != nil {
		return nil, mapError(err, "list bookings")
	}
	return out, nil
}

// RecentGuideBookings returns the guide's most recently created bookings.
func (db *DB) RecentGuideBookings(ctx context.Context, guideID int64, limit int) ([]*models.Booking, error) {
	var out []*models.Booking
	err := selectAll(ctx, db.DB, &out, bookingSelect+` WHERE t.guide_id = ? ORDER BY b.created_at DESC, b.id DESC LIMIT ?`,
		guideID, limit)
	if err != nil {
		return nil, mapError(err, "list recent bookings")
	}
	return out, nil
}

// GuideCounters fills the numeric fields of a guide dashboard.
func (db *DB) GuideCounters(ctx context.Context, guideID int64) (*models.GuideDashboard, error) {
	var d models.GuideDashboard
	var row struct {
		TotalTours        int `db:"total_tours"`
		ActiveTours       int `db:"active_tours"`
		TotalBookings     int `db:"total_bookings"`
		CompletedBookings int `db:"completed_bookings"`
	}
	err := get(ctx, db.DB, &row, `SELECT
            (SELECT COUNT(*) FROM tours WHERE guide_id = ?) AS total_tours,
            (SELECT COUNT(*) FROM tours WHERE guide_id = ? AND status = ?) AS active_tours,
            (SELECT COUNT(*) FROM bookings b JOIN tours t ON t.id = b.tour_id WHERE t.guide_id = ?) AS total_bookings,
            (SELECT COUNT(*) FROM bookings b JOIN tours t ON t.id = b.tour_id
                WHERE t.guide_id = ? AND b.status = ?) AS completed_bookings`,
		guideID, guideID, models.TourActive, guideID, guideID, models.StatusCompleted)
	if err != nil {
		return nil, mapError(err, "count guide stats")
	}
	d.GuideID = guideID
	d.TotalTours = row.TotalTours
	d.ActiveTours = row.ActiveTours
	d.TotalBookings = row.TotalBookings
	d.CompletedBookings = row.CompletedBookings
	return &d, nil
}

// PlatformStats returns the public platform counters.
func (db *DB) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	var s models.PlatformStats
	err := get(ctx, db.DB, &s, `SELECT
            (SELECT COUNT(*) FROM users) AS total_users,
            (SELECT COUNT(*) FROM guide_profiles WHERE verification_status = ?) AS total_guides,
            (SELECT COUNT(*) FROM tours WHERE status = ?) AS total_tours,
            (SELECT COUNT(*) FROM bookings) AS total_bookings,
            (SELECT COUNT(*) FROM bookings WHERE status = ?) AS completed_bookings`,
		models.VerificationVerified, models.TourActive, models.StatusCompleted)
	if err != nil {
		return nil, mapError(err, "load platform stats")
	}
	return &s, nil
}
