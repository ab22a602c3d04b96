package database

import (
	"context"
	"fmt"
	"strings"

	"tourguide/internal/domain"
	"tourguide/internal/models"
)

const tourSelect = `SELECT t.id, t.guide_id, t.title, t.description, t.wilaya_id, t.duration_hours,
        t.max_group_size, t.included_services, t.excluded_services, t.meeting_point, t.price,
        t.status, t.slug, t.tags, t.created_at, t.updated_at,
        TRIM(u.first_name || ' ' || u.last_name) AS guide_name,
        gp.average_rating AS guide_rating,
        (gp.verification_status = 'verified') AS guide_verified,
        w.name_en AS wilaya_name,
        (SELECT COUNT(*) FROM bookings b WHERE b.tour_id = t.id) AS booking_count,
        (SELECT COUNT(*) FROM reviews r WHERE r.tour_id = t.id AND r.is_approved = TRUE) AS review_count
    FROM tours t
    JOIN guide_profiles gp ON gp.id = t.guide_id
    JOIN users u ON u.id = gp.user_id
    JOIN wilayas w ON w.id = t.wilaya_id`

func (db *DB) CreateTour(ctx context.Context, t *models.Tour) error {
	now := db.now()
	id, err := insert(ctx, db.DB, `INSERT INTO tours (
            guide_id, title, description, wilaya_id, duration_hours, max_group_size,
            included_services, excluded_services, meeting_point, price, status, slug, tags,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.GuideID, t.Title, t.Description, t.WilayaID, t.DurationHours, t.MaxGroupSize,
		t.IncludedServices, t.ExcludedServices, t.MeetingPoint, t.Price, t.Status, t.Slug, t.Tags,
		now, now)
	if err != nil {
		return mapError(err, "create tour")
	}
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

func (db *DB) GetTour(ctx context.Context, id int64) (*models.Tour, error) {
	var t models.Tour
	if err := get(ctx, db.DB, &t, tourSelect+` WHERE t.id = ?`, id); err != nil {
		return nil, mapError(err, "get tour")
	}
	return &t, nil
}

func (db *DB) UpdateTour(ctx context.Context, t *models.Tour) error {
	t.UpdatedAt = db.now()
	err := execOne(ctx, db.DB, `UPDATE tours SET title = ?, description = ?, wilaya_id = ?, duration_hours = ?,
            max_group_size = ?, included_services = ?, excluded_services = ?, meeting_point = ?,
            price = ?, status = ?, tags = ?, updated_at = ?
        WHERE id = ?`,
		t.Title, t.Description, t.WilayaID, t.DurationHours, t.MaxGroupSize, t.IncludedServices,
		t.ExcludedServices, t.MeetingPoint, t.Price, t.Status, t.Tags, t.UpdatedAt, t.ID)
	return mapError(err, "update tour")
}

// DeleteTour removes a tour unless it still has pending or confirmed bookings.
func (db *DB) DeleteTour(ctx context.Context, id int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var active int
	err = get(ctx, tx, &active, `SELECT COUNT(*) FROM bookings WHERE tour_id = ? AND status IN ('pending', 'confirmed')`, id)
	if err != nil {
		return mapError(err, "count active bookings")
	}
	if active > 0 {
		return domain.ErrTourInUse
	}

	if err := execOne(ctx, tx, `DELETE FROM tours WHERE id = ?`, id); err != nil {
		return mapError(err, "delete tour")
	}
	return tx.Commit()
}

var tourOrderings = map[string]string{
	"price":           "t.price ASC, t.id",
	"-price":          "t.price DESC, t.id",
	"duration_hours":  "t.duration_hours ASC, t.id",
	"-duration_hours": "t.duration_hours DESC, t.id",
	"created_at":      "t.created_at ASC, t.id",
	"-created_at":     "t.created_at DESC, t.id DESC",
	"rating":          "gp.average_rating ASC, t.id",
	"-rating":         "gp.average_rating DESC, t.id",
}

func (db *DB) ListTours(ctx context.Context, f models.TourFilter) ([]*models.Tour, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, a ...any) {
		where = append(where, cond)
		args = append(args, a...)
	}

	if f.PublicOnly {
		add("t.status = ?", models.TourActive)
		add("gp.verification_status = ?", models.VerificationVerified)
	} else if f.Status != "" {
		add("t.status = ?", f.Status)
	}
	if f.GuideID > 0 {
		add("t.guide_id = ?", f.GuideID)
	}
	if f.WilayaID > 0 {
		add("t.wilaya_id = ?", f.WilayaID)
	}
	if f.MinPrice > 0 {
		add("t.price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		add("t.price <= ?", f.MaxPrice)
	}
	if f.MinDuration > 0 {
		add("t.duration_hours >= ?", f.MinDuration)
	}
	if f.MaxDuration > 0 {
		add("t.duration_hours <= ?", f.MaxDuration)
	}
	if f.MinGroupSize > 0 {
		add("t.max_group_size >= ?", f.MinGroupSize)
	}
	if f.MinRating > 0 {
		add("gp.average_rating >= ?", f.MinRating)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		add(`(LOWER(t.title) LIKE ? OR LOWER(t.description) LIKE ? OR LOWER(w.name_en) LIKE ?
            OR LOWER(w.name_fr) LIKE ? OR LOWER(u.first_name) LIKE ? OR LOWER(u.last_name) LIKE ?)`,
			like, like, like, like, like, like)
	}

	query := tourSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	order, ok := tourOrderings[f.Ordering]
	if !ok {
		order = tourOrderings["-created_at"]
	}
	limit, offset := pageArgs(f.Limit, f.Offset)
	query += " ORDER BY " + order + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var out []*models.Tour
	if err := selectAll(ctx, db.DB, &out, query, args...); err != nil {
		return nil, mapError(err, "list tours")
	}
	return out, nil
}
