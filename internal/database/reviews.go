package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tourguide/internal/domain"
	"tourguide/internal/models"

	"github.com/jmoiron/sqlx"
)

const reviewSelect = `SELECT r.id, r.tourist_id, r.guide_id, r.tour_id, r.booking_id, r.rating, r.title,
        r.comment, r.is_approved, r.is_featured, r.guide_response, r.guide_responded_at,
        r.created_at, r.updated_at,
        TRIM(tu.first_name || ' ' || tu.last_name) AS tourist_name,
        TRIM(gu.first_name || ' ' || gu.last_name) AS guide_name,
        t.title AS tour_title
    FROM reviews r
    JOIN tourist_profiles tp ON tp.id = r.tourist_id
    JOIN users tu ON tu.id = tp.user_id
    JOIN guide_profiles gp ON gp.id = r.guide_id
    JOIN users gu ON gu.id = gp.user_id
    JOIN tours t ON t.id = r.tour_id`

// CreateReview stores the review and refreshes the guide's rating in one transaction.
func (db *DB) CreateReview(ctx context.Context, r *models.Review) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := db.now()
	id, err := insert(ctx, tx, `INSERT INTO reviews (
            tourist_id, guide_id, tour_id, booking_id, rating, title, comment,
            is_approved, is_featured, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TouristID, r.GuideID, r.TourID, r.BookingID, r.Rating, r.Title, r.Comment,
		r.IsApproved, r.IsFeatured, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyReviewed
		}
		return mapError(err, "create review")
	}

	if err := refreshGuideRating(ctx, tx, r.GuideID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// UpdateReview saves content and moderation flags, then refreshes the guide's rating.
func (db *DB) UpdateReview(ctx context.Context, r *models.Review) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := db.now()
	err = execOne(ctx, tx, `UPDATE reviews SET rating = ?, title = ?, comment = ?, is_approved = ?,
            is_featured = ?, updated_at = ?
        WHERE id = ?`,
		r.Rating, r.Title, r.Comment, r.IsApproved, r.IsFeatured, now, r.ID)
	if err != nil {
		return mapError(err, "update review")
	}
	if err := refreshGuideRating(ctx, tx, r.GuideID, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}
	r.UpdatedAt = now
	return nil
}

func (db *DB) SetReviewResponse(ctx context.Context, id int64, response string, at time.Time) error {
	err := execOne(ctx, db.DB, `UPDATE reviews SET guide_response = ?, guide_responded_at = ?, updated_at = ? WHERE id = ?`,
		response, at, db.now(), id)
	return mapError(err, "respond to review")
}

// refreshGuideRating recomputes the guide aggregate from all approved reviews.
func refreshGuideRating(ctx context.Context, tx sqlx.ExtContext, guideID int64, now time.Time) error {
	var ratings []int
	if err := selectAll(ctx, tx, &ratings, `SELECT rating FROM reviews WHERE guide_id = ? AND is_approved = ?`, guideID, true); err != nil {
		return mapError(err, "load ratings")
	}
	summary := models.SummarizeRatings(ratings)
	_, err := exec(ctx, tx, `UPDATE guide_profiles SET average_rating = ?, total_reviews = ?, updated_at = ? WHERE id = ?`,
		summary.AverageRating, summary.TotalReviews, now, guideID)
	if err != nil {
		return mapError(err, "update guide rating")
	}
	return nil
}

func (db *DB) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	var r models.Review
	if err := get(ctx, db.DB, &r, reviewSelect+` WHERE r.id = ?`, id); err != nil {
		return nil, mapError(err, "get review")
	}
	return &r, nil
}

func (db *DB) ListReviews(ctx context.Context, f models.ReviewFilter) ([]*models.Review, error) {
	var (
		where []string
		args  []any
	)
	if f.TourID > 0 {
		where = append(where, "r.tour_id = ?")
		args = append(args, f.TourID)
	}
	if f.GuideID > 0 {
		where = append(where, "r.guide_id = ?")
		args = append(args, f.GuideID)
	}
	if f.TouristID > 0 {
		where = append(where, "r.tourist_id = ?")
		args = append(args, f.TouristID)
	}
	if f.ApprovedOnly {
		where = append(where, "r.is_approved = ?")
		args = append(args, true)
	}

	query := reviewSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit, offset := pageArgs(f.Limit, f.Offset)
	query += " ORDER BY r.is_featured DESC, r.created_at DESC, r.id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var out []*models.Review
	if err := selectAll(ctx, db.DB, &out, query, args...); err != nil {
		return nil, mapError(err, "list reviews")
	}
	return out, nil
}
