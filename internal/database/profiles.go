package database

import (
	"context"
	"fmt"
	"strings"

	"tourguide/internal/models"

	"github.com/jmoiron/sqlx"
)

const touristProfileColumns = `id, user_id, bio, date_of_birth, nationality, preferred_language, created_at, updated_at`

func (db *DB) GetTouristProfile(ctx context.Context, id int64) (*models.TouristProfile, error) {
	return db.queryTouristProfile(ctx, `SELECT `+touristProfileColumns+` FROM tourist_profiles WHERE id = ?`, id)
}

func (db *DB) GetTouristProfileByUserID(ctx context.Context, userID int64) (*models.TouristProfile, error) {
	return db.queryTouristProfile(ctx, `SELECT `+touristProfileColumns+` FROM tourist_profiles WHERE user_id = ?`, userID)
}

func (db *DB) queryTouristProfile(ctx context.Context, query string, args ...any) (*models.TouristProfile, error) {
	var p models.TouristProfile
	if err := get(ctx, db.DB, &p, query, args...); err != nil {
		return nil, mapError(err, "get tourist profile")
	}
	user, err := db.GetUserByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	p.User = user
	return &p, nil
}

func (db *DB) UpdateTouristProfile(ctx context.Context, p *models.TouristProfile) error {
	p.UpdatedAt = db.now()
	err := execOne(ctx, db.DB, `UPDATE tourist_profiles
        SET bio = ?, date_of_birth = ?, nationality = ?, preferred_language = ?, updated_at = ?
        WHERE id = ?`,
		p.Bio, p.DateOfBirth, p.Nationality, p.PreferredLanguage, p.UpdatedAt, p.ID)
	return mapError(err, "update tourist profile")
}

const guideProfileColumns = `gp.id, gp.user_id, gp.bio, gp.years_of_experience, gp.languages,
    gp.half_day_price, gp.full_day_price, gp.extra_hour_price, gp.verification_status,
    gp.verification_notes, gp.average_rating, gp.total_reviews, gp.total_tours_completed,
    gp.created_at, gp.updated_at`

func (db *DB) GetGuideProfile(ctx context.Context, id int64) (*models.GuideProfile, error) {
	return db.queryGuideProfile(ctx, `SELECT `+guideProfileColumns+` FROM guide_profiles gp WHERE gp.id = ?`, id)
}

func (db *DB) GetGuideProfileByUserID(ctx context.Context, userID int64) (*models.GuideProfile, error) {
	return db.queryGuideProfile(ctx, `SELECT `+guideProfileColumns+` FROM guide_profiles gp WHERE gp.user_id = ?`, userID)
}

func (db *DB) queryGuideProfile(ctx context.Context, query string, args ...any) (*models.GuideProfile, error) {
	var p models.GuideProfile
	if err := get(ctx, db.DB, &p, query, args...); err != nil {
		return nil, mapError(err, "get guide profile")
	}
	if err := db.attachGuideRelations(ctx, []*models.GuideProfile{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// attachGuideRelations loads users and coverage areas for the given profiles.
func (db *DB) attachGuideRelations(ctx context.Context, profiles []*models.GuideProfile) error {
	if len(profiles) == 0 {
		return nil
	}
	guideIDs := make([]int64, 0, len(profiles))
	userIDs := make([]int64, 0, len(profiles))
	byID := make(map[int64]*models.GuideProfile, len(profiles))
	for _, p := range profiles {
		guideIDs = append(guideIDs, p.ID)
		userIDs = append(userIDs, p.UserID)
		p.CoverageAreas = []int64{}
		byID[p.ID] = p
	}

	query, args, err := sqlx.In(`SELECT guide_id, wilaya_id FROM guide_coverage WHERE guide_id IN (?) ORDER BY wilaya_id`, guideIDs)
	if err != nil {
		return fmt.Errorf("failed to build coverage query: %w", err)
	}
	var coverage []struct {
		GuideID  int64 `db:"guide_id"`
		WilayaID int64 `db:"wilaya_id"`
	}
	if err := selectAll(ctx, db.DB, &coverage, query, args...); err != nil {
		return mapError(err, "load coverage")
	}
	for _, c := range coverage {
		byID[c.GuideID].CoverageAreas = append(byID[c.GuideID].CoverageAreas, c.WilayaID)
	}

	query, args, err = sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, userIDs)
	if err != nil {
		return fmt.Errorf("failed to build users query: %w", err)
	}
	var users []*models.User
	if err := selectAll(ctx, db.DB, &users, query, args...); err != nil {
		return mapError(err, "load guide users")
	}
	usersByID := make(map[int64]*models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	for _, p := range profiles {
		p.User = usersByID[p.UserID]
	}
	return nil
}

// SaveGuideProfile inserts or updates the guide profile of p.UserID, replaces its
// coverage areas and reprices every tour of the guide with priceFor.
func (db *DB) SaveGuideProfile(ctx context.Context, p *models.GuideProfile, priceFor func(durationHours float64) float64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := db.now()
	p.UpdatedAt = now
	if p.ID == 0 {
		p.CreatedAt = now
		if p.VerificationStatus == "" {
			p.VerificationStatus = models.VerificationPending
		}
		p.ID, err = insert(ctx, tx, `INSERT INTO guide_profiles (
                user_id, bio, years_of_experience, languages, half_day_price, full_day_price,
                extra_hour_price, verification_status, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.UserID, p.Bio, p.YearsOfExperience, p.Languages, p.HalfDayPrice, p.FullDayPrice,
			p.ExtraHourPrice, p.VerificationStatus, now, now)
		if err != nil {
			return mapError(err, "create guide profile")
		}
	} else {
		err = execOne(ctx, tx, `UPDATE guide_profiles SET bio = ?, years_of_experience = ?, languages = ?,
                half_day_price = ?, full_day_price = ?, extra_hour_price = ?, updated_at = ?
            WHERE id = ?`,
			p.Bio, p.YearsOfExperience, p.Languages, p.HalfDayPrice, p.FullDayPrice, p.ExtraHourPrice, now, p.ID)
		if err != nil {
			return mapError(err, "update guide profile")
		}
	}

	if _, err := exec(ctx, tx, `DELETE FROM guide_coverage WHERE guide_id = ?`, p.ID); err != nil {
		return mapError(err, "clear coverage")
	}
	for _, wilayaID := range p.CoverageAreas {
		if _, err := exec(ctx, tx, `INSERT INTO guide_coverage (guide_id, wilaya_id) VALUES (?, ?)`, p.ID, wilayaID); err != nil {
			return mapError(err, "save coverage")
		}
	}

	if priceFor != nil {
		var tours []struct {
			ID            int64   `db:"id"`
			DurationHours float64 `db:"duration_hours"`
		}
		if err := selectAll(ctx, tx, &tours, `SELECT id, duration_hours FROM tours WHERE guide_id = ?`, p.ID); err != nil {
			return mapError(err, "load guide tours")
		}
		for _, t := range tours {
			if _, err := exec(ctx, tx, `UPDATE tours SET price = ?, updated_at = ? WHERE id = ?`,
				priceFor(t.DurationHours), now, t.ID); err != nil {
				return mapError(err, "reprice tour")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit guide profile: %w", err)
	}
	return nil
}

func (db *DB) SetGuideVerification(ctx context.Context, guideID int64, status, notes string) error {
	err := execOne(ctx, db.DB, `UPDATE guide_profiles SET verification_status = ?, verification_notes = ?, updated_at = ?
        WHERE id = ?`, status, notes, db.now(), guideID)
	return mapError(err, "set verification")
}

var guideOrderings = map[string]string{
	"average_rating":  "gp.average_rating ASC, gp.id",
	"-average_rating": "gp.average_rating DESC, gp.id",
	"total_reviews":   "gp.total_reviews ASC, gp.id",
	"-total_reviews":  "gp.total_reviews DESC, gp.id",
	"created_at":      "gp.created_at ASC, gp.id",
	"-created_at":     "gp.created_at DESC, gp.id",
}

// ListGuides returns verified guides matching filter.
func (db *DB) ListGuides(ctx context.Context, filter models.GuideFilter) ([]*models.GuideProfile, error) {
	var (
		where = []string{"gp.verification_status = ?"}
		args  = []any{models.VerificationVerified}
	)
	if filter.WilayaID > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM guide_coverage gc WHERE gc.guide_id = gp.id AND gc.wilaya_id = ?)")
		args = append(args, filter.WilayaID)
	}
	if filter.Language != "" {
		where = append(where, "LOWER(gp.languages) LIKE ?")
		args = append(args, "%\""+strings.ToLower(filter.Language)+"\"%")
	}
	if filter.MinRating > 0 {
		where = append(where, "gp.average_rating >= ?")
		args = append(args, filter.MinRating)
	}
	if filter.Search != "" {
		where = append(where, `(LOWER(u.first_name) LIKE ? OR LOWER(u.last_name) LIKE ? OR LOWER(gp.bio) LIKE ?)`)
		like := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, like, like, like)
	}

	order, ok := guideOrderings[filter.Ordering]
	if !ok {
		order = guideOrderings["-average_rating"]
	}
	limit, offset := pageArgs(filter.Limit, filter.Offset)
	args = append(args, limit, offset)

	query := `SELECT ` + guideProfileColumns + `
        FROM guide_profiles gp JOIN users u ON u.id = gp.user_id
        WHERE ` + strings.Join(where, " AND ") + `
        ORDER BY ` + order + ` LIMIT ? OFFSET ?`

	var out []*models.GuideProfile
	if err := selectAll(ctx, db.DB, &out, query, args...); err != nil {
		return nil, mapError(err, "list guides")
	}
	if err := db.attachGuideRelations(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}
