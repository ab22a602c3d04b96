package database

import (
	"context"
	"fmt"

	"tourguide/internal/domain"
	"tourguide/internal/models"
)

const userColumns = `id, username, email, first_name, last_name, phone_number, role,
    is_verified, api_token, created_at, updated_at`

// CreateUser inserts the user and, for tourists, their empty tourist profile in one transaction.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := db.now()
	id, err := insert(ctx, tx, `INSERT INTO users (
            username, email, first_name, last_name, phone_number, role,
            is_verified, api_token, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.FirstName, user.LastName, user.PhoneNumber, string(user.Role),
		user.IsVerified, user.APIToken, now, now,
	)
	if err != nil {
		return mapError(err, "create user")
	}

	if user.Role == models.RoleTourist {
		_, err = insert(ctx, tx, `INSERT INTO tourist_profiles (user_id, created_at, updated_at) VALUES (?, ?, ?)`,
			id, now, now)
		if err != nil {
			return mapError(err, "create tourist profile")
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (db *DB) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE api_token = ?`, token)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	if err := get(ctx, db.DB, &user, query, args...); err != nil {
		return nil, mapError(err, "get user")
	}
	return &user, nil
}

// UserExists reports which of username and email are already taken.
func (db *DB) UserExists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	var counts struct {
		Usernames int `db:"usernames"`
		Emails    int `db:"emails"`
	}
	err = get(ctx, db.DB, &counts, `SELECT
            (SELECT COUNT(*) FROM users WHERE LOWER(username) = LOWER(?)) AS usernames,
            (SELECT COUNT(*) FROM users WHERE LOWER(email) = LOWER(?)) AS emails`,
		username, email)
	if err != nil {
		return false, false, mapError(err, "check user")
	}
	return counts.Usernames > 0, counts.Emails > 0, nil
}

func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = db.now()
	err := execOne(ctx, db.DB, `UPDATE users SET email = ?, first_name = ?, last_name = ?, phone_number = ?, updated_at = ?
        WHERE id = ?`,
		user.Email, user.FirstName, user.LastName, user.PhoneNumber, user.UpdatedAt, user.ID)
	return mapError(err, "update user")
}

// GetPrincipalByToken resolves an API token into the caller identity with profile ids.
func (db *DB) GetPrincipalByToken(ctx context.Context, token string) (models.Principal, error) {
	var row struct {
		UserID    int64       `db:"user_id"`
		Role      models.Role `db:"role"`
		FirstName string      `db:"first_name"`
		LastName  string      `db:"last_name"`
		Username  string      `db:"username"`
		TouristID int64       `db:"tourist_id"`
		GuideID   int64       `db:"guide_id"`
	}
	err := get(ctx, db.DB, &row, `SELECT u.id AS user_id, u.role, u.first_name, u.last_name, u.username,
            COALESCE(tp.id, 0) AS tourist_id, COALESCE(gp.id, 0) AS guide_id
        FROM users u
        LEFT JOIN tourist_profiles tp ON tp.user_id = u.id
        LEFT JOIN guide_profiles gp ON gp.user_id = u.id
        WHERE u.api_token = ?`, token)
	if err != nil {
		if isNotFound(err) {
			return models.Anonymous, domain.ErrUnauthenticated
		}
		return models.Anonymous, mapError(err, "resolve token")
	}

	u := models.User{FirstName: row.FirstName, LastName: row.LastName, Username: row.Username}
	return models.Principal{
		UserID:    row.UserID,
		Role:      row.Role,
		Name:      u.FullName(),
		TouristID: row.TouristID,
		GuideID:   row.GuideID,
	}, nil
}
