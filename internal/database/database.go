package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tourguide/internal/config"
	"tourguide/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DB is the relational store shared by all services. Queries are written with
// '?' placeholders and rebound for the active driver.
type DB struct {
	*sqlx.DB
	logger *zerolog.Logger
	now    func() time.Time
}

// Open connects to the store selected by cfg and applies the schema.
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewDB(cfg.Path, logger)
	case "postgres":
		return openPostgres(cfg.Postgres, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewDB opens (creating if needed) an SQLite database at path. ":memory:" is supported.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dsn := "file::memory:?_foreign_keys=on"
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	}

	conn, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps :memory: databases alive.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	return initDB(conn, logger, path)
}

func openPostgres(cfg config.PostgresConfig, logger *zerolog.Logger) (*DB, error) {
	conn, err := sqlx.Open(DriverPostgres, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxConnections > 0 {
		conn.SetMaxOpenConns(cfg.MaxConnections)
	}
	return initDB(conn, logger, cfg.Host+"/"+cfg.DBName)
}

func initDB(conn *sqlx.DB, logger *zerolog.Logger, target string) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: conn, logger: logger, now: func() time.Time { return time.Now().UTC() }}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("driver", conn.DriverName()).Str("target", target).Msg("database initialized")
	return db, nil
}

func (db *DB) isPostgres() bool {
	return db.DriverName() == DriverPostgres
}

func (db *DB) createTables() error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.isPostgres() {
		pk = "BIGSERIAL PRIMARY KEY"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id {{pk}},
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            phone_number TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL,
            is_verified BOOLEAN NOT NULL DEFAULT FALSE,
            api_token TEXT NOT NULL UNIQUE,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS wilayas (
            id {{pk}},
            code TEXT NOT NULL UNIQUE,
            name_ar TEXT NOT NULL,
            name_en TEXT NOT NULL,
            name_fr TEXT NOT NULL,
            latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
            longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
            created_at TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS tourist_profiles (
            id {{pk}},
            user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
            bio TEXT NOT NULL DEFAULT '',
            date_of_birth TEXT,
            nationality TEXT NOT NULL DEFAULT '',
            preferred_language TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS guide_profiles (
            id {{pk}},
            user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
            bio TEXT NOT NULL DEFAULT '',
            years_of_experience INTEGER NOT NULL DEFAULT 0,
            languages TEXT NOT NULL DEFAULT '[]',
            half_day_price NUMERIC(10,2) NOT NULL,
            full_day_price NUMERIC(10,2) NOT NULL,
            extra_hour_price NUMERIC(10,2) NOT NULL,
            verification_status TEXT NOT NULL DEFAULT 'pending',
            verification_notes TEXT NOT NULL DEFAULT '',
            average_rating NUMERIC(3,2) NOT NULL DEFAULT 0,
            total_reviews INTEGER NOT NULL DEFAULT 0,
            total_tours_completed INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS guide_coverage (
            guide_id BIGINT NOT NULL REFERENCES guide_profiles(id) ON DELETE CASCADE,
            wilaya_id BIGINT NOT NULL REFERENCES wilayas(id) ON DELETE CASCADE,
            PRIMARY KEY (guide_id, wilaya_id)
        )`,
		`CREATE TABLE IF NOT EXISTS guide_availability (
            id {{pk}},
            guide_id BIGINT NOT NULL REFERENCES guide_profiles(id) ON DELETE CASCADE,
            available_date TEXT NOT NULL,
            time_slot TEXT NOT NULL,
            is_available BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMP NOT NULL,
            UNIQUE (guide_id, available_date, time_slot)
        )`,
		`CREATE TABLE IF NOT EXISTS tours (
            id {{pk}},
            guide_id BIGINT NOT NULL REFERENCES guide_profiles(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            wilaya_id BIGINT NOT NULL REFERENCES wilayas(id),
            duration_hours NUMERIC(4,1) NOT NULL,
            max_group_size INTEGER NOT NULL DEFAULT 8,
            included_services TEXT NOT NULL DEFAULT '[]',
            excluded_services TEXT NOT NULL DEFAULT '[]',
            meeting_point TEXT NOT NULL DEFAULT '',
            price NUMERIC(10,2) NOT NULL,
            status TEXT NOT NULL DEFAULT 'active',
            slug TEXT NOT NULL UNIQUE,
            tags TEXT NOT NULL DEFAULT '[]',
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id {{pk}},
            tourist_id BIGINT NOT NULL REFERENCES tourist_profiles(id) ON DELETE CASCADE,
            tour_id BIGINT NOT NULL REFERENCES tours(id) ON DELETE CASCADE,
            booking_date TEXT NOT NULL,
            time_slot TEXT NOT NULL,
            group_size INTEGER NOT NULL CHECK (group_size >= 1),
            total_price NUMERIC(10,2) NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            notes TEXT NOT NULL DEFAULT '',
            version INTEGER NOT NULL DEFAULT 1,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS reviews (
            id {{pk}},
            tourist_id BIGINT NOT NULL REFERENCES tourist_profiles(id) ON DELETE CASCADE,
            guide_id BIGINT NOT NULL REFERENCES guide_profiles(id) ON DELETE CASCADE,
            tour_id BIGINT NOT NULL REFERENCES tours(id) ON DELETE CASCADE,
            booking_id BIGINT NOT NULL UNIQUE REFERENCES bookings(id) ON DELETE CASCADE,
            rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
            title TEXT NOT NULL DEFAULT '',
            comment TEXT NOT NULL,
            is_approved BOOLEAN NOT NULL DEFAULT TRUE,
            is_featured BOOLEAN NOT NULL DEFAULT FALSE,
            guide_response TEXT NOT NULL DEFAULT '',
            guide_responded_at TIMESTAMP,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS conversations (
            id {{pk}},
            tourist_id BIGINT NOT NULL REFERENCES tourist_profiles(id) ON DELETE CASCADE,
            guide_id BIGINT NOT NULL REFERENCES guide_profiles(id) ON DELETE CASCADE,
            subject TEXT NOT NULL,
            last_message_at TIMESTAMP NOT NULL,
            created_at TIMESTAMP NOT NULL,
            UNIQUE (tourist_id, guide_id)
        )`,
		`CREATE TABLE IF NOT EXISTS messages (
            id {{pk}},
            conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            sender_type TEXT NOT NULL,
            content TEXT NOT NULL,
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS custom_tour_requests (
            id {{pk}},
            tourist_id BIGINT NOT NULL REFERENCES tourist_profiles(id) ON DELETE CASCADE,
            guide_id BIGINT NOT NULL REFERENCES guide_profiles(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            description TEXT NOT NULL,
            preferred_date TEXT NOT NULL,
            duration_hours INTEGER NOT NULL,
            group_size INTEGER NOT NULL,
            budget NUMERIC(10,2),
            special_requirements TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending',
            guide_response TEXT NOT NULL DEFAULT '',
            proposed_price NUMERIC(10,2),
            alternative_date TEXT,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`,

		`CREATE INDEX IF NOT EXISTS idx_guide_profiles_status ON guide_profiles(verification_status)`,
		`CREATE INDEX IF NOT EXISTS idx_tours_guide ON tours(guide_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tours_wilaya_status ON tours(wilaya_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_tourist ON bookings(tourist_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_tour_date ON bookings(tour_id, booking_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		// One live booking per tour, date and slot.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_active_slot
            ON bookings(tour_id, booking_date, time_slot)
            WHERE status IN ('pending', 'confirmed')`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_guide ON reviews(guide_id, is_approved)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_tour ON reviews(tour_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_custom_requests_guide ON custom_tour_requests(guide_id, status)`,
	}

	for _, query := range queries {
		query = strings.ReplaceAll(query, "{{pk}}", pk)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", firstLine(query), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Ping reports whether the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// SetClock replaces the timestamp source.
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

func get(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func selectAll(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func exec(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, q.Rebind(query), args...)
}

// insert runs an INSERT and returns the generated id.
func insert(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int64, error) {
	var id int64
	err := q.QueryRowxContext(ctx, q.Rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, err
}

// execOne runs an UPDATE/DELETE and reports domain.ErrNotFound when no row matched.
func execOne(ctx context.Context, q sqlx.ExtContext, query string, args ...any) error {
	result, err := exec(ctx, q, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// mapError translates driver errors into domain errors, wrapping with context.
func mapError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("failed to %s: %w", action, domain.ErrConflict)
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConcurrentModification),
		errors.Is(err, domain.ErrInvalidTransition):
		return err
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func pageArgs(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 1 << 30
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, domain.ErrNotFound)
}
