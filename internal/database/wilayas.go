package database

import (
	"context"
	"fmt"
	"os"

	"tourguide/internal/models"

	"gopkg.in/yaml.v3"
)

type wilayasFile struct {
	Wilayas []models.Wilaya `yaml:"wilayas"`
}

// LoadWilayasFile reads the wilaya reference list from YAML.
func LoadWilayasFile(path string) ([]models.Wilaya, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wilayas: %w", err)
	}
	var f wilayasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse wilayas: %w", err)
	}
	seen := make(map[string]bool, len(f.Wilayas))
	for _, w := range f.Wilayas {
		if w.Code == "" || w.NameEn == "" {
			return nil, fmt.Errorf("wilaya entry without code or name_en")
		}
		if seen[w.Code] {
			return nil, fmt.Errorf("duplicate wilaya code %s", w.Code)
		}
		seen[w.Code] = true
	}
	return f.Wilayas, nil
}

// SyncWilayas upserts wilayas by code and returns how many rows were inserted and updated.
func (db *DB) SyncWilayas(ctx context.Context, wilayas []models.Wilaya) (created, updated int, err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := db.now()
	for _, w := range wilayas {
		var existing int64
		err := get(ctx, tx, &existing, `SELECT id FROM wilayas WHERE code = ?`, w.Code)
		switch {
		case err == nil:
			_, err = exec(ctx, tx, `UPDATE wilayas SET name_ar = ?, name_en = ?, name_fr = ?, latitude = ?, longitude = ?
                WHERE id = ?`, w.NameAr, w.NameEn, w.NameFr, w.Latitude, w.Longitude, existing)
			if err != nil {
				return 0, 0, mapError(err, "update wilaya")
			}
			updated++
		case isNotFound(err):
			_, err = insert(ctx, tx, `INSERT INTO wilayas (code, name_ar, name_en, name_fr, latitude, longitude, created_at)
                VALUES (?, ?, ?, ?, ?, ?, ?)`, w.Code, w.NameAr, w.NameEn, w.NameFr, w.Latitude, w.Longitude, now)
			if err != nil {
				return 0, 0, mapError(err, "insert wilaya")
			}
			created++
		default:
			return 0, 0, mapError(err, "find wilaya")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit wilayas: %w", err)
	}
	return created, updated, nil
}

const wilayaColumns = `id, code, name_ar, name_en, name_fr, latitude, longitude, created_at`

func (db *DB) ListWilayas(ctx context.Context) ([]*models.Wilaya, error) {
	var out []*models.Wilaya
	err := selectAll(ctx, db.DB, &out, `SELECT `+wilayaColumns+` FROM wilayas ORDER BY code`)
	if err != nil {
		return nil, mapError(err, "list wilayas")
	}
	return out, nil
}

func (db *DB) GetWilaya(ctx context.Context, id int64) (*models.Wilaya, error) {
	var w models.Wilaya
	if err := get(ctx, db.DB, &w, `SELECT `+wilayaColumns+` FROM wilayas WHERE id = ?`, id); err != nil {
		return nil, mapError(err, "get wilaya")
	}
	return &w, nil
}

func (db *DB) GetWilayaByCode(ctx context.Context, code string) (*models.Wilaya, error) {
	var w models.Wilaya
	if err := get(ctx, db.DB, &w, `SELECT `+wilayaColumns+` FROM wilayas WHERE code = ?`, code); err != nil {
		return nil, mapError(err, "get wilaya")
	}
	return &w, nil
}
