package database

import (
	"context"
	"fmt"
	"testing"

	"tourguide/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedWilaya(t *testing.T, db *DB, code, name string) *models.Wilaya {
	t.Helper()
	ctx := context.Background()
	_, _, err := db.SyncWilayas(ctx, []models.Wilaya{{Code: code, NameAr: name, NameEn: name, NameFr: name, Latitude: 36.7, Longitude: 3.05}})
	require.NoError(t, err)
	w, err := db.GetWilayaByCode(ctx, code)
	require.NoError(t, err)
	return w
}

func seedUser(t *testing.T, db *DB, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: username,
		LastName:  "Test",
		Role:      role,
		APIToken:  uuid.NewString(),
	}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func seedTourist(t *testing.T, db *DB, username string) *models.TouristProfile {
	t.Helper()
	u := seedUser(t, db, username, models.RoleTourist)
	p, err := db.GetTouristProfileByUserID(context.Background(), u.ID)
	require.NoError(t, err)
	return p
}

func seedGuide(t *testing.T, db *DB, username string, verified bool, coverage ...int64) *models.GuideProfile {
	t.Helper()
	ctx := context.Background()
	u := seedUser(t, db, username, models.RoleGuide)
	p := &models.GuideProfile{
		UserID:         u.ID,
		Bio:            "Licensed guide",
		Languages:      models.StringList{"Arabic", "French"},
		HalfDayPrice:   5000,
		FullDayPrice:   10000,
		ExtraHourPrice: 1500,
		CoverageAreas:  coverage,
	}
	require.NoError(t, db.SaveGuideProfile(ctx, p, nil))
	if verified {
		require.NoError(t, db.SetGuideVerification(ctx, p.ID, models.VerificationVerified, ""))
	}
	out, err := db.GetGuideProfile(ctx, p.ID)
	require.NoError(t, err)
	return out
}

var tourSeq int

func seedTour(t *testing.T, db *DB, guideID, wilayaID int64, price float64) *models.Tour {
	t.Helper()
	tourSeq++
	tour := &models.Tour{
		GuideID:       guideID,
		Title:         fmt.Sprintf("Casbah walk %d", tourSeq),
		Description:   "Old town walking tour",
		WilayaID:      wilayaID,
		DurationHours: 3,
		MaxGroupSize:  models.DefaultMaxGroupSize,
		Price:         price,
		Status:        models.TourActive,
		Slug:          fmt.Sprintf("casbah-walk-%d-%s", tourSeq, uuid.NewString()[:8]),
		Tags:          models.StringList{"history"},
	}
	require.NoError(t, db.CreateTour(context.Background(), tour))
	return tour
}

func seedBooking(t *testing.T, db *DB, touristID, tourID int64, date models.Date, slot string) *models.Booking {
	t.Helper()
	b := &models.Booking{
		TouristID:   touristID,
		TourID:      tourID,
		BookingDate: date,
		TimeSlot:    slot,
		GroupSize:   2,
		TotalPrice:  10000,
	}
	require.NoError(t, db.CreateBookingWithLock(context.Background(), b))
	return b
}
