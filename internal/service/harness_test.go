package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"tourguide/internal/config"
	"tourguide/internal/database"
	"tourguide/internal/events"
	"tourguide/internal/models"
	"tourguide/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testNow is 2030-03-25 10:00 UTC.
var testNow = time.Date(2030, 3, 25, 10, 0, 0, 0, time.UTC)

func testToday() models.Date { return models.NewDate(testNow) }

var admin = models.Principal{Role: models.RoleAdmin, Name: "ops"}

type mockWeather struct {
	mock.Mock
}

func (m *mockWeather) Forecast(ctx context.Context, lat, lon float64, date models.Date) (*models.Weather, error) {
	args := m.Called(ctx, lat, lon, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Weather), args.Error(1)
}

// eventRecorder collects published event types in order.
type eventRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *eventRecorder) record(e *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, e.Type)
	return nil
}

func (r *eventRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

type harness struct {
	db       *database.DB
	cache    *repository.MemoryCache
	weather  *mockWeather
	events   *eventRecorder
	accounts *AccountService
	profiles *ProfileService
	tours    *TourService
	bookings *BookingService
	reviews  *ReviewService
	messages *MessagingService
	wilaya   *models.Wilaya
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetClock(func() time.Time { return testNow })

	_, _, err = db.SyncWilayas(ctx, []models.Wilaya{
		{Code: "16", NameAr: "الجزائر", NameEn: "Algiers", NameFr: "Alger", Latitude: 36.7538, Longitude: 3.0588},
		{Code: "31", NameAr: "وهران", NameEn: "Oran", NameFr: "Oran", Latitude: 35.6971, Longitude: -0.6308},
	})
	require.NoError(t, err)
	algiers, err := db.GetWilayaByCode(ctx, "16")
	require.NoError(t, err)

	bus := events.NewEventBus()
	rec := &eventRecorder{}
	for _, typ := range []string{
		events.EventBookingCreated, events.EventBookingConfirmed, events.EventBookingCancelled,
		events.EventBookingCompleted, events.EventReviewCreated, events.EventReviewUpdated,
		events.EventReviewModerated, events.EventMessageSent, events.EventCustomRequestCreated,
		events.EventCustomRequestAnswered,
	} {
		bus.Subscribe(typ, rec.record)
	}

	cache := repository.NewMemoryCache()
	weather := &mockWeather{}

	h := &harness{
		db:       db,
		cache:    cache,
		weather:  weather,
		events:   rec,
		accounts: NewAccountService(db, &logger),
		profiles: NewProfileService(db, db, "DZD", time.UTC, &logger),
		tours:    NewTourService(db, db, db, db, weather, "DZD", 1, time.UTC, &logger),
		bookings: NewBookingService(db, db, bus,
			config.BookingsConfig{MaxBookingDays: 365, MinCancelDays: 1}, config.ExportConfig{MaxRows: 100},
			"DZD", time.UTC, &logger),
		reviews: NewReviewService(db, db, bus, time.UTC, &logger),
		messages: NewMessagingService(db, db, cache, bus,
			config.MessagingConfig{RateLimitMessages: 3, RateLimitWindow: 60}, time.UTC, &logger),
		wilaya: algiers,
	}
	fixed := func() time.Time { return testNow }
	h.profiles.SetClock(fixed)
	h.tours.SetClock(fixed)
	h.bookings.SetClock(fixed)
	h.reviews.SetClock(fixed)
	h.messages.SetClock(fixed)
	return h
}

func (h *harness) register(t *testing.T, username string, role models.Role) (models.Principal, string) {
	t.Helper()
	ctx := context.Background()
	_, token, err := h.accounts.Register(ctx, RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: username,
		LastName:  "Test",
		UserType:  string(role),
	})
	require.NoError(t, err)
	p, err := h.accounts.Authenticate(ctx, token)
	require.NoError(t, err)
	return p, token
}

func (h *harness) tourist(t *testing.T, username string) models.Principal {
	t.Helper()
	p, _ := h.register(t, username, models.RoleTourist)
	return p
}

// guide registers a guide with the 5000/10000/1500 rate card covering Algiers.
func (h *harness) guide(t *testing.T, username string, verified bool) models.Principal {
	t.Helper()
	ctx := context.Background()
	p, token := h.register(t, username, models.RoleGuide)
	profile, err := h.profiles.UpsertMyGuideProfile(ctx, p, GuideProfileInput{
		Bio:               "Licensed guide",
		YearsOfExperience: 5,
		Languages:         []string{"Arabic", "French"},
		CoverageAreas:     []int64{h.wilaya.ID},
		HalfDayPrice:      5000,
		FullDayPrice:      10000,
		ExtraHourPrice:    1500,
	})
	require.NoError(t, err)
	if verified {
		_, err = h.profiles.SetVerification(ctx, admin, profile.ID, VerificationInput{Status: models.VerificationVerified})
		require.NoError(t, err)
	}
	p, err = h.accounts.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, profile.ID, p.GuideID)
	return p
}

func (h *harness) tour(t *testing.T, guide models.Principal, hours float64) *models.Tour {
	t.Helper()
	tour, err := h.tours.Create(context.Background(), guide, TourInput{
		Title:         "Casbah heritage walk",
		Description:   "Old town walking tour",
		WilayaID:      h.wilaya.ID,
		DurationHours: hours,
		MaxGroupSize:  10,
		Status:        models.TourActive,
	})
	require.NoError(t, err)
	return tour
}

func (h *harness) book(t *testing.T, tourist models.Principal, tourID int64, date models.Date, slot string, size int) *models.Booking {
	t.Helper()
	b, err := h.bookings.Create(context.Background(), tourist, CreateBookingInput{
		TourID:      tourID,
		BookingDate: date,
		TimeSlot:    slot,
		GroupSize:   size,
	})
	require.NoError(t, err)
	return b
}
