package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tourguide/internal/config"
	"tourguide/internal/database"
	"tourguide/internal/events"
	"tourguide/internal/export"
	"tourguide/internal/models"
	"tourguide/internal/repository"
	"tourguide/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testNow = time.Date(2030, 3, 25, 10, 0, 0, 0, time.UTC)

const adminKey = "ops-secret"

type testAPI struct {
	db     *database.DB
	router http.Handler
	wilaya *models.Wilaya
}

func testConfig() config.APIConfig {
	return config.APIConfig{
		Auth: config.APIAuthConfig{
			HeaderAPIKey: "x-api-key",
			AdminKeys:    []config.APIClientKey{{Key: adminKey, Name: "ops"}},
		},
	}
}

func newTestAPI(t *testing.T, cfg config.APIConfig) *testAPI {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetClock(func() time.Time { return testNow })

	ctx := context.Background()
	_, _, err = db.SyncWilayas(ctx, []models.Wilaya{{Code: "16", NameAr: "الجزائر", NameEn: "Algiers", NameFr: "Alger"}})
	require.NoError(t, err)
	algiers, err := db.GetWilayaByCode(ctx, "16")
	require.NoError(t, err)

	bus := events.NewEventBus()
	profiles := service.NewProfileService(db, db, "DZD", time.UTC, &logger)
	tours := service.NewTourService(db, db, db, db, nil, "DZD", 1, time.UTC, &logger)
	bookings := service.NewBookingService(db, db, bus,
		config.BookingsConfig{MaxBookingDays: 365, MinCancelDays: 1}, config.ExportConfig{MaxRows: 100},
		"DZD", time.UTC, &logger)
	reviews := service.NewReviewService(db, db, bus, time.UTC, &logger)
	messaging := service.NewMessagingService(db, db, repository.NewMemoryCache(), bus,
		config.MessagingConfig{RateLimitMessages: 2, RateLimitWindow: 60}, time.UTC, &logger)

	fixed := func() time.Time { return testNow }
	profiles.SetClock(fixed)
	tours.SetClock(fixed)
	bookings.SetClock(fixed)
	reviews.SetClock(fixed)
	messaging.SetClock(fixed)

	svc := Services{
		Accounts:  service.NewAccountService(db, &logger),
		Locations: service.NewLocationService(db, db, db, &logger),
		Profiles:  profiles,
		Tours:     tours,
		Bookings:  bookings,
		Reviews:   reviews,
		Messaging: messaging,
		Store:     db,
	}
	return &testAPI{db: db, router: NewRouter(cfg, svc, &logger), wilaya: algiers}
}

func (a *testAPI) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *testAPI) register(t *testing.T, username, userType string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/auth/register", "", body{
		"username":   username,
		"email":      username + "@example.com",
		"first_name": username,
		"last_name":  "Test",
		"user_type":  userType,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// verifiedGuide registers a guide priced 5000/10000/1500 in Algiers and verifies it.
func (a *testAPI) verifiedGuide(t *testing.T, username string) (string, int64) {
	t.Helper()
	token := a.register(t, username, "guide")
	rec := a.do(t, http.MethodPut, "/v1/profiles/guides/me", token, body{
		"bio":              "Licensed guide",
		"languages":        []string{"Arabic", "French"},
		"coverage_areas":   []int64{a.wilaya.ID},
		"half_day_price":   5000,
		"full_day_price":   10000,
		"extra_hour_price": 1500,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decode[models.GuideProfile](t, rec)

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/v1/profiles/guides/%d/verification", profile.ID),
		bytes.NewReader([]byte(`{"verification_status":"verified"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", adminKey)
	verify := httptest.NewRecorder()
	a.router.ServeHTTP(verify, req)
	require.Equal(t, http.StatusOK, verify.Code, verify.Body.String())
	return token, profile.ID
}

func (a *testAPI) createTour(t *testing.T, token string, hours float64) models.Tour {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/tours", token, body{
		"title":          "Casbah heritage walk",
		"description":    "Old town walking tour",
		"wilaya":         a.wilaya.ID,
		"duration_hours": hours,
		"max_group_size": 10,
		"status":         models.TourActive,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Tour](t, rec)
}

type body = map[string]any

type failingStore struct{}

func (failingStore) Ping(context.Context) error { return errors.New("database is down") }

func TestHealth(t *testing.T) {
	api := newTestAPI(t, testConfig())

	rec := api.do(t, http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	logger := zerolog.Nop()
	down := NewRouter(testConfig(), Services{Store: failingStore{}}, &logger)
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t, testConfig())

	rec := api.do(t, http.MethodGet, "/v1/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decode[errorEnvelope](t, rec)
	assert.False(t, envelope.Success)
	assert.Equal(t, http.StatusNotFound, envelope.Error.StatusCode)
}

func TestAuthentication(t *testing.T) {
	api := newTestAPI(t, testConfig())
	token := api.register(t, "amina", "tourist")

	t.Run("Me", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/v1/auth/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		user := decode[models.User](t, rec)
		assert.Equal(t, "amina", user.Username)
		assert.Equal(t, models.RoleTourist, user.Role)
	})

	t.Run("UpdateMe", func(t *testing.T) {
		rec := api.do(t, http.MethodPatch, "/v1/auth/me", token, body{"phone_number": "+213555000111"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "+213555000111", decode[models.User](t, rec).PhoneNumber)
	})

	t.Run("Anonymous", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/v1/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/v1/wilayas", "bogus", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("BearerScheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("AdminKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
		req.Header.Set("x-api-key", adminKey)
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.RoleAdmin, decode[models.User](t, rec).Role)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/v1/auth/register", "", body{
			"username": "amina", "email": "other@example.com", "user_type": "tourist",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		envelope := decode[errorEnvelope](t, rec)
		assert.Contains(t, envelope.Error.Details, "username")
	})
}

func TestWilayasAndGuides(t *testing.T) {
	api := newTestAPI(t, testConfig())
	_, guideID := api.verifiedGuide(t, "karim")

	rec := api.do(t, http.MethodGet, "/v1/wilayas", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse](t, rec).Count)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/wilayas/%d/guides", api.wilaya.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse](t, rec).Count)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/profiles/guides/%d/pricing", guideID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pricing := decode[map[string]any](t, rec)
	assert.Equal(t, "DZD", pricing["currency"])

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/profiles/guides/%d/availability?days=3", guideID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	calendar := decode[struct {
		Days []models.DayAvailability `json:"days"`
	}](t, rec)
	assert.Len(t, calendar.Days, 3)

	rec = api.do(t, http.MethodGet, "/v1/profiles/guides/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/profiles/guides?min_rating=high", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTourEndpoints(t *testing.T) {
	api := newTestAPI(t, testConfig())
	guideToken, _ := api.verifiedGuide(t, "karim")
	tour := api.createTour(t, guideToken, 10)
	assert.Equal(t, 13000.0, tour.Price)

	rec := api.do(t, http.MethodGet, "/v1/tours?q=casbah", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse](t, rec).Count)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/tours/%d/calculate-price?group_size=10", tour.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode[map[string]any](t, rec)
	assert.Equal(t, 110500.0, quote["final_price"])

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/tours/%d/calculate-price?group_size=11", tour.ID), "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/tours/%d/weather", tour.ID), "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/tours/%d/weather?date=2030-03-26", tour.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[map[string]any](t, rec)["weather"])

	rec = api.do(t, http.MethodPatch, fmt.Sprintf("/v1/tours/%d", tour.ID), guideToken, body{"status": models.TourDraft})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/tours/%d", tour.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/tours/me", guideToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse](t, rec).Count)

	rec = api.do(t, http.MethodGet, "/v1/tours/dashboard", guideToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	touristToken := api.register(t, "amina", "tourist")
	rec = api.do(t, http.MethodPost, "/v1/tours", touristToken, body{"title": "Nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodDelete, fmt.Sprintf("/v1/tours/%d", tour.ID), guideToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBookingLifecycle(t *testing.T) {
	api := newTestAPI(t, testConfig())
	guideToken, _ := api.verifiedGuide(t, "karim")
	tour := api.createTour(t, guideToken, 4)
	touristToken := api.register(t, "amina", "tourist")

	rec := api.do(t, http.MethodPost, "/v1/bookings", touristToken, body{
		"tour":         tour.ID,
		"booking_date": "2030-04-10",
		"time_slot":    models.SlotMorning,
		"group_size":   4,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode[models.Booking](t, rec)
	assert.Equal(t, 19000.0, booking.TotalPrice)
	assert.Equal(t, models.StatusPending, booking.Status)

	t.Run("SlotTaken", func(t *testing.T) {
		other := api.register(t, "yacine", "tourist")
		rec := api.do(t, http.MethodPost, "/v1/bookings", other, body{
			"tour": tour.ID, "booking_date": "2030-04-10", "time_slot": models.SlotMorning, "group_size": 2,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("PastDate", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/v1/bookings", touristToken, body{
			"tour": tour.ID, "booking_date": "2030-03-25", "time_slot": models.SlotEvening, "group_size": 2,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[errorEnvelope](t, rec).Error.Details, "booking_date")
	})

	rec = api.do(t, http.MethodGet, "/v1/bookings/guide/pending", guideToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse](t, rec).Count)

	path := fmt.Sprintf("/v1/bookings/%d", booking.ID)
	rec = api.do(t, http.MethodPatch, path+"/status", touristToken, body{"action": "confirm"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPatch, path+"/status", guideToken, body{"action": "confirm", "version": booking.Version})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusConfirmed, decode[models.Booking](t, rec).Status)

	rec = api.do(t, http.MethodPatch, path+"/status", guideToken, body{"action": "complete", "version": booking.Version})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/bookings/tourist/upcoming", touristToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse](t, rec).Count)

	rec = api.do(t, http.MethodGet, path+"/invoice", touristToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), fmt.Sprintf("invoice_%d.xlsx", booking.ID))
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rec = api.do(t, http.MethodGet, "/v1/bookings/export?from=2030-04-01&to=2030-04-30", guideToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bookings_2030-04-01_to_2030-04-30.xlsx")

	rec = api.do(t, http.MethodGet, "/v1/bookings/export?from=2030-04-01", guideToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPatch, path+"/cancel", touristToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusCancelled, decode[models.Booking](t, rec).Status)

	rec = api.do(t, http.MethodPatch, path+"/status", guideToken, body{"action": "confirm"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReviewEndpoints(t *testing.T) {
	api := newTestAPI(t, testConfig())
	guideToken, guideID := api.verifiedGuide(t, "karim")
	tour := api.createTour(t, guideToken, 4)
	touristToken := api.register(t, "amina", "tourist")

	rec := api.do(t, http.MethodPost, "/v1/bookings", touristToken, body{
		"tour": tour.ID, "booking_date": "2030-03-26", "time_slot": models.SlotMorning, "group_size": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode[models.Booking](t, rec)

	reviewPath := fmt.Sprintf("/v1/reviews/bookings/%d/review", booking.ID)
	review := body{"rating": 5, "title": "Wonderful", "comment": "Knew every alley"}

	rec = api.do(t, http.MethodPost, reviewPath, touristToken, review)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "pending bookings cannot be reviewed")

	_, err := api.db.ExecContext(context.Background(), `UPDATE bookings SET status = ? WHERE id = ?`, models.StatusCompleted, booking.ID)
	require.NoError(t, err)

	rec = api.do(t, http.MethodPost, reviewPath, touristToken, review)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Review](t, rec)

	rec = api.do(t, http.MethodPost, reviewPath, touristToken, review)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/reviews/guides/%d/reviews", guideID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse](t, rec).Count)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/reviews/tours/%d/reviews", tour.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse](t, rec).Count)

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/v1/reviews/%d/response", created.ID), guideToken, body{"response": "Thank you!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Thank you!", decode[models.Review](t, rec).GuideResponse)

	rec = api.do(t, http.MethodPatch, fmt.Sprintf("/v1/reviews/%d/moderation", created.ID), touristToken, body{"is_approved": false})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/v1/reviews/%d/moderation", created.ID),
		bytes.NewReader([]byte(`{"is_approved":false}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", adminKey)
	moderated := httptest.NewRecorder()
	api.router.ServeHTTP(moderated, req)
	require.Equal(t, http.StatusOK, moderated.Code, moderated.Body.String())

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/reviews/%d", created.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessagingEndpoints(t *testing.T) {
	api := newTestAPI(t, testConfig())
	guideToken, guideID := api.verifiedGuide(t, "karim")
	touristToken := api.register(t, "amina", "tourist")

	rec := api.do(t, http.MethodPost, "/v1/messaging/conversations", touristToken, body{"guide": guideID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	conv := decode[models.Conversation](t, rec)
	assert.Equal(t, models.DefaultConversationSubject, conv.Subject)

	rec = api.do(t, http.MethodPost, "/v1/messaging/conversations", touristToken, body{"guide": guideID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, conv.ID, decode[models.Conversation](t, rec).ID)

	send := fmt.Sprintf("/v1/messaging/conversations/%d/send_message", conv.ID)
	rec = api.do(t, http.MethodPost, send, touristToken, body{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for i := 0; i < 2; i++ {
		rec = api.do(t, http.MethodPost, send, touristToken, body{"content": fmt.Sprintf("Hello %d", i)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec = api.do(t, http.MethodPost, send, touristToken, body{"content": "One too many"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/messaging/conversations", guideToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	convs := decode[struct {
		Results []models.Conversation `json:"results"`
	}](t, rec)
	require.Len(t, convs.Results, 1)
	assert.Equal(t, 2, convs.Results[0].UnreadCount)

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/v1/messaging/conversations/%d/mark_read", conv.ID), guideToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, decode[map[string]any](t, rec)["marked_read"])

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/messaging/conversations/%d/messages", conv.ID), guideToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[listResponse](t, rec).Count)

	outsider := api.register(t, "yacine", "tourist")
	rec = api.do(t, http.MethodGet, fmt.Sprintf("/v1/messaging/conversations/%d", conv.ID), outsider, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/messaging/custom-requests", touristToken, body{
		"guide":          guideID,
		"title":          "Sahara weekend",
		"description":    "Two days around Djanet",
		"preferred_date": "2030-05-01",
		"duration_hours": 16,
		"group_size":     3,
		"budget":         60000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	request := decode[models.CustomTourRequest](t, rec)
	assert.Equal(t, models.RequestPending, request.Status)

	respond := fmt.Sprintf("/v1/messaging/custom-requests/%d/respond", request.ID)
	rec = api.do(t, http.MethodPost, respond, guideToken, body{"action": "accept", "guide_response": "Happy to", "proposed_price": 55000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.RequestAccepted, decode[models.CustomTourRequest](t, rec).Status)

	rec = api.do(t, http.MethodPost, respond, guideToken, body{"action": "reject"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/messaging/custom-requests?status=accepted", touristToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse](t, rec).Count)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 2}
	api := newTestAPI(t, cfg)

	for i := 0; i < 2; i++ {
		rec := api.do(t, http.MethodGet, "/v1/wilayas", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := api.do(t, http.MethodGet, "/v1/wilayas", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
