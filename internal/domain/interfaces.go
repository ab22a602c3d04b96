package domain

import (
	"context"
	"time"

	"tourguide/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UserExists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	UpdateUser(ctx context.Context, user *models.User) error
	GetPrincipalByToken(ctx context.Context, token string) (models.Principal, error)
}

type LocationRepository interface {
	ListWilayas(ctx context.Context) ([]*models.Wilaya, error)
	GetWilaya(ctx context.Context, id int64) (*models.Wilaya, error)
	GetWilayaByCode(ctx context.Context, code string) (*models.Wilaya, error)
	SyncWilayas(ctx context.Context, wilayas []models.Wilaya) (created, updated int, err error)
}

type ProfileRepository interface {
	GetTouristProfile(ctx context.Context, id int64) (*models.TouristProfile, error)
	GetTouristProfileByUserID(ctx context.Context, userID int64) (*models.TouristProfile, error)
	UpdateTouristProfile(ctx context.Context, p *models.TouristProfile) error
	GetGuideProfile(ctx context.Context, id int64) (*models.GuideProfile, error)
	GetGuideProfileByUserID(ctx context.Context, userID int64) (*models.GuideProfile, error)
	SaveGuideProfile(ctx context.Context, p *models.GuideProfile, priceFor func(durationHours float64) float64) error
	SetGuideVerification(ctx context.Context, guideID int64, status, notes string) error
	ListGuides(ctx context.Context, filter models.GuideFilter) ([]*models.GuideProfile, error)
	SetAvailability(ctx context.Context, a *models.GuideAvailability) error
	ListAvailability(ctx context.Context, guideID int64, from, to models.Date) ([]*models.GuideAvailability, error)
	BookedSlots(ctx context.Context, guideID int64, from, to models.Date) (map[string][]string, error)
}

type TourRepository interface {
	CreateTour(ctx context.Context, t *models.Tour) error
	GetTour(ctx context.Context, id int64) (*models.Tour, error)
	UpdateTour(ctx context.Context, t *models.Tour) error
	DeleteTour(ctx context.Context, id int64) error
	ListTours(ctx context.Context, f models.TourFilter) ([]*models.Tour, error)
	GuideCounters(ctx context.Context, guideID int64) (*models.GuideDashboard, error)
	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
}

type BookingRepository interface {
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status, notes string) error
	CompleteBooking(ctx context.Context, id, fromVersion int64) error
	ListBookings(ctx context.Context, f models.BookingFilter) ([]*models.Booking, error)
	RecentGuideBookings(ctx context.Context, guideID int64, limit int) ([]*models.Booking, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, r *models.Review) error
	UpdateReview(ctx context.Context, r *models.Review) error
	SetReviewResponse(ctx context.Context, id int64, response string, at time.Time) error
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	ListReviews(ctx context.Context, f models.ReviewFilter) ([]*models.Review, error)
}

type MessagingRepository interface {
	GetOrCreateConversation(ctx context.Context, touristID, guideID int64, subject string) (*models.Conversation, bool, error)
	GetConversation(ctx context.Context, id int64) (*models.Conversation, error)
	ListConversations(ctx context.Context, f models.ConversationFilter, reader string) ([]*models.Conversation, error)
	ListMessages(ctx context.Context, conversationID int64) ([]*models.Message, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	MarkMessagesRead(ctx context.Context, conversationID int64, reader string) (int64, error)
	CreateCustomRequest(ctx context.Context, r *models.CustomTourRequest) error
	GetCustomRequest(ctx context.Context, id int64) (*models.CustomTourRequest, error)
	ListCustomRequests(ctx context.Context, f models.CustomRequestFilter) ([]*models.CustomTourRequest, error)
	RespondCustomRequest(ctx context.Context, r *models.CustomTourRequest) error
	ExpireCustomRequests(ctx context.Context, today models.Date) (int64, error)
}

// Cache is a shared key/value store with TTLs and fixed-window counters.
// Get reports false when the key is absent or expired.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// WeatherProvider returns a forecast or nil when none is available.
type WeatherProvider interface {
	Forecast(ctx context.Context, lat, lon float64, date models.Date) (*models.Weather, error)
}
