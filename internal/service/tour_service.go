package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"tourguide/internal/domain"
	"tourguide/internal/models"
	"tourguide/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxTourHours = 24

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

type TourService struct {
	tours         domain.TourRepository
	profiles      domain.ProfileRepository
	locations     domain.LocationRepository
	bookings      domain.BookingRepository
	weather       domain.WeatherProvider
	currency      string
	minCancelDays int
	logger        *zerolog.Logger
	clock
}

func NewTourService(
	tours domain.TourRepository,
	profiles domain.ProfileRepository,
	locations domain.LocationRepository,
	bookings domain.BookingRepository,
	weather domain.WeatherProvider,
	currency string,
	minCancelDays int,
	loc *time.Location,
	logger *zerolog.Logger,
) *TourService {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	if minCancelDays <= 0 {
		minCancelDays = models.MinCancelDays
	}
	return &TourService{
		tours:         tours,
		profiles:      profiles,
		locations:     locations,
		bookings:      bookings,
		weather:       weather,
		currency:      currency,
		minCancelDays: minCancelDays,
		logger:        logger,
		clock:         newClock(loc),
	}
}

type TourInput struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	WilayaID         int64    `json:"wilaya"`
	DurationHours    float64  `json:"duration_hours"`
	MaxGroupSize     int      `json:"max_group_size"`
	IncludedServices []string `json:"included_services"`
	ExcludedServices []string `json:"excluded_services"`
	MeetingPoint     string   `json:"meeting_point"`
	Status           string   `json:"status"`
	Tags             []string `json:"tags"`
}

// TourUpdate carries the fields a guide may change; nil leaves a field as is.
type TourUpdate struct {
	Title            *string   `json:"title"`
	Description      *string   `json:"description"`
	WilayaID         *int64    `json:"wilaya"`
	DurationHours    *float64  `json:"duration_hours"`
	MaxGroupSize     *int      `json:"max_group_size"`
	IncludedServices *[]string `json:"included_services"`
	ExcludedServices *[]string `json:"excluded_services"`
	MeetingPoint     *string   `json:"meeting_point"`
	Status           *string   `json:"status"`
	Tags             *[]string `json:"tags"`
}

func validStatus(s string) bool {
	switch s {
	case models.TourActive, models.TourInactive, models.TourDraft:
		return true
	default:
		return false
	}
}

func validateTour(t *models.Tour, guide *models.GuideProfile) error {
	var v domain.Validation
	v.Check(strings.TrimSpace(t.Title) != "", "title", "This field is required.")
	v.Check(len(t.Title) <= 200, "title", "Ensure this field has no more than 200 characters.")
	v.Check(strings.TrimSpace(t.Description) != "", "description", "This field is required.")
	v.Check(t.DurationHours > 0, "duration_hours", "Duration must be greater than 0")
	v.Check(t.DurationHours <= maxTourHours, "duration_hours", "Duration cannot exceed 24 hours")
	v.Check(t.MaxGroupSize >= 1, "max_group_size", "Must be at least 1.")
	v.Check(validStatus(t.Status), "status", "Must be one of active, inactive, draft.")
	v.Check(guide.Covers(t.WilayaID), "wilaya", "Tour location must be one of your coverage areas.")
	return v.Err()
}

// Slugify lowercases title and joins its alphanumeric runs with dashes.
func Slugify(title string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	if s == "" {
		s = "tour"
	}
	return s
}

func (s *TourService) guideFor(ctx context.Context, p models.Principal) (*models.GuideProfile, error) {
	guideID, err := requireGuide(p)
	if err != nil {
		return nil, err
	}
	return s.profiles.GetGuideProfile(ctx, guideID)
}

// Create publishes a tour for the calling guide, priced from the guide's rate card.
func (s *TourService) Create(ctx context.Context, p models.Principal, in TourInput) (*models.Tour, error) {
	guide, err := s.guideFor(ctx, p)
	if err != nil {
		return nil, err
	}

	t := &models.Tour{
		GuideID:          guide.ID,
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		WilayaID:         in.WilayaID,
		DurationHours:    in.DurationHours,
		MaxGroupSize:     in.MaxGroupSize,
		IncludedServices: cleanList(in.IncludedServices),
		ExcludedServices: cleanList(in.ExcludedServices),
		MeetingPoint:     strings.TrimSpace(in.MeetingPoint),
		Status:           in.Status,
		Tags:             cleanList(in.Tags),
	}
	if t.MaxGroupSize == 0 {
		t.MaxGroupSize = models.DefaultMaxGroupSize
	}
	if t.Status == "" {
		t.Status = models.TourActive
	}
	if err := validateTour(t, guide); err != nil {
		return nil, err
	}

	t.Price = pricing.TourPrice(guide.RateCard(), t.DurationHours)
	t.Slug = Slugify(t.Title) + "-" + uuid.NewString()[:8]
	if err := s.tours.CreateTour(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("tour_id", t.ID).Int64("guide_id", guide.ID).Float64("price", t.Price).Msg("Tour created")
	return s.tours.GetTour(ctx, t.ID)
}

// ownTour loads a tour the calling guide owns.
func (s *TourService) ownTour(ctx context.Context, p models.Principal, id int64) (*models.Tour, *models.GuideProfile, error) {
	guide, err := s.guideFor(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.tours.GetTour(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if t.GuideID != guide.ID {
		return nil, nil, domain.ErrForbidden
	}
	return t, guide, nil
}

func (s *TourService) Update(ctx context.Context, p models.Principal, id int64, in TourUpdate) (*models.Tour, error) {
	t, guide, err := s.ownTour(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.WilayaID != nil {
		t.WilayaID = *in.WilayaID
	}
	if in.MaxGroupSize != nil {
		t.MaxGroupSize = *in.MaxGroupSize
	}
	if in.IncludedServices != nil {
		t.IncludedServices = cleanList(*in.IncludedServices)
	}
	if in.ExcludedServices != nil {
		t.ExcludedServices = cleanList(*in.ExcludedServices)
	}
	if in.MeetingPoint != nil {
		t.MeetingPoint = strings.TrimSpace(*in.MeetingPoint)
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Tags != nil {
		t.Tags = cleanList(*in.Tags)
	}
	if in.DurationHours != nil && *in.DurationHours != t.DurationHours {
		t.DurationHours = *in.DurationHours
		t.Price = pricing.TourPrice(guide.RateCard(), t.DurationHours)
	}
	if err := validateTour(t, guide); err != nil {
		return nil, err
	}

	if err := s.tours.UpdateTour(ctx, t); err != nil {
		return nil, err
	}
	return s.tours.GetTour(ctx, t.ID)
}

func (s *TourService) Delete(ctx context.Context, p models.Principal, id int64) error {
	if _, _, err := s.ownTour(ctx, p, id); err != nil {
		return err
	}
	if err := s.tours.DeleteTour(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("tour_id", id).Str("by", p.String()).Msg("Tour deleted")
	return nil
}

// List returns public tours.
func (s *TourService) List(ctx context.Context, f models.TourFilter) ([]*models.Tour, error) {
	f.PublicOnly = true
	f.Status = ""
	f.Limit, f.Offset = pageBounds(f.Limit, f.Offset)
	return s.tours.ListTours(ctx, f)
}

// ListMine returns every tour of the calling guide, whatever its status.
func (s *TourService) ListMine(ctx context.Context, p models.Principal, f models.TourFilter) ([]*models.Tour, error) {
	guideID, err := requireGuide(p)
	if err != nil {
		return nil, err
	}
	f.GuideID = guideID
	f.PublicOnly = false
	f.Limit, f.Offset = pageBounds(f.Limit, f.Offset)
	return s.tours.ListTours(ctx, f)
}

// Get returns a public tour, or any tour to its owner and admins.
func (s *TourService) Get(ctx context.Context, p models.Principal, id int64) (*models.Tour, error) {
	t, err := s.tours.GetTour(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.IsPublic() {
		return t, nil
	}
	switch p.Role {
	case models.RoleAdmin:
		return t, nil
	case models.RoleGuide:
		if p.GuideID == t.GuideID {
			return t, nil
		}
	case models.RoleTourist:
	}
	return nil, domain.ErrNotFound
}

// PriceQuote is a price preview for a tour and group size.
type PriceQuote struct {
	TourID    int64  `json:"tour_id"`
	TourTitle string `json:"tour_title"`
	pricing.Quote
	Currency     string `json:"currency"`
	MinGroupSize int    `json:"min_group_size"`
	MaxGroupSize int    `json:"max_group_size"`
}

func (s *TourService) CalculatePrice(ctx context.Context, p models.Principal, id int64, groupSize int) (*PriceQuote, error) {
	t, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if groupSize < 1 || groupSize > t.MaxGroupSize {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Group size must be between 1 and %d", t.MaxGroupSize),
			Fields: map[string]string{
				"min_group_size": "1",
				"max_group_size": fmt.Sprint(t.MaxGroupSize),
			},
		}
	}
	return &PriceQuote{
		TourID:       t.ID,
		TourTitle:    t.Title,
		Quote:        pricing.NewQuote(t.Price, groupSize),
		Currency:     s.currency,
		MinGroupSize: 1,
		MaxGroupSize: t.MaxGroupSize,
	}, nil
}

// Dashboard summarizes the calling guide's catalog and recent bookings.
func (s *TourService) Dashboard(ctx context.Context, p models.Principal) (*models.GuideDashboard, error) {
	guide, err := s.guideFor(ctx, p)
	if err != nil {
		return nil, err
	}
	d, err := s.tours.GuideCounters(ctx, guide.ID)
	if err != nil {
		return nil, err
	}
	if guide.User != nil {
		d.Name = guide.User.FullName()
	}
	d.Rating = guide.AverageRating
	d.TotalReviews = guide.TotalReviews
	if d.TotalBookings > 0 {
		d.CompletionRate = pricing.Round2(float64(d.CompletedBookings) / float64(d.TotalBookings) * 100)
	}

	if d.Tours, err = s.tours.ListTours(ctx, models.TourFilter{GuideID: guide.ID}); err != nil {
		return nil, err
	}
	if d.RecentBookings, err = s.bookings.RecentGuideBookings(ctx, guide.ID, models.RecentBookingsLimit); err != nil {
		return nil, err
	}
	today := s.today()
	for _, b := range d.RecentBookings {
		b.Decorate(today, s.minCancelDays)
	}
	return d, nil
}

// Weather returns the forecast at the tour's wilaya, or nil when none is available.
func (s *TourService) Weather(ctx context.Context, p models.Principal, id int64, date models.Date) (*models.Weather, error) {
	t, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if s.weather == nil {
		return nil, nil
	}
	w, err := s.locations.GetWilaya(ctx, t.WilayaID)
	if err != nil {
		return nil, err
	}
	if !w.HasCoordinates() {
		return nil, nil
	}
	forecast, err := s.weather.Forecast(ctx, w.Latitude, w.Longitude, date)
	if err != nil {
		s.logger.Warn().Err(err).Int64("tour_id", id).Msg("Weather lookup failed")
		return nil, nil
	}
	return forecast, nil
}

func (s *TourService) Stats(ctx context.Context) (*models.PlatformStats, error) {
	return s.tours.PlatformStats(ctx)
}

// isNotFound reports whether err is a missing-row error.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
