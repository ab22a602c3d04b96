package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tourguide/internal/domain"
	"tourguide/internal/models"
	"tourguide/internal/pricing"

	"github.com/rs/zerolog"
)

const (
	defaultCalendarDays = 30
	maxCalendarDays     = 90
)

type ProfileService struct {
	profiles  domain.ProfileRepository
	locations domain.LocationRepository
	currency  string
	logger    *zerolog.Logger
	clock
}

func NewProfileService(profiles domain.ProfileRepository, locations domain.LocationRepository, currency string, loc *time.Location, logger *zerolog.Logger) *ProfileService {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &ProfileService{
		profiles:  profiles,
		locations: locations,
		currency:  currency,
		logger:    logger,
		clock:     newClock(loc),
	}
}

type GuideProfileInput struct {
	Bio               string   `json:"bio"`
	YearsOfExperience int      `json:"years_of_experience"`
	Languages         []string `json:"languages"`
	CoverageAreas     []int64  `json:"coverage_areas"`
	HalfDayPrice      float64  `json:"half_day_price"`
	FullDayPrice      float64  `json:"full_day_price"`
	ExtraHourPrice    float64  `json:"extra_hour_price"`
}

func (in GuideProfileInput) validate() error {
	var v domain.Validation
	v.Check(in.YearsOfExperience >= 0, "years_of_experience", "Must be zero or more.")
	v.Check(in.HalfDayPrice > 0, "half_day_price", "Must be greater than 0.")
	v.Check(in.FullDayPrice > 0, "full_day_price", "Must be greater than 0.")
	v.Check(in.ExtraHourPrice > 0, "extra_hour_price", "Must be greater than 0.")
	if in.HalfDayPrice > 0 && in.FullDayPrice > 0 {
		v.Check(in.HalfDayPrice <= in.FullDayPrice, "half_day_price", "Half day price cannot exceed full day price.")
	}
	v.Check(len(in.CoverageAreas) > 0, "coverage_areas", "At least one coverage area is required.")
	return v.Err()
}

// GetMyGuideProfile returns the caller's guide profile.
func (s *ProfileService) GetMyGuideProfile(ctx context.Context, p models.Principal) (*models.GuideProfile, error) {
	switch p.Role {
	case models.RoleGuide:
		return s.profiles.GetGuideProfileByUserID(ctx, p.UserID)
	case models.RoleTourist, models.RoleAdmin:
		return nil, domain.ErrForbidden
	default:
		return nil, domain.ErrUnauthenticated
	}
}

// UpsertMyGuideProfile creates or replaces the caller's guide profile and reprices
// the guide's tours from the new rate card.
func (s *ProfileService) UpsertMyGuideProfile(ctx context.Context, p models.Principal, in GuideProfileInput) (*models.GuideProfile, error) {
	switch p.Role {
	case models.RoleGuide:
	case models.RoleTourist, models.RoleAdmin:
		return nil, domain.ErrForbidden
	default:
		return nil, domain.ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	coverage, err := s.checkCoverage(ctx, in.CoverageAreas)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetGuideProfileByUserID(ctx, p.UserID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		profile = &models.GuideProfile{UserID: p.UserID}
	case err != nil:
		return nil, err
	}

	profile.Bio = strings.TrimSpace(in.Bio)
	profile.YearsOfExperience = in.YearsOfExperience
	profile.Languages = cleanList(in.Languages)
	profile.CoverageAreas = coverage
	profile.HalfDayPrice = pricing.Round2(in.HalfDayPrice)
	profile.FullDayPrice = pricing.Round2(in.FullDayPrice)
	profile.ExtraHourPrice = pricing.Round2(in.ExtraHourPrice)

	card := profile.RateCard()
	priceFor := func(hours float64) float64 { return pricing.TourPrice(card, hours) }
	if err := s.profiles.SaveGuideProfile(ctx, profile, priceFor); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("guide_id", profile.ID).Int64("user_id", p.UserID).Msg("Guide profile saved")
	return s.profiles.GetGuideProfile(ctx, profile.ID)
}

// checkCoverage deduplicates ids and verifies every wilaya exists.
func (s *ProfileService) checkCoverage(ctx context.Context, ids []int64) ([]int64, error) {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := s.locations.GetWilaya(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.Invalid("coverage_areas", "Unknown wilaya.")
			}
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *ProfileService) ListGuides(ctx context.Context, f models.GuideFilter) ([]*models.GuideProfile, error) {
	f.Limit, f.Offset = pageBounds(f.Limit, f.Offset)
	return s.profiles.ListGuides(ctx, f)
}

// GetGuide returns a verified guide; unverified ones are visible to themselves and admins.
func (s *ProfileService) GetGuide(ctx context.Context, p models.Principal, id int64) (*models.GuideProfile, error) {
	g, err := s.profiles.GetGuideProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.IsVerified() {
		return g, nil
	}
	switch p.Role {
	case models.RoleAdmin:
		return g, nil
	case models.RoleGuide:
		if p.GuideID == g.ID {
			return g, nil
		}
	case models.RoleTourist:
	}
	return nil, domain.ErrNotFound
}

// GuidePricing is the public rate card of a guide.
type GuidePricing struct {
	GuideID int64 `json:"guide_id"`
	models.RateCard
	Currency string `json:"currency"`
}

func (s *ProfileService) GetGuidePricing(ctx context.Context, id int64) (*GuidePricing, error) {
	g, err := s.GetGuide(ctx, models.Anonymous, id)
	if err != nil {
		return nil, err
	}
	return &GuidePricing{GuideID: g.ID, RateCard: g.RateCard(), Currency: s.currency}, nil
}

type VerificationInput struct {
	Status string `json:"verification_status"`
	Notes  string `json:"verification_notes"`
}

func (s *ProfileService) SetVerification(ctx context.Context, p models.Principal, guideID int64, in VerificationInput) (*models.GuideProfile, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	switch in.Status {
	case models.VerificationPending, models.VerificationVerified, models.VerificationRejected:
	default:
		return nil, domain.Invalid("verification_status", "Must be one of pending, verified, rejected.")
	}
	if err := s.profiles.SetGuideVerification(ctx, guideID, in.Status, strings.TrimSpace(in.Notes)); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("guide_id", guideID).Str("status", in.Status).Str("by", p.String()).Msg("Guide verification changed")
	return s.profiles.GetGuideProfile(ctx, guideID)
}

func (s *ProfileService) GetMyTouristProfile(ctx context.Context, p models.Principal) (*models.TouristProfile, error) {
	id, err := requireTourist(p)
	if err != nil {
		return nil, err
	}
	return s.profiles.GetTouristProfile(ctx, id)
}

type TouristProfileInput struct {
	Bio               *string      `json:"bio"`
	DateOfBirth       *models.Date `json:"date_of_birth"`
	Nationality       *string      `json:"nationality"`
	PreferredLanguage *string      `json:"preferred_language"`
}

func (s *ProfileService) UpdateMyTouristProfile(ctx context.Context, p models.Principal, in TouristProfileInput) (*models.TouristProfile, error) {
	id, err := requireTourist(p)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetTouristProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		profile.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.DateOfBirth != nil {
		if !in.DateOfBirth.Before(s.today().Time) {
			return nil, domain.Invalid("date_of_birth", "Date of birth must be in the past.")
		}
		dob := *in.DateOfBirth
		profile.DateOfBirth = &dob
	}
	if in.Nationality != nil {
		profile.Nationality = strings.TrimSpace(*in.Nationality)
	}
	if in.PreferredLanguage != nil {
		profile.PreferredLanguage = strings.TrimSpace(*in.PreferredLanguage)
	}

	if err := s.profiles.UpdateTouristProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

type AvailabilityInput struct {
	Date        models.Date `json:"date"`
	TimeSlot    string      `json:"time_slot"`
	IsAvailable bool        `json:"is_available"`
}

// SetAvailability opens or closes one of the caller's slots on a future date.
func (s *ProfileService) SetAvailability(ctx context.Context, p models.Principal, in AvailabilityInput) (*models.GuideAvailability, error) {
	guideID, err := requireGuide(p)
	if err != nil {
		return nil, err
	}
	var v domain.Validation
	v.Check(!in.Date.IsZero(), "date", "This field is required.")
	v.Check(in.Date.IsZero() || !in.Date.Before(s.today().Time), "date", "Date cannot be in the past.")
	v.Check(models.IsValidTimeSlot(in.TimeSlot), "time_slot", "Invalid time slot.")
	if err := v.Err(); err != nil {
		return nil, err
	}

	a := &models.GuideAvailability{GuideID: guideID, Date: in.Date, TimeSlot: in.TimeSlot, IsAvailable: in.IsAvailable}
	if err := s.profiles.SetAvailability(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AvailabilityCalendar reports, per date from today and per slot, whether the guide can be booked.
func (s *ProfileService) AvailabilityCalendar(ctx context.Context, guideID int64, days int) ([]models.DayAvailability, error) {
	if days <= 0 {
		days = defaultCalendarDays
	}
	if days > maxCalendarDays {
		days = maxCalendarDays
	}
	if _, err := s.GetGuide(ctx, models.Anonymous, guideID); err != nil {
		return nil, err
	}

	from := s.today()
	to := from.AddDays(days - 1)
	marks, err := s.profiles.ListAvailability(ctx, guideID, from, to)
	if err != nil {
		return nil, err
	}
	booked, err := s.profiles.BookedSlots(ctx, guideID, from, to)
	if err != nil {
		return nil, err
	}

	closed := make(map[string]map[string]bool)
	for _, m := range marks {
		if m.IsAvailable {
			continue
		}
		day := m.Date.String()
		if closed[day] == nil {
			closed[day] = make(map[string]bool)
		}
		closed[day][m.TimeSlot] = true
	}

	out := make([]models.DayAvailability, 0, days)
	for d := from; !d.After(to.Time); d = d.AddDays(1) {
		day := d.String()
		taken := make(map[string]bool)
		for _, slot := range booked[day] {
			taken[slot] = true
		}
		slots := make(map[string]bool, len(models.TimeSlots))
		for _, slot := range models.TimeSlots {
			open := !closed[day][slot] && !closed[day][models.SlotFullDay] && !taken[slot] && !taken[models.SlotFullDay]
			if slot == models.SlotFullDay && len(taken) > 0 {
				open = false
			}
			slots[slot] = open
		}
		out = append(out, models.DayAvailability{Date: d, Slots: slots})
	}
	return out, nil
}

func cleanList(in []string) models.StringList {
	out := make(models.StringList, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
