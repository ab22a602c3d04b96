package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"tourguide/internal/config"
	"tourguide/internal/domain"
	"tourguide/internal/events"
	"tourguide/internal/export"
	"tourguide/internal/models"
	"tourguide/internal/pricing"

	"github.com/rs/zerolog"
)

type BookingService struct {
	bookings       domain.BookingRepository
	tours          domain.TourRepository
	eventBus       domain.EventPublisher
	maxBookingDays int
	minCancelDays  int
	maxExportRows  int
	currency       string
	logger         *zerolog.Logger
	clock
}

func NewBookingService(
	bookings domain.BookingRepository,
	tours domain.TourRepository,
	eventBus domain.EventPublisher,
	cfg config.BookingsConfig,
	exports config.ExportConfig,
	currency string,
	loc *time.Location,
	logger *zerolog.Logger,
) *BookingService {
	if cfg.MaxBookingDays <= 0 {
		cfg.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if cfg.MinCancelDays <= 0 {
		cfg.MinCancelDays = models.MinCancelDays
	}
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &BookingService{
		bookings:       bookings,
		tours:          tours,
		eventBus:       eventBus,
		maxBookingDays: cfg.MaxBookingDays,
		minCancelDays:  cfg.MinCancelDays,
		maxExportRows:  exports.MaxRows,
		currency:       currency,
		logger:         logger,
		clock:          newClock(loc),
	}
}

type CreateBookingInput struct {
	TourID      int64       `json:"tour"`
	BookingDate models.Date `json:"booking_date"`
	TimeSlot    string      `json:"time_slot"`
	GroupSize   int         `json:"group_size"`
	Notes       string      `json:"notes"`
}

// ValidateBookingDate checks the date is after today and within the booking horizon.
func (s *BookingService) ValidateBookingDate(date models.Date) error {
	if msg := s.bookingDateProblem(date); msg != "" {
		return domain.Invalid("booking_date", msg)
	}
	return nil
}

func (s *BookingService) bookingDateProblem(date models.Date) string {
	today := s.today()
	switch {
	case date.IsZero():
		return "This field is required."
	case !date.After(today.Time):
		return "Booking date must be in the future."
	case date.After(today.AddDays(s.maxBookingDays).Time):
		return fmt.Sprintf("Bookings can be made at most %d days ahead.", s.maxBookingDays)
	}
	return ""
}

// Create books a tour slot for the calling tourist at the quoted group price.
func (s *BookingService) Create(ctx context.Context, p models.Principal, in CreateBookingInput) (*models.Booking, error) {
	touristID, err := requireTourist(p)
	if err != nil {
		return nil, err
	}

	var v domain.Validation
	if msg := s.bookingDateProblem(in.BookingDate); msg != "" {
		v.Add("booking_date", msg)
	}
	v.Check(models.IsValidTimeSlot(in.TimeSlot), "time_slot", "Invalid time slot.")
	v.Check(in.GroupSize > 0, "group_size", "Group size must be greater than 0.")
	if err := v.Err(); err != nil {
		return nil, err
	}

	tour, err := s.tours.GetTour(ctx, in.TourID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.Invalid("tour", "Invalid tour ID.")
		}
		return nil, err
	}
	if !tour.IsPublic() {
		return nil, domain.Invalid("tour", "This tour is not available for booking.")
	}
	if in.GroupSize > tour.MaxGroupSize {
		return nil, domain.Invalid("group_size", fmt.Sprintf("Group size cannot exceed %d for this tour.", tour.MaxGroupSize))
	}

	quote := pricing.NewQuote(tour.Price, in.GroupSize)
	booking := &models.Booking{
		TouristID:   touristID,
		TourID:      tour.ID,
		BookingDate: in.BookingDate,
		TimeSlot:    in.TimeSlot,
		GroupSize:   in.GroupSize,
		TotalPrice:  quote.FinalPrice,
		Status:      models.StatusPending,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := s.bookings.CreateBookingWithLock(ctx, booking); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, booking, p)
	s.logger.Info().Int64("booking_id", booking.ID).Int64("tour_id", tour.ID).Str("date", booking.BookingDate.String()).
		Str("slot", booking.TimeSlot).Float64("total", booking.TotalPrice).Msg("Booking created")

	return s.get(ctx, booking.ID)
}

func (s *BookingService) get(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Decorate(s.today(), s.minCancelDays)
	return b, nil
}

// Get returns a booking to its tourist, its guide or an admin.
func (s *BookingService) Get(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeBooking(p, b) {
		return nil, domain.ErrForbidden
	}
	return b, nil
}

// List returns the bookings visible to the caller, newest date first.
func (s *BookingService) List(ctx context.Context, p models.Principal, f models.BookingFilter) ([]*models.Booking, error) {
	if err := scopeBookings(p, &f); err != nil {
		return nil, err
	}
	f.Limit, f.Offset = pageBounds(f.Limit, f.Offset)
	return s.list(ctx, f)
}

func scopeBookings(p models.Principal, f *models.BookingFilter) error {
	switch p.Role {
	case models.RoleTourist:
		if p.TouristID == 0 {
			return domain.ErrForbidden
		}
		f.TouristID, f.GuideID = p.TouristID, 0
	case models.RoleGuide:
		if p.GuideID == 0 {
			return domain.ErrForbidden
		}
		f.GuideID, f.TouristID = p.GuideID, 0
	case models.RoleAdmin:
	default:
		return domain.ErrUnauthenticated
	}
	return nil
}

func (s *BookingService) list(ctx context.Context, f models.BookingFilter) ([]*models.Booking, error) {
	out, err := s.bookings.ListBookings(ctx, f)
	if err != nil {
		return nil, err
	}
	today := s.today()
	for _, b := range out {
		b.Decorate(today, s.minCancelDays)
	}
	return out, nil
}

// GuidePending lists the calling guide's bookings awaiting an answer, soonest first.
func (s *BookingService) GuidePending(ctx context.Context, p models.Principal) ([]*models.Booking, error) {
	guideID, err := requireGuide(p)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, models.BookingFilter{GuideID: guideID, Status: models.StatusPending, Ascending: true})
}

// TouristUpcoming lists the calling tourist's live bookings from today on, soonest first.
func (s *BookingService) TouristUpcoming(ctx context.Context, p models.Principal) ([]*models.Booking, error) {
	touristID, err := requireTourist(p)
	if err != nil {
		return nil, err
	}
	today := s.today()
	all, err := s.list(ctx, models.BookingFilter{TouristID: touristID, From: &today, Ascending: true})
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, b := range all {
		if !b.IsTerminal() {
			out = append(out, b)
		}
	}
	return out, nil
}

type StatusUpdateInput struct {
	Action              string       `json:"action"`
	Version             int64        `json:"version"`
	AlternativeDate     *models.Date `json:"alternative_date"`
	AlternativeTimeSlot string       `json:"alternative_time_slot"`
	RejectionReason     string       `json:"rejection_reason"`
}

// UpdateStatus applies a guide action to a booking of one of the guide's tours.
func (s *BookingService) UpdateStatus(ctx context.Context, p models.Principal, id int64, in StatusUpdateInput) (*models.Booking, error) {
	guideID, err := requireGuide(p)
	if err != nil {
		return nil, err
	}
	action, err := ParseGuideAction(in.Action)
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.GuideID != guideID {
		return nil, domain.ErrForbidden
	}
	// Terminal bookings answer with the transition error whatever version was sent.
	if !b.IsTerminal() && in.Version > 0 && in.Version != b.Version {
		return nil, domain.ErrConcurrentModification
	}

	today := s.today()
	status, err := NextStatus(b, action, today, s.minCancelDays)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionComplete:
		err = s.bookings.CompleteBooking(ctx, b.ID, b.Version)
	case ActionReject:
		var v domain.Validation
		if in.AlternativeDate != nil {
			v.Check(in.AlternativeDate.After(today.Time), "alternative_date", "Alternative date must be in the future.")
		}
		if in.AlternativeTimeSlot != "" {
			v.Check(models.IsValidTimeSlot(in.AlternativeTimeSlot), "alternative_time_slot", "Invalid time slot.")
		}
		v.Check(len(in.RejectionReason) <= 500, "rejection_reason", "Ensure this field has no more than 500 characters.")
		if err := v.Err(); err != nil {
			return nil, err
		}
		notes := RejectionNotes(b.Notes, in.RejectionReason, in.AlternativeDate, in.AlternativeTimeSlot)
		err = s.bookings.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, status, notes)
	case ActionConfirm, ActionCancel:
		err = s.bookings.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, status, b.Notes)
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.get(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(eventForStatus(status), updated, p)
	return updated, nil
}

// Cancel cancels the calling tourist's booking while the lead time allows it.
func (s *BookingService) Cancel(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	touristID, err := requireTourist(p)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.TouristID != touristID {
		return nil, domain.ErrForbidden
	}

	status, err := NextStatus(b, ActionCancel, s.today(), s.minCancelDays)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, status, b.Notes); err != nil {
		return nil, err
	}

	updated, err := s.get(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.EventBookingCancelled, updated, p)
	return updated, nil
}

// Invoice renders an xlsx invoice of a booking for one of its participants.
func (s *BookingService) Invoice(ctx context.Context, p models.Principal, id int64) (*bytes.Buffer, string, error) {
	b, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, "", err
	}
	base := b.TotalPrice / float64(b.GroupSize)
	if tour, err := s.tours.GetTour(ctx, b.TourID); err == nil {
		base = tour.Price
	}
	buf, err := export.Invoice(b, pricing.NewQuote(base, b.GroupSize), s.currency)
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("invoice_%d.xlsx", b.ID), nil
}

// Export renders the calling guide's bookings between from and to as xlsx.
func (s *BookingService) Export(ctx context.Context, p models.Principal, from, to models.Date) (*bytes.Buffer, string, error) {
	guideID, err := requireGuide(p)
	if err != nil {
		return nil, "", err
	}
	if from.IsZero() || to.IsZero() {
		return nil, "", domain.Invalid("from", "Both from and to dates are required.")
	}
	if to.Before(from.Time) {
		return nil, "", domain.Invalid("to", "End date must not be before start date.")
	}

	bookings, err := s.list(ctx, models.BookingFilter{GuideID: guideID, From: &from, To: &to, Ascending: true, Limit: s.maxExportRows})
	if err != nil {
		return nil, "", err
	}
	buf, err := export.Bookings(bookings, from, to)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info().Int64("guide_id", guideID).Int("rows", len(bookings)).Msg("Bookings exported")
	return buf, fmt.Sprintf("bookings_%s_to_%s.xlsx", from, to), nil
}

func eventForStatus(status string) string {
	switch status {
	case models.StatusConfirmed:
		return events.EventBookingConfirmed
	case models.StatusCompleted:
		return events.EventBookingCompleted
	case models.StatusCancelled:
		return events.EventBookingCancelled
	default:
		return events.EventBookingCreated
	}
}

func (s *BookingService) publishEvent(eventType string, b *models.Booking, p models.Principal) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:   b.ID,
		TourID:      b.TourID,
		TouristID:   b.TouristID,
		GuideID:     b.GuideID,
		Status:      b.Status,
		Date:        b.BookingDate.String(),
		TimeSlot:    b.TimeSlot,
		GroupSize:   b.GroupSize,
		TotalPrice:  b.TotalPrice,
		ChangedBy:   string(p.Role),
		ChangedByID: p.UserID,
		OccurredAt:  s.now(),
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Int64("booking_id", b.ID).Msg("Failed to publish booking event")
	}
}
