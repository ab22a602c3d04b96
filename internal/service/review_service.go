package service

import (
	"context"
	"strings"
	"time"

	"tourguide/internal/domain"
	"tourguide/internal/events"
	"tourguide/internal/models"

	"github.com/rs/zerolog"
)

type ReviewService struct {
	reviews  domain.ReviewRepository
	bookings domain.BookingRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	clock
}

func NewReviewService(
	reviews domain.ReviewRepository,
	bookings domain.BookingRepository,
	eventBus domain.EventPublisher,
	loc *time.Location,
	logger *zerolog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		bookings: bookings,
		eventBus: eventBus,
		logger:   logger,
		clock:    newClock(loc),
	}
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

func (in ReviewInput) validate() error {
	var v domain.Validation
	v.Check(in.Rating >= 1 && in.Rating <= 5, "rating", "Rating must be between 1 and 5.")
	v.Check(strings.TrimSpace(in.Title) != "", "title", "This field is required.")
	v.Check(len(in.Title) <= 200, "title", "Ensure this field has no more than 200 characters.")
	v.Check(strings.TrimSpace(in.Comment) != "", "comment", "This field is required.")
	return v.Err()
}

// Create reviews a completed booking of the calling tourist.
func (s *ReviewService) Create(ctx context.Context, p models.Principal, bookingID int64, in ReviewInput) (*models.Review, error) {
	touristID, err := requireTourist(p)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.TouristID != touristID {
		return nil, domain.ErrForbidden
	}
	if b.Status != models.StatusCompleted {
		return nil, domain.Invalid("booking", "Can only review completed bookings.")
	}

	r := &models.Review{
		TouristID:  touristID,
		GuideID:    b.GuideID,
		TourID:     b.TourID,
		BookingID:  b.ID,
		Rating:     in.Rating,
		Title:      strings.TrimSpace(in.Title),
		Comment:    strings.TrimSpace(in.Comment),
		IsApproved: true,
	}
	if err := s.reviews.CreateReview(ctx, r); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventReviewCreated, r)
	s.logger.Info().Int64("review_id", r.ID).Int64("booking_id", b.ID).Int("rating", r.Rating).Msg("Review created")
	return s.reviews.GetReview(ctx, r.ID)
}

// Get returns an approved review, or any review to its author and admins.
func (s *ReviewService) Get(ctx context.Context, p models.Principal, id int64) (*models.Review, error) {
	r, err := s.reviews.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.IsApproved || canManageReview(p, r) {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func canManageReview(p models.Principal, r *models.Review) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTourist:
		return p.TouristID != 0 && p.TouristID == r.TouristID
	case models.RoleGuide:
		return false
	default:
		return false
	}
}

// ListForTour returns the approved reviews of a tour, featured first.
func (s *ReviewService) ListForTour(ctx context.Context, tourID int64, limit, offset int) ([]*models.Review, error) {
	limit, offset = pageBounds(limit, offset)
	return s.reviews.ListReviews(ctx, models.ReviewFilter{TourID: tourID, ApprovedOnly: true, Limit: limit, Offset: offset})
}

// ListForGuide returns the approved reviews of a guide, featured first.
func (s *ReviewService) ListForGuide(ctx context.Context, guideID int64, limit, offset int) ([]*models.Review, error) {
	limit, offset = pageBounds(limit, offset)
	return s.reviews.ListReviews(ctx, models.ReviewFilter{GuideID: guideID, ApprovedOnly: true, Limit: limit, Offset: offset})
}

type ReviewUpdate struct {
	Rating  *int    `json:"rating"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

// Update edits the calling tourist's own review and refreshes the guide rating.
func (s *ReviewService) Update(ctx context.Context, p models.Principal, id int64, in ReviewUpdate) (*models.Review, error) {
	touristID, err := requireTourist(p)
	if err != nil {
		return nil, err
	}
	r, err := s.reviews.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.TouristID != touristID {
		return nil, domain.ErrForbidden
	}

	merged := ReviewInput{Rating: r.Rating, Title: r.Title, Comment: r.Comment}
	if in.Rating != nil {
		merged.Rating = *in.Rating
	}
	if in.Title != nil {
		merged.Title = *in.Title
	}
	if in.Comment != nil {
		merged.Comment = *in.Comment
	}
	if err := merged.validate(); err != nil {
		return nil, err
	}

	r.Rating = merged.Rating
	r.Title = strings.TrimSpace(merged.Title)
	r.Comment = strings.TrimSpace(merged.Comment)
	if err := s.reviews.UpdateReview(ctx, r); err != nil {
		return nil, err
	}
	s.publishEvent(events.EventReviewUpdated, r)
	return s.reviews.GetReview(ctx, r.ID)
}

// Respond stores the guide's public answer to a review of one of their tours.
func (s *ReviewService) Respond(ctx context.Context, p models.Principal, id int64, response string) (*models.Review, error) {
	guideID, err := requireGuide(p)
	if err != nil {
		return nil, err
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, domain.Invalid("response", "Response cannot be empty.")
	}

	r, err := s.reviews.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.GuideID != guideID {
		return nil, domain.ErrForbidden
	}
	if err := s.reviews.SetReviewResponse(ctx, r.ID, response, s.now()); err != nil {
		return nil, err
	}
	return s.reviews.GetReview(ctx, r.ID)
}

type ModerationInput struct {
	IsApproved *bool `json:"is_approved"`
	IsFeatured *bool `json:"is_featured"`
}

// Moderate lets an admin hide, approve or feature a review.
func (s *ReviewService) Moderate(ctx context.Context, p models.Principal, id int64, in ModerationInput) (*models.Review, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	r, err := s.reviews.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.IsApproved != nil {
		r.IsApproved = *in.IsApproved
	}
	if in.IsFeatured != nil {
		r.IsFeatured = *in.IsFeatured
	}
	if err := s.reviews.UpdateReview(ctx, r); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventReviewModerated, r)
	s.logger.Info().Int64("review_id", r.ID).Bool("approved", r.IsApproved).Bool("featured", r.IsFeatured).Msg("Review moderated")
	return s.reviews.GetReview(ctx, r.ID)
}

func (s *ReviewService) publishEvent(eventType string, r *models.Review) {
	if s.eventBus == nil {
		return
	}
	payload := events.ReviewEventPayload{
		ReviewID:  r.ID,
		BookingID: r.BookingID,
		GuideID:   r.GuideID,
		Rating:    r.Rating,
		Approved:  r.IsApproved,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Int64("review_id", r.ID).Msg("Failed to publish review event")
	}
}
