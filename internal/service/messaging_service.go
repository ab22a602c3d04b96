package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tourguide/internal/config"
	"tourguide/internal/domain"
	"tourguide/internal/events"
	"tourguide/internal/models"

	"github.com/rs/zerolog"
)

type MessagingService struct {
	messaging  domain.MessagingRepository
	profiles   domain.ProfileRepository
	cache      domain.Cache
	eventBus   domain.EventPublisher
	rateLimit  int
	rateWindow time.Duration
	logger     *zerolog.Logger
	clock
}

func NewMessagingService(
	messaging domain.MessagingRepository,
	profiles domain.ProfileRepository,
	cache domain.Cache,
	eventBus domain.EventPublisher,
	cfg config.MessagingConfig,
	loc *time.Location,
	logger *zerolog.Logger,
) *MessagingService {
	if cfg.RateLimitMessages <= 0 {
		cfg.RateLimitMessages = models.RateLimitMessages
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = models.RateLimitWindow
	}
	return &MessagingService{
		messaging:  messaging,
		profiles:   profiles,
		cache:      cache,
		eventBus:   eventBus,
		rateLimit:  cfg.RateLimitMessages,
		rateWindow: time.Duration(cfg.RateLimitWindow) * time.Second,
		logger:     logger,
		clock:      newClock(loc),
	}
}

type StartConversationInput struct {
	GuideID int64  `json:"guide"`
	Subject string `json:"subject"`
}

// StartConversation returns the caller's conversation with the guide, creating it when absent.
// The boolean reports whether it was created.
func (s *MessagingService) StartConversation(ctx context.Context, p models.Principal, in StartConversationInput) (*models.Conversation, bool, error) {
	touristID, err := requireTourist(p)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.profiles.GetGuideProfile(ctx, in.GuideID); err != nil {
		if isNotFound(err) {
			return nil, false, domain.Invalid("guide", "Invalid guide ID.")
		}
		return nil, false, err
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = models.DefaultConversationSubject
	}
	if len(subject) > 200 {
		return nil, false, domain.Invalid("subject", "Ensure this field has no more than 200 characters.")
	}

	c, created, err := s.messaging.GetOrCreateConversation(ctx, touristID, in.GuideID, subject)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info().Int64("conversation_id", c.ID).Int64("tourist_id", touristID).Int64("guide_id", in.GuideID).Msg("Conversation started")
	}
	return c, created, nil
}

// ListConversations returns the caller's conversations with unread counts.
func (s *MessagingService) ListConversations(ctx context.Context, p models.Principal) ([]*models.Conversation, error) {
	switch p.Role {
	case models.RoleTourist:
		if p.TouristID == 0 {
			return nil, domain.ErrForbidden
		}
		return s.messaging.ListConversations(ctx, models.ConversationFilter{TouristID: p.TouristID}, models.SenderTourist)
	case models.RoleGuide:
		if p.GuideID == 0 {
			return nil, domain.ErrForbidden
		}
		return s.messaging.ListConversations(ctx, models.ConversationFilter{GuideID: p.GuideID}, models.SenderGuide)
	case models.RoleAdmin:
		return nil, domain.ErrForbidden
	default:
		return nil, domain.ErrUnauthenticated
	}
}

// participant loads a conversation and the caller's sender type in it.
func (s *MessagingService) participant(ctx context.Context, p models.Principal, id int64) (*models.Conversation, string, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, "", err
	}
	c, err := s.messaging.GetConversation(ctx, id)
	if err != nil {
		return nil, "", err
	}
	sender, err := senderType(p, c)
	if err != nil {
		return nil, "", err
	}
	return c, sender, nil
}

func (s *MessagingService) GetConversation(ctx context.Context, p models.Principal, id int64) (*models.Conversation, error) {
	c, _, err := s.participant(ctx, p, id)
	return c, err
}

// Messages returns the conversation's messages, oldest first.
func (s *MessagingService) Messages(ctx context.Context, p models.Principal, id int64) ([]*models.Message, error) {
	c, _, err := s.participant(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.messaging.ListMessages(ctx, c.ID)
}

// SendMessage appends a message from the caller, subject to the per-user rate limit.
func (s *MessagingService) SendMessage(ctx context.Context, p models.Principal, id int64, content string) (*models.Message, error) {
	c, sender, err := s.participant(ctx, p, id)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.Invalid("content", "Message content cannot be empty.")
	}
	if err := s.checkRateLimit(ctx, p); err != nil {
		return nil, err
	}

	m := &models.Message{ConversationID: c.ID, SenderType: sender, Content: content}
	if err := s.messaging.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	s.publishEvent(events.EventMessageSent, events.MessageEventPayload{
		ConversationID: c.ID,
		MessageID:      m.ID,
		SenderType:     sender,
	})
	return m, nil
}

func (s *MessagingService) checkRateLimit(ctx context.Context, p models.Principal) error {
	if s.cache == nil {
		return nil
	}
	allowed, err := s.cache.CheckRateLimit(ctx, fmt.Sprintf("messages:%d", p.UserID), s.rateLimit, s.rateWindow)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", p.UserID).Msg("Message rate limit check failed")
		return nil
	}
	if !allowed {
		return domain.ErrRateLimited
	}
	return nil
}

// MarkRead marks the other party's messages in the conversation as read.
func (s *MessagingService) MarkRead(ctx context.Context, p models.Principal, id int64) (int64, error) {
	c, sender, err := s.participant(ctx, p, id)
	if err != nil {
		return 0, err
	}
	return s.messaging.MarkMessagesRead(ctx, c.ID, sender)
}

type CustomRequestInput struct {
	GuideID             int64       `json:"guide"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	PreferredDate       models.Date `json:"preferred_date"`
	DurationHours       int         `json:"duration_hours"`
	GroupSize           int         `json:"group_size"`
	Budget              *float64    `json:"budget"`
	SpecialRequirements string      `json:"special_requirements"`
}

// CreateCustomRequest sends a tourist's ad hoc tour proposal to a guide.
func (s *MessagingService) CreateCustomRequest(ctx context.Context, p models.Principal, in CustomRequestInput) (*models.CustomTourRequest, error) {
	touristID, err := requireTourist(p)
	if err != nil {
		return nil, err
	}

	var v domain.Validation
	v.Check(strings.TrimSpace(in.Title) != "", "title", "This field is required.")
	v.Check(len(in.Title) <= 200, "title", "Ensure this field has no more than 200 characters.")
	v.Check(strings.TrimSpace(in.Description) != "", "description", "This field is required.")
	v.Check(!in.PreferredDate.IsZero() && in.PreferredDate.After(s.today().Time), "preferred_date", "Preferred date must be in the future.")
	v.Check(in.DurationHours >= 1, "duration_hours", "Duration must be at least 1 hour.")
	v.Check(in.GroupSize >= 1, "group_size", "Group size must be at least 1.")
	v.Check(in.Budget == nil || *in.Budget >= 0, "budget", "Budget cannot be negative.")
	if err := v.Err(); err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetGuideProfile(ctx, in.GuideID); err != nil {
		if isNotFound(err) {
			return nil, domain.Invalid("guide", "Invalid guide ID.")
		}
		return nil, err
	}

	r := &models.CustomTourRequest{
		TouristID:           touristID,
		GuideID:             in.GuideID,
		Title:               strings.TrimSpace(in.Title),
		Description:         strings.TrimSpace(in.Description),
		PreferredDate:       in.PreferredDate,
		DurationHours:       in.DurationHours,
		GroupSize:           in.GroupSize,
		Budget:              in.Budget,
		SpecialRequirements: strings.TrimSpace(in.SpecialRequirements),
		Status:              models.RequestPending,
	}
	if err := s.messaging.CreateCustomRequest(ctx, r); err != nil {
		return nil, err
	}
	s.publishEvent(events.EventCustomRequestCreated, events.MessageEventPayload{RequestID: r.ID, Status: r.Status})
	return s.messaging.GetCustomRequest(ctx, r.ID)
}

// ListCustomRequests expires stale pending requests and returns the caller's requests.
func (s *MessagingService) ListCustomRequests(ctx context.Context, p models.Principal, status string) ([]*models.CustomTourRequest, error) {
	f := models.CustomRequestFilter{Status: status}
	switch p.Role {
	case models.RoleTourist:
		if p.TouristID == 0 {
			return nil, domain.ErrForbidden
		}
		f.TouristID = p.TouristID
	case models.RoleGuide:
		if p.GuideID == 0 {
			return nil, domain.ErrForbidden
		}
		f.GuideID = p.GuideID
	case models.RoleAdmin:
	default:
		return nil, domain.ErrUnauthenticated
	}

	if n, err := s.messaging.ExpireCustomRequests(ctx, s.today()); err != nil {
		return nil, err
	} else if n > 0 {
		s.logger.Info().Int64("count", n).Msg("Expired custom tour requests")
	}
	return s.messaging.ListCustomRequests(ctx, f)
}

func (s *MessagingService) GetCustomRequest(ctx context.Context, p models.Principal, id int64) (*models.CustomTourRequest, error) {
	r, err := s.messaging.GetCustomRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeCustomRequest(p, r) {
		return nil, domain.ErrForbidden
	}
	return r, nil
}

func canSeeCustomRequest(p models.Principal, r *models.CustomTourRequest) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTourist:
		return p.TouristID != 0 && p.TouristID == r.TouristID
	case models.RoleGuide:
		return p.GuideID != 0 && p.GuideID == r.GuideID
	default:
		return false
	}
}

type CustomRequestResponse struct {
	Action          string       `json:"action"`
	GuideResponse   string       `json:"guide_response"`
	ProposedPrice   *float64     `json:"proposed_price"`
	AlternativeDate *models.Date `json:"alternative_date"`
}

// RespondCustomRequest records the addressed guide's accept or reject on a pending request.
func (s *MessagingService) RespondCustomRequest(ctx context.Context, p models.Principal, id int64, in CustomRequestResponse) (*models.CustomTourRequest, error) {
	guideID, err := requireGuide(p)
	if err != nil {
		return nil, err
	}

	var status string
	switch strings.ToLower(strings.TrimSpace(in.Action)) {
	case "accept":
		status = models.RequestAccepted
	case "reject":
		status = models.RequestRejected
	default:
		return nil, domain.Invalid("action", "must be one of accept, reject")
	}

	var v domain.Validation
	v.Check(in.ProposedPrice == nil || *in.ProposedPrice >= 0, "proposed_price", "Proposed price cannot be negative.")
	v.Check(in.AlternativeDate == nil || in.AlternativeDate.After(s.today().Time), "alternative_date", "Alternative date must be in the future.")
	if err := v.Err(); err != nil {
		return nil, err
	}

	r, err := s.messaging.GetCustomRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.GuideID != guideID {
		return nil, domain.ErrForbidden
	}
	if r.Status != models.RequestPending {
		return nil, fmt.Errorf("%w: request is already %s", domain.ErrInvalidTransition, r.Status)
	}

	r.Status = status
	r.GuideResponse = strings.TrimSpace(in.GuideResponse)
	r.ProposedPrice = in.ProposedPrice
	r.AlternativeDate = in.AlternativeDate
	if err := s.messaging.RespondCustomRequest(ctx, r); err != nil {
		return nil, err
	}
	s.publishEvent(events.EventCustomRequestAnswered, events.MessageEventPayload{RequestID: r.ID, Status: r.Status})
	return s.messaging.GetCustomRequest(ctx, r.ID)
}

func (s *MessagingService) publishEvent(eventType string, payload events.MessageEventPayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to publish messaging event")
	}
}
