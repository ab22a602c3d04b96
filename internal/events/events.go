package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"

	EventReviewCreated   = "review_created"
	EventReviewUpdated   = "review_updated"
	EventReviewModerated = "review_moderated"

	EventMessageSent           = "message_sent"
	EventCustomRequestCreated  = "custom_request_created"
	EventCustomRequestAnswered = "custom_request_answered"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID   int64     `json:"booking_id"`
	TourID      int64     `json:"tour_id"`
	TouristID   int64     `json:"tourist_id"`
	GuideID     int64     `json:"guide_id"`
	Status      string    `json:"status"`
	Date        string    `json:"date"`
	TimeSlot    string    `json:"time_slot"`
	GroupSize   int       `json:"group_size"`
	TotalPrice  float64   `json:"total_price"`
	ChangedBy   string    `json:"changed_by,omitempty"`
	ChangedByID int64     `json:"changed_by_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type ReviewEventPayload struct {
	ReviewID  int64 `json:"review_id"`
	BookingID int64 `json:"booking_id"`
	GuideID   int64 `json:"guide_id"`
	Rating    int   `json:"rating"`
	Approved  bool  `json:"approved"`
}

type MessageEventPayload struct {
	ConversationID int64  `json:"conversation_id,omitempty"`
	MessageID      int64  `json:"message_id,omitempty"`
	RequestID      int64  `json:"request_id,omitempty"`
	SenderType     string `json:"sender_type,omitempty"`
	Status         string `json:"status,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. Handlers run synchronously
// and the first handler error is returned after all handlers ran.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var firstErr error
	for _, handler := range handlers {
		if err := handler(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
