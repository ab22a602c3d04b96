package models

import "time"

type Conversation struct {
	ID            int64     `db:"id" json:"id"`
	TouristID     int64     `db:"tourist_id" json:"tourist_id"`
	GuideID       int64     `db:"guide_id" json:"guide_id"`
	Subject       string    `db:"subject" json:"subject"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	TouristName string   `db:"tourist_name" json:"tourist_name"`
	GuideName   string   `db:"guide_name" json:"guide_name"`
	LastMessage *Message `db:"-" json:"last_message"`
	UnreadCount int      `db:"-" json:"unread_count"`
}

type Message struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID int64     `db:"conversation_id" json:"conversation_id"`
	SenderType     string    `db:"sender_type" json:"sender_type"`
	Content        string    `db:"content" json:"content"`
	IsRead         bool      `db:"is_read" json:"is_read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CustomTourRequest is a tourist's ad hoc tour proposal addressed to one guide.
type CustomTourRequest struct {
	ID                  int64     `db:"id" json:"id"`
	TouristID           int64     `db:"tourist_id" json:"tourist_id"`
	GuideID             int64     `db:"guide_id" json:"guide_id"`
	Title               string    `db:"title" json:"title"`
	Description         string    `db:"description" json:"description"`
	PreferredDate       Date      `db:"preferred_date" json:"preferred_date"`
	DurationHours       int       `db:"duration_hours" json:"duration_hours"`
	GroupSize           int       `db:"group_size" json:"group_size"`
	Budget              *float64  `db:"budget" json:"budget"`
	SpecialRequirements string    `db:"special_requirements" json:"special_requirements"`
	Status              string    `db:"status" json:"status"`
	GuideResponse       string    `db:"guide_response" json:"guide_response"`
	ProposedPrice       *float64  `db:"proposed_price" json:"proposed_price"`
	AlternativeDate     *Date     `db:"alternative_date" json:"alternative_date"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`

	TouristName string `db:"tourist_name" json:"tourist_name"`
	GuideName   string `db:"guide_name" json:"guide_name"`
}

// ConversationFilter scopes conversations to one participant.
type ConversationFilter struct {
	TouristID int64
	GuideID   int64
}

// CustomRequestFilter scopes custom requests to one participant.
type CustomRequestFilter struct {
	TouristID int64
	GuideID   int64
	Status    string
}

// OtherParty returns the sender type whose messages the given sender reads.
func OtherParty(sender string) string {
	if sender == SenderGuide {
		return SenderTourist
	}
	return SenderGuide
}
