package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	SlotMorning   = "morning"
	SlotAfternoon = "afternoon"
	SlotEvening   = "evening"
	SlotFullDay   = "full_day"
)

// TimeSlots lists the bookable slots in display order.
var TimeSlots = []string{SlotMorning, SlotAfternoon, SlotEvening, SlotFullDay}

var timeSlotLabels = map[string]string{
	SlotMorning:   "Morning (8:00-12:00)",
	SlotAfternoon: "Afternoon (13:00-17:00)",
	SlotEvening:   "Evening (18:00-22:00)",
	SlotFullDay:   "Full Day (8:00-17:00)",
}

// IsValidTimeSlot reports whether slot is one of TimeSlots.
func IsValidTimeSlot(slot string) bool {
	_, ok := timeSlotLabels[slot]
	return ok
}

// TimeSlotLabel returns the human readable slot name.
func TimeSlotLabel(slot string) string {
	if label, ok := timeSlotLabels[slot]; ok {
		return label
	}
	return slot
}

const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

const (
	TourActive   = "active"
	TourInactive = "inactive"
	TourDraft    = "draft"
)

const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
	RequestExpired  = "expired"
)

const (
	SenderTourist = "tourist"
	SenderGuide   = "guide"
)

const (
	// DefaultMaxGroupSize is applied when a tour is created without a limit.
	DefaultMaxGroupSize = 8

	// DefaultConversationSubject is used when a tourist starts a conversation without one.
	DefaultConversationSubject = "Tour Inquiry"

	// MinCancelDays is the lead time, in days, a tourist needs to cancel.
	MinCancelDays = 1

	// DefaultMaxBookingDays bounds how far ahead a booking can be made.
	DefaultMaxBookingDays = 365

	// RateLimitMessages messages per window a user may send.
	RateLimitMessages = 20

	// RateLimitWindow message rate window in seconds.
	RateLimitWindow = 60

	// WeatherForecastDays is the forecast horizon of the weather provider.
	WeatherForecastDays = 5

	// WeatherCacheTTL in seconds.
	WeatherCacheTTL = 60 * 60

	DefaultCurrency = "DZD"

	DefaultPageSize = 20
	MaxPageSize     = 100

	RecentBookingsLimit = 5
)
