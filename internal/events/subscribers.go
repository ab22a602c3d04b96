package events

import (
	"encoding/json"

	"tourguide/internal/metrics"

	"github.com/rs/zerolog"
)

// RegisterMetrics feeds domain counters and the audit log from the bus.
func RegisterMetrics(bus *EventBus, logger *zerolog.Logger) {
	for _, t := range []string{EventBookingCreated, EventBookingConfirmed, EventBookingCancelled, EventBookingCompleted} {
		bus.Subscribe(t, func(e *Event) error {
			var p BookingEventPayload
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return err
			}
			metrics.IncBookingTransition(p.Status)
			logger.Info().
				Str("event", e.Type).
				Int64("booking_id", p.BookingID).
				Str("status", p.Status).
				Str("changed_by", p.ChangedBy).
				Msg("booking event")
			return nil
		})
	}

	bus.Subscribe(EventReviewCreated, func(e *Event) error {
		metrics.IncReviewCreated()
		return nil
	})

	bus.Subscribe(EventMessageSent, func(e *Event) error {
		var p MessageEventPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		metrics.IncMessageSent(p.SenderType)
		return nil
	})
}
