package service

import (
	"fmt"
	"strings"

	"tourguide/internal/domain"
	"tourguide/internal/models"
)

// Action is a requested booking status change.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// ParseGuideAction validates an action a guide may request.
func ParseGuideAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionConfirm, ActionReject, ActionComplete:
		return a, nil
	default:
		return "", domain.Invalid("action", "must be one of confirm, reject, complete")
	}
}

// NextStatus returns the status a booking moves to when action is applied on today.
func NextStatus(b *models.Booking, action Action, today models.Date, minCancelDays int) (string, error) {
	if b.IsTerminal() {
		return "", fmt.Errorf("%w: booking is already %s", domain.ErrInvalidTransition, b.Status)
	}

	switch action {
	case ActionConfirm:
		if b.Status != models.StatusPending {
			return "", fmt.Errorf("%w: can only confirm pending bookings", domain.ErrInvalidTransition)
		}
		return models.StatusConfirmed, nil
	case ActionReject:
		if b.Status != models.StatusPending {
			return "", fmt.Errorf("%w: can only reject pending bookings", domain.ErrInvalidTransition)
		}
		return models.StatusCancelled, nil
	case ActionComplete:
		if b.Status != models.StatusConfirmed {
			return "", fmt.Errorf("%w: can only complete confirmed bookings", domain.ErrInvalidTransition)
		}
		if b.BookingDate.After(today.Time) {
			return "", fmt.Errorf("%w: cannot complete a booking before its date", domain.ErrInvalidTransition)
		}
		return models.StatusCompleted, nil
	case ActionCancel:
		if b.DaysUntil(today) < minCancelDays {
			return "", fmt.Errorf("%w: cannot cancel less than %d day(s) before the tour", domain.ErrInvalidTransition, minCancelDays)
		}
		return models.StatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", domain.ErrInvalidTransition, action)
	}
}

// RejectionNotes appends the guide's rejection details to existing booking notes.
func RejectionNotes(notes, reason string, alternativeDate *models.Date, alternativeSlot string) string {
	var parts []string
	if r := strings.TrimSpace(reason); r != "" {
		parts = append(parts, "Rejection reason: "+r)
	}
	if alternativeDate != nil {
		parts = append(parts, "Alternative date suggested: "+alternativeDate.String())
	}
	if alternativeSlot != "" {
		parts = append(parts, "Alternative time slot suggested: "+models.TimeSlotLabel(alternativeSlot))
	}
	if len(parts) == 0 {
		return notes
	}
	extra := strings.Join(parts, "\n")
	if strings.TrimSpace(notes) == "" {
		return extra
	}
	return notes + "\n\n" + extra
}
