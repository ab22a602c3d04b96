package service

import (
	"testing"

	"tourguide/internal/domain"
	"tourguide/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	today := testToday()
	tomorrow := today.AddDays(1)
	yesterday := today.AddDays(-1)

	tests := []struct {
		name    string
		status  string
		date    models.Date
		action  Action
		want    string
		wantErr bool
	}{
		{"confirm pending", models.StatusPending, tomorrow, ActionConfirm, models.StatusConfirmed, false},
		{"reject pending", models.StatusPending, tomorrow, ActionReject, models.StatusCancelled, false},
		{"confirm confirmed", models.StatusConfirmed, tomorrow, ActionConfirm, "", true},
		{"reject confirmed", models.StatusConfirmed, tomorrow, ActionReject, "", true},
		{"complete past confirmed", models.StatusConfirmed, yesterday, ActionComplete, models.StatusCompleted, false},
		{"complete today", models.StatusConfirmed, today, ActionComplete, models.StatusCompleted, false},
		{"complete future", models.StatusConfirmed, tomorrow, ActionComplete, "", true},
		{"complete pending", models.StatusPending, yesterday, ActionComplete, "", true},
		{"cancel one day ahead", models.StatusConfirmed, tomorrow, ActionCancel, models.StatusCancelled, false},
		{"cancel same day", models.StatusPending, today, ActionCancel, "", true},
		{"confirm completed", models.StatusCompleted, yesterday, ActionConfirm, "", true},
		{"cancel completed", models.StatusCompleted, tomorrow, ActionCancel, "", true},
		{"complete cancelled", models.StatusCancelled, yesterday, ActionComplete, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &models.Booking{Status: tt.status, BookingDate: tt.date}
			got, err := NextStatus(b, tt.action, today, models.MinCancelDays)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGuideAction(t *testing.T) {
	a, err := ParseGuideAction(" Confirm ")
	require.NoError(t, err)
	assert.Equal(t, ActionConfirm, a)

	_, err = ParseGuideAction("cancel")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "action")
}

func TestRejectionNotes(t *testing.T) {
	alt := testToday().AddDays(3)

	assert.Equal(t, "keep", RejectionNotes("keep", "  ", nil, ""))
	assert.Equal(t, "Rejection reason: fully booked", RejectionNotes("", "fully booked", nil, ""))

	got := RejectionNotes("Vegetarian lunch", "fully booked", &alt, models.SlotMorning)
	assert.Equal(t, "Vegetarian lunch\n\nRejection reason: fully booked\n"+
		"Alternative date suggested: 2030-03-28\n"+
		"Alternative time slot suggested: Morning (8:00-12:00)", got)
}
