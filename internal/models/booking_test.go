package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestSpacesLeft_Limited(t *testing.T) {
	e := &Event{MaxParticipants: intPtr(3)}

	left, limited := e.SpacesLeft(0)
	assert.True(t, limited)
	assert.Equal(t, 3, left)

	left, _ = e.SpacesLeft(3)
	assert.Equal(t, 0, left)
	assert.False(t, e.HasSpace(3))
}

func TestSpacesLeft_Unlimited(t *testing.T) {
	e := &Event{}

	_, limited := e.SpacesLeft(500)
	assert.False(t, limited)
	assert.True(t, e.HasSpace(500), "unlimited events never fill up")
}

func TestBookable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		event Event
		open  int64
		want  bool
	}{
		{"open with space", Event{BookingOpen: true, MaxParticipants: intPtr(5)}, 4, true},
		{"booking closed", Event{BookingOpen: false, MaxParticipants: intPtr(5)}, 0, false},
		{"full", Event{BookingOpen: true, MaxParticipants: intPtr(5)}, 5, false},
		{"past payment due date", Event{BookingOpen: true, PaymentDueDate: &past}, 0, false},
		{"future payment due date", Event{BookingOpen: true, PaymentDueDate: &future}, 0, true},
		{"unlimited", Event{BookingOpen: true}, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Bookable(tt.open, now))
		})
	}
}

func TestCanCancel(t *testing.T) {
	now := time.Now()
	e := Event{Date: now.Add(48 * time.Hour), CancellationPeriod: 24}
	assert.True(t, e.CanCancel(now))

	e.Date = now.Add(12 * time.Hour)
	assert.False(t, e.CanCancel(now))

	// exactly on the boundary is too late
	e.Date = now.Add(24 * time.Hour)
	assert.False(t, e.CanCancel(now))
}

func TestSpaceConfirmed(t *testing.T) {
	costed := &Event{Cost: 10, AdvancePaymentRequired: true}
	free := &Event{Cost: 0, AdvancePaymentRequired: false}
	noAdvance := &Event{Cost: 10, AdvancePaymentRequired: false}

	b := &Booking{Status: StatusOpen}
	assert.False(t, b.SpaceConfirmed(costed), "advance payment outstanding")
	assert.True(t, b.SpaceConfirmed(free), "free events confirm immediately")
	assert.True(t, b.SpaceConfirmed(noAdvance))

	b.PaymentConfirmed = true
	assert.True(t, b.SpaceConfirmed(costed))

	b.Status = StatusCancelled
	assert.False(t, b.SpaceConfirmed(free), "cancelled is never confirmed")
}
