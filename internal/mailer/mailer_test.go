package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watermelon-studio/studio-booking/config"
	"github.com/watermelon-studio/studio-booking/internal/models"
	"github.com/watermelon-studio/studio-booking/internal/notify"
)

type sentMail struct {
	to      []string
	subject string
	body    string
}

type fakeSender struct {
	sent    []sentMail
	failFor string // fail sends whose subject contains this
}

func (s *fakeSender) Send(to []string, subject, body string) error {
	if s.failFor != "" && strings.Contains(subject, s.failFor) {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type recordedActivity struct {
	entries []string
}

func (a *recordedActivity) Record(_ context.Context, log string) error {
	a.entries = append(a.entries, log)
	return nil
}

func (a *recordedActivity) ListRecent(_ context.Context, _ int) ([]models.ActivityLog, error) {
	return nil, nil
}

func mailerConfig() *config.Config {
	return &config.Config{
		StudioEmail:   "studio@example.com",
		SupportEmail:  "support@example.com",
		SubjectPrefix: "[Watermelon]",
	}
}

func bookingPayload(t *testing.T, msg notify.BookingMessage) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func testBookingMessage() notify.BookingMessage {
	return notify.BookingMessage{
		BookingID: 7,
		EventID:   1,
		EventName: "Pole Conditioning",
		EventDate: time.Date(2026, time.September, 14, 19, 30, 0, 0, time.UTC),
		Username:  "alice",
		UserEmail: "alice@example.com",
		Cost:      7.5,
	}
}

func TestDispatch_BookingCreated(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer(sender, mailerConfig(), nil)

	err := m.dispatch(notify.KeyBookingCreated, bookingPayload(t, testBookingMessage()))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	mail := sender.sent[0]
	assert.Equal(t, []string{"alice@example.com"}, mail.to)
	assert.Equal(t, "[Watermelon] Booking confirmed: Pole Conditioning", mail.subject)
	assert.Contains(t, mail.body, "Hi alice")
	assert.Contains(t, mail.body, "Mon 14 Sep 2026 19:30")
	assert.Contains(t, mail.body, "£7.50")
}

func TestDispatch_BookingCreatedNotifiesStudio(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer(sender, mailerConfig(), nil)

	msg := testBookingMessage()
	msg.NotifyStudio = true
	err := m.dispatch(notify.KeyBookingCreated, bookingPayload(t, msg))
	require.NoError(t, err)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, []string{"alice@example.com"}, sender.sent[0].to)
	assert.Equal(t, []string{"studio@example.com"}, sender.sent[1].to)
}

func TestDispatch_RebookedPaidFlagsActionRequired(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer(sender, mailerConfig(), nil)

	msg := testBookingMessage()
	msg.Rebooked = true
	msg.Paid = true
	msg.NotifyStudio = true
	err := m.dispatch(notify.KeyBookingRebooked, bookingPayload(t, msg))
	require.NoError(t, err)

	require.Len(t, sender.sent, 2)
	studio := sender.sent[1]
	assert.Contains(t, studio.subject, "ACTION REQUIRED")
	assert.Contains(t, studio.body, "review the payment")
}

func TestDispatch_RebookedUnpaidStudioSubjectIsPlain(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer(sender, mailerConfig(), nil)

	msg := testBookingMessage()
	msg.Rebooked = true
	msg.NotifyStudio = true
	err := m.dispatch(notify.KeyBookingRebooked, bookingPayload(t, msg))
	require.NoError(t, err)

	require.Len(t, sender.sent, 2)
	assert.NotContains(t, sender.sent[1].subject, "ACTION REQUIRED")
}

func TestDispatch_FreeBookingBody(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer(sender, mailerConfig(), nil)

	msg := testBookingMessage()
	msg.Cost = 0
	err := m.dispatch(notify.KeyBookingCreated, bookingPayload(t, msg))
	require.NoError(t, err)

	assert.Contains(t, sender.sent[0].body, "no charge")
	assert.NotContains(t, sender.sent[0].body, "£")
}

func TestDispatch_WaitingListSpot(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer(sender, mailerConfig(), nil)

	payload, err := json.Marshal(notify.WaitingListMessage{
		EventID:   1,
		EventName: "Pole Conditioning",
		EventDate: time.Date(2026, time.September, 14, 19, 30, 0, 0, time.UTC),
		Emails:    []string{"bob@example.com", "cat@example.com"},
	})
	require.NoError(t, err)

	require.NoError(t, m.dispatch(notify.KeyWaitingListSpot, payload))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"bob@example.com", "cat@example.com"}, sender.sent[0].to)
	assert.Contains(t, sender.sent[0].body, "space has become available")
}

func TestDispatch_WaitingListNoRecipients(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer(sender, mailerConfig(), nil)

	payload, err := json.Marshal(notify.WaitingListMessage{EventName: "Pole"})
	require.NoError(t, err)
	require.NoError(t, m.dispatch(notify.KeyWaitingListSpot, payload))
	assert.Empty(t, sender.sent)
}

func TestDispatch_BlockBooked(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer(sender, mailerConfig(), nil)

	payload, err := json.Marshal(notify.BlockMessage{
		BlockID:    50,
		BlockName:  "Autumn Block",
		EventNames: []string{"Pole Conditioning", "Pole Tricks"},
		Username:   "alice",
		UserEmail:  "alice@example.com",
		ItemCost:   6,
	})
	require.NoError(t, err)

	require.NoError(t, m.dispatch(notify.KeyBlockBooked, payload))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].body, "2 classes at £6.00 each")
	assert.Contains(t, sender.sent[0].body, "- Pole Tricks")
}

func TestDispatch_UnknownKeyIgnored(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer(sender, mailerConfig(), nil)

	require.NoError(t, m.dispatch("booking.unknown", []byte(`{}`)))
	assert.Empty(t, sender.sent)
}

func TestDispatch_BadPayload(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer(sender, mailerConfig(), nil)

	err := m.dispatch(notify.KeyBookingCreated, []byte(`not json`))
	assert.Error(t, err)
}

func TestDispatch_SendFailureSurfaces(t *testing.T) {
	sender := &fakeSender{failFor: "Booking confirmed"}
	m := NewMailer(sender, mailerConfig(), nil)

	err := m.dispatch(notify.KeyBookingCreated, bookingPayload(t, testBookingMessage()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp unavailable")
}

func TestReportFailure(t *testing.T) {
	sender := &fakeSender{}
	activity := &recordedActivity{}
	m := NewMailer(sender, mailerConfig(), activity)

	m.reportFailure(notify.KeyBookingCreated, errors.New("smtp unavailable"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"support@example.com"}, sender.sent[0].to)
	assert.Contains(t, sender.sent[0].body, notify.KeyBookingCreated)
	require.Len(t, activity.entries, 1)
	assert.Contains(t, activity.entries[0], "Email delivery failed")
}
