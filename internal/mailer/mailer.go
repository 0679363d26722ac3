// Package mailer turns booking notifications into emails. It runs as its
// own process so a slow or unreachable SMTP server never holds up a
// booking request.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/watermelon-studio/studio-booking/config"
	"github.com/watermelon-studio/studio-booking/internal/notify"
	"github.com/watermelon-studio/studio-booking/internal/repository"
)

// Sender delivers one message; tests substitute a recorder.
type Sender interface {
	Send(to []string, subject, body string) error
}

// SMTPSender is the production Sender.
type SMTPSender struct {
	cfg *config.Config
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(to []string, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.cfg.FromEmail, strings.Join(to, ", "), subject, body)
	return smtp.SendMail(addr, auth, s.cfg.FromEmail, to, []byte(msg))
}

type Mailer struct {
	sender   Sender
	cfg      *config.Config
	activity repository.ActivityRepository
}

// NewMailer builds the worker; activity may be nil when no database is
// available.
func NewMailer(sender Sender, cfg *config.Config, activity repository.ActivityRepository) *Mailer {
	return &Mailer{sender: sender, cfg: cfg, activity: activity}
}

// Start drains deliveries until the channel closes.
func (m *Mailer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			m.handleMessage(msg)
		}
		log.Println("[Mailer] channel closed, stopping consumer")
	}()
}

func (m *Mailer) handleMessage(msg amqp.Delivery) {
	if err := m.dispatch(msg.RoutingKey, msg.Body); err != nil {
		log.Printf("[Mailer] %s: %v", msg.RoutingKey, err)
		m.reportFailure(msg.RoutingKey, err)
	}
	// mail is best-effort: a failed send is reported, not requeued, so a
	// bad address cannot wedge the queue
	msg.Ack(false)
}

func (m *Mailer) dispatch(routingKey string, body []byte) error {
	switch routingKey {
	case notify.KeyBookingCreated:
		return m.bookingMail(body, "booking_created")
	case notify.KeyBookingRebooked:
		return m.bookingMail(body, "booking_rebooked")
	case notify.KeyBookingCancelled:
		return m.bookingMail(body, "booking_cancelled")
	case notify.KeyBookingPaid:
		return m.studioOnlyMail(body, "booking_paid")
	case notify.KeyBlockBooked:
		return m.blockMail(body)
	case notify.KeyWaitingListSpot:
		return m.waitingListMail(body)
	default:
		log.Printf("[Mailer] ignoring unknown routing key %s", routingKey)
		return nil
	}
}

func (m *Mailer) bookingMail(body []byte, name string) error {
	var msg notify.BookingMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	if err := m.send([]string{msg.UserEmail}, name, msg); err != nil {
		return err
	}
	if msg.NotifyStudio {
		return m.send([]string{m.cfg.StudioEmail}, name+"_studio", msg)
	}
	return nil
}

func (m *Mailer) studioOnlyMail(body []byte, name string) error {
	var msg notify.BookingMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return m.send([]string{m.cfg.StudioEmail}, name, msg)
}

func (m *Mailer) blockMail(body []byte) error {
	var msg notify.BlockMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return m.send([]string{msg.UserEmail}, "block_booked", msg)
}

func (m *Mailer) waitingListMail(body []byte) error {
	var msg notify.WaitingListMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if len(msg.Emails) == 0 {
		return nil
	}
	return m.send(msg.Emails, "waitinglist_spot", msg)
}

func (m *Mailer) send(to []string, name string, data any) error {
	subject, err := render(name+"_subject", data)
	if err != nil {
		return err
	}
	body, err := render(name+"_body", data)
	if err != nil {
		return err
	}
	if m.cfg.SubjectPrefix != "" {
		subject = m.cfg.SubjectPrefix + " " + subject
	}
	if err := m.sender.Send(to, subject, body); err != nil {
		return fmt.Errorf("send %q to %v: %w", subject, to, err)
	}
	return nil
}

// reportFailure tells the support address a mail did not go out. Also
// fire-and-forget: if this send fails too, the activity log row is all
// that is left.
func (m *Mailer) reportFailure(routingKey string, cause error) {
	body := fmt.Sprintf("A notification email failed to send.\n\nRouting key: %s\nError: %v\n", routingKey, cause)
	subject := m.cfg.SubjectPrefix + " email delivery failure"
	if err := m.sender.Send([]string{m.cfg.SupportEmail}, subject, body); err != nil {
		log.Printf("[Mailer] support notification failed: %v", err)
	}
	if m.activity != nil {
		err := m.activity.Record(context.Background(),
			fmt.Sprintf("Email delivery failed for %s: %v", routingKey, cause))
		if err != nil {
			log.Printf("[Mailer] activity log failed: %v", err)
		}
	}
}

func render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}
