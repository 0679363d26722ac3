// Package notify defines the messages published to the notification
// exchange. The mailer worker consumes them and turns them into emails;
// publishing is fire-and-forget so a broker outage never blocks a booking.
package notify

import "time"

// Routing keys on the topic exchange.
const (
	KeyBookingCreated   = "booking.created"
	KeyBookingRebooked  = "booking.rebooked"
	KeyBookingCancelled = "booking.cancelled"
	KeyBookingPaid      = "booking.paid"
	KeyBlockBooked      = "booking.block"
	KeyWaitingListSpot  = "waitinglist.spot"
)

// Publisher is satisfied by rabbitmq.Publisher; services depend on the
// interface so tests can substitute a recorder.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// BookingMessage describes a booking state change for email delivery.
type BookingMessage struct {
	BookingID uint      `json:"booking_id"`
	EventID   uint      `json:"event_id"`
	EventName string    `json:"event_name"`
	EventDate time.Time `json:"event_date"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	UserEmail string    `json:"user_email"`
	Cost      float64   `json:"cost"`

	// Rebooked with Paid set means payment must be re-reviewed by the
	// studio before the space is confirmed again.
	Rebooked bool `json:"rebooked,omitempty"`
	Paid     bool `json:"paid,omitempty"`

	// NotifyStudio asks the mailer to copy the studio address in.
	NotifyStudio bool `json:"notify_studio,omitempty"`
}

// BlockMessage covers whole-block bookings and block payment confirmations.
type BlockMessage struct {
	BlockID    uint     `json:"block_id"`
	BlockName  string   `json:"block_name"`
	EventNames []string `json:"event_names"`
	UserID     string   `json:"user_id"`
	Username   string   `json:"username"`
	UserEmail  string   `json:"user_email"`
	ItemCost   float64  `json:"item_cost"`
	Paid       bool     `json:"paid,omitempty"`
}

// WaitingListMessage is sent when a cancellation frees the last occupied
// slot. Advisory only: recipients race for the spot on a first-come basis.
type WaitingListMessage struct {
	EventID   uint      `json:"event_id"`
	EventName string    `json:"event_name"`
	EventDate time.Time `json:"event_date"`
	Emails    []string  `json:"emails"`
}
