package models

import "time"

type BookingStatus string

const (
	StatusOpen      BookingStatus = "OPEN"
	StatusCancelled BookingStatus = "CANCELLED"
)

const (
	TypeClass = "CL"
	TypeEvent = "EV"
)

// EventType categorises events; immutable reference data. The (Type,
// Subtype) pair determines whether events show on the classes or the
// workshops listing.
type EventType struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Type    string `gorm:"type:varchar(2);not null;uniqueIndex:idx_event_type_subtype" json:"type"`
	Subtype string `gorm:"not null;uniqueIndex:idx_event_type_subtype" json:"subtype"`
}

// Event is a single bookable class or workshop occurrence.
type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	EventTypeID uint      `gorm:"not null" json:"event_type_id"`
	Description string    `json:"description"`
	Date        time.Time `gorm:"not null" json:"date"`
	Location    string    `gorm:"default:'Watermelon Studio'" json:"location"`

	// nil means no participant limit.
	MaxParticipants *int `json:"max_participants,omitempty"`

	ContactPerson string  `json:"contact_person"`
	ContactEmail  string  `json:"contact_email"`
	Cost          float64 `gorm:"not null" json:"cost"`

	AdvancePaymentRequired bool       `gorm:"default:true" json:"advance_payment_required"`
	BookingOpen            bool       `gorm:"default:false" json:"booking_open"`
	PaymentInfo            string     `json:"payment_info,omitempty"`
	PaymentDueDate         *time.Time `json:"payment_due_date,omitempty"`
	CancellationPeriod     int        `gorm:"default:24" json:"cancellation_period"`
	EmailStudioWhenBooked  bool       `gorm:"default:false" json:"email_studio_when_booked"`
	Slug                   string     `gorm:"uniqueIndex;not null" json:"slug"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventType *EventType `gorm:"foreignKey:EventTypeID" json:"event_type,omitempty"`
}

// SpacesLeft returns the remaining capacity given the current count of open
// bookings. The second value is false when the event has no participant
// limit; the int is meaningless in that case.
func (e *Event) SpacesLeft(openBookings int64) (int, bool) {
	if e.MaxParticipants == nil {
		return 0, false
	}
	return *e.MaxParticipants - int(openBookings), true
}

// HasSpace reports whether one more open booking fits.
func (e *Event) HasSpace(openBookings int64) bool {
	left, limited := e.SpacesLeft(openBookings)
	return !limited || left > 0
}

// Bookable reports whether the event can be booked right now: booking must
// be open, the payment due date (if any) still in the future, and a space
// free.
func (e *Event) Bookable(openBookings int64, now time.Time) bool {
	if !e.BookingOpen {
		return false
	}
	if e.PaymentDueDate != nil && !e.PaymentDueDate.After(now) {
		return false
	}
	return e.HasSpace(openBookings)
}

// CanCancel reports whether the event is still outside its cancellation
// period (hours before the event date).
func (e *Event) CanCancel(now time.Time) bool {
	return e.Date.Sub(now).Hours() > float64(e.CancellationPeriod)
}

// Block is a set of classes sold together; the item cost overrides the
// per-event cost when a user books the whole block.
type Block struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Name     string  `gorm:"not null" json:"name"`
	ItemCost float64 `gorm:"not null" json:"item_cost"`

	// Opening a block opens booking on every member event. Closing it
	// does NOT close the individual events.
	BookingOpen bool `gorm:"default:false" json:"booking_open"`

	// Earliest date single-class booking is allowed for member events,
	// normalised to midnight.
	IndividualBookingDate time.Time `json:"individual_booking_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Events []Event `gorm:"many2many:block_events" json:"events,omitempty"`
}

// Booking ties one user to one seat of one event. Cost is snapshotted at
// booking time so later price edits don't rewrite history.
type Booking struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  string `gorm:"not null" json:"user_id"`
	EventID uint   `gorm:"not null" json:"event_id"`

	Status     BookingStatus `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	DateBooked time.Time     `json:"date_booked"`

	Paid                 bool       `gorm:"default:false" json:"paid"`
	PaymentConfirmed     bool       `gorm:"default:false" json:"payment_confirmed"`
	DatePaymentConfirmed *time.Time `json:"date_payment_confirmed,omitempty"`

	Attended     bool `gorm:"default:false" json:"attended"`
	ReminderSent bool `gorm:"default:false" json:"-"`
	WarningSent  bool `gorm:"default:false" json:"-"`

	Cost    float64 `gorm:"not null" json:"cost"`
	BlockID *uint   `json:"block_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Block *Block `gorm:"foreignKey:BlockID" json:"-"`
}

// SpaceConfirmed is derived, never stored: false when cancelled, otherwise
// true when no advance payment is needed, the event is free, or payment has
// been confirmed.
func (b *Booking) SpaceConfirmed(e *Event) bool {
	if b.Status == StatusCancelled {
		return false
	}
	return !e.AdvancePaymentRequired || e.Cost == 0 || b.PaymentConfirmed
}

// WaitingListUser marks a user's intent to be emailed when a spot frees up
// on a full event. It carries no capacity semantics.
type WaitingListUser struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"not null;uniqueIndex:idx_waiting_user_event" json:"user_id"`
	UserEmail  string    `gorm:"not null" json:"-"`
	EventID    uint      `gorm:"not null;uniqueIndex:idx_waiting_user_event" json:"event_id"`
	DateJoined time.Time `json:"date_joined"`

	Event *Event `gorm:"foreignKey:EventID" json:"-"`
}

// ActivityLog is the append-only audit trail; one row per state-changing
// action.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Log       string    `gorm:"not null" json:"log"`
	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`
}
