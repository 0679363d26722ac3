package dto

import "time"

type CreateEventRequest struct {
	Name                   string     `json:"name" validate:"required"`
	EventTypeID            uint       `json:"event_type_id" validate:"required"`
	Description            string     `json:"description"`
	Date                   time.Time  `json:"date" validate:"required"`
	Location               string     `json:"location"`
	MaxParticipants        *int       `json:"max_participants" validate:"omitempty,gt=0"`
	ContactPerson          string     `json:"contact_person"`
	ContactEmail           string     `json:"contact_email" validate:"omitempty,email"`
	Cost                   float64    `json:"cost" validate:"gte=0"`
	AdvancePaymentRequired bool       `json:"advance_payment_required"`
	BookingOpen            bool       `json:"booking_open"`
	PaymentInfo            string     `json:"payment_info"`
	PaymentDueDate         *time.Time `json:"payment_due_date"`
	CancellationPeriod     int        `json:"cancellation_period" validate:"gte=0"`
	EmailStudioWhenBooked  bool       `json:"email_studio_when_booked"`
}

type CreateEventTypeRequest struct {
	Type    string `json:"type" validate:"required,oneof=CL EV"`
	Subtype string `json:"subtype" validate:"required"`
}

type CreateBlockRequest struct {
	Name                  string    `json:"name" validate:"required"`
	ItemCost              float64   `json:"item_cost" validate:"gte=0"`
	BookingOpen           bool      `json:"booking_open"`
	IndividualBookingDate time.Time `json:"individual_booking_date"`
	EventIDs              []uint    `json:"event_ids"`
}

type CreateBookingRequest struct {
	EventID uint `json:"event_id" validate:"required"`
}

// AdminCreateBookingRequest lets staff add a booking for a user, optionally
// directly in CANCELLED state.
type AdminCreateBookingRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	EventID uint   `json:"event_id" validate:"required"`
	Status  string `json:"status" validate:"omitempty,oneof=OPEN CANCELLED"`
}

type PageRequest struct {
	Name         string `json:"name" validate:"required"`
	MenuName     string `json:"menu_name"`
	MenuLocation string `json:"menu_location" validate:"omitempty,oneof=main dropdown"`
	Heading      string `json:"heading"`
	Layout       string `json:"layout" validate:"omitempty,oneof=no-img 1-img-top 1-img-left 1-img-right img-col-left img-col-right"`
	Content      string `json:"content" validate:"required"`
	Restricted   bool   `json:"restricted"`
}

type PictureRequest struct {
	Filename string `json:"filename" validate:"required"`
	Main     bool   `json:"main"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

type ImageRequest struct {
	Filename string `json:"filename" validate:"required"`
	Caption  string `json:"caption"`
}

type ReviewRequest struct {
	Title  string `json:"title"`
	Review string `json:"review" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}
