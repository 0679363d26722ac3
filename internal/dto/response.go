package dto

import (
	"time"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"github.com/watermelon-studio/studio-booking/internal/service"
)

type EventResponse struct {
	ID                     uint       `json:"id"`
	Name                   string     `json:"name"`
	Slug                   string     `json:"slug"`
	EventTypeID            uint       `json:"event_type_id"`
	Description            string     `json:"description,omitempty"`
	Date                   time.Time  `json:"date"`
	Location               string     `json:"location"`
	MaxParticipants        *int       `json:"max_participants,omitempty"`
	Cost                   float64    `json:"cost"`
	AdvancePaymentRequired bool       `json:"advance_payment_required"`
	BookingOpen            bool       `json:"booking_open"`
	PaymentInfo            string     `json:"payment_info,omitempty"`
	PaymentDueDate         *time.Time `json:"payment_due_date,omitempty"`
	CancellationPeriod     int        `json:"cancellation_period"`

	// nil means unlimited
	SpacesLeft *int `json:"spaces_left,omitempty"`
	Bookable   bool `json:"bookable"`
}

func ToEventResponse(d *service.EventDetail) EventResponse {
	e := d.Event
	return EventResponse{
		ID:                     e.ID,
		Name:                   e.Name,
		Slug:                   e.Slug,
		EventTypeID:            e.EventTypeID,
		Description:            e.Description,
		Date:                   e.Date,
		Location:               e.Location,
		MaxParticipants:        e.MaxParticipants,
		Cost:                   e.Cost,
		AdvancePaymentRequired: e.AdvancePaymentRequired,
		BookingOpen:            e.BookingOpen,
		PaymentInfo:            e.PaymentInfo,
		PaymentDueDate:         e.PaymentDueDate,
		CancellationPeriod:     e.CancellationPeriod,
		SpacesLeft:             d.SpacesLeft,
		Bookable:               d.Bookable,
	}
}

type BookingResponse struct {
	ID         uint                 `json:"id"`
	EventID    uint                 `json:"event_id"`
	EventName  string               `json:"event_name,omitempty"`
	EventDate  *time.Time           `json:"event_date,omitempty"`
	UserID     string               `json:"user_id"`
	Status     models.BookingStatus `json:"status"`
	DateBooked time.Time            `json:"date_booked"`
	Cost       float64              `json:"cost"`
	BlockID    *uint                `json:"block_id,omitempty"`

	Paid                 bool       `json:"paid"`
	PaymentConfirmed     bool       `json:"payment_confirmed"`
	DatePaymentConfirmed *time.Time `json:"date_payment_confirmed,omitempty"`

	SpaceConfirmed bool `json:"space_confirmed"`
	CanCancel      bool `json:"can_cancel"`
	OnWaitingList  bool `json:"on_waiting_list,omitempty"`

	// PendingReview is set when a rebooked booking was paid before it was
	// cancelled and the studio must re-review the payment.
	PendingReview bool `json:"pending_review,omitempty"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                   b.ID,
		EventID:              b.EventID,
		UserID:               b.UserID,
		Status:               b.Status,
		DateBooked:           b.DateBooked,
		Cost:                 b.Cost,
		BlockID:              b.BlockID,
		Paid:                 b.Paid,
		PaymentConfirmed:     b.PaymentConfirmed,
		DatePaymentConfirmed: b.DatePaymentConfirmed,
	}
	if b.Event != nil {
		resp.EventName = b.Event.Name
		resp.EventDate = &b.Event.Date
		resp.SpaceConfirmed = b.SpaceConfirmed(b.Event)
	}
	return resp
}

func ToBookingInfoResponse(info *service.BookingInfo) BookingResponse {
	resp := ToBookingResponse(&info.Booking)
	resp.CanCancel = info.CanCancel
	resp.OnWaitingList = info.OnWaitingList
	resp.SpaceConfirmed = info.SpaceConfirmed
	return resp
}

type BlockResponse struct {
	ID                    uint            `json:"id"`
	Name                  string          `json:"name"`
	ItemCost              float64         `json:"item_cost"`
	BookingOpen           bool            `json:"booking_open"`
	IndividualBookingDate time.Time       `json:"individual_booking_date"`
	Events                []EventResponse `json:"events,omitempty"`
}

func ToBlockResponse(b *models.Block) BlockResponse {
	resp := BlockResponse{
		ID:                    b.ID,
		Name:                  b.Name,
		ItemCost:              b.ItemCost,
		BookingOpen:           b.BookingOpen,
		IndividualBookingDate: b.IndividualBookingDate,
	}
	for i := range b.Events {
		resp.Events = append(resp.Events, ToEventResponse(&service.EventDetail{Event: b.Events[i]}))
	}
	return resp
}

// ReviewResponse shows the approved text: while an edit awaits approval
// the previously approved values stay visible.
type ReviewResponse struct {
	ID              uint      `json:"id"`
	UserDisplayName string    `json:"user_display_name"`
	SubmissionDate  time.Time `json:"submission_date"`
	Title           string    `json:"title,omitempty"`
	Review          string    `json:"review"`
	Rating          int       `json:"rating"`
	Published       bool      `json:"published"`
	Edited          bool      `json:"edited"`
	PendingApproval bool      `json:"pending_approval,omitempty"`
}

func ToReviewResponse(r *models.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:              r.ID,
		UserDisplayName: r.UserDisplayName,
		SubmissionDate:  r.SubmissionDate,
		Title:           r.Title,
		Review:          r.Review,
		Rating:          r.Rating,
		Published:       r.Published,
		Edited:          r.Edited,
	}
	if r.Edited && !r.UpdatePublished {
		resp.Title = r.PreviousTitle
		resp.Review = r.PreviousReview
		resp.Rating = r.PreviousRating
		resp.PendingApproval = true
	}
	return resp
}

type TimetableSessionResponse struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Day             string  `json:"day"`
	DayName         string  `json:"day_name"`
	Time            string  `json:"time"`
	Description     string  `json:"description,omitempty"`
	Location        string  `json:"location,omitempty"`
	MaxParticipants *int    `json:"max_participants,omitempty"`
	Cost            float64 `json:"cost"`
	Full            bool    `json:"full"`
	BlockInfo       string  `json:"block_info,omitempty"`
}

func ToSessionResponse(s *models.WeeklySession) TimetableSessionResponse {
	resp := TimetableSessionResponse{
		ID:              s.ID,
		Name:            s.Name,
		Day:             s.Day,
		DayName:         models.DayNames[s.Day],
		Time:            s.Time,
		Description:     s.Description,
		MaxParticipants: s.MaxParticipants,
		Cost:            s.Cost,
		Full:            s.Full,
		BlockInfo:       s.BlockInfo,
	}
	if s.Location != nil {
		resp.Location = s.Location.ShortName
	}
	return resp
}

type ErrorResponse struct {
	Message string `json:"message"`
}
