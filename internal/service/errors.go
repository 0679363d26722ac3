package service

import "errors"

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrBlockNotFound   = errors.New("block not found")

	// ErrBookingClosed covers booking_open=false and a payment due date
	// already in the past.
	ErrBookingClosed = errors.New("booking is not open for this event")

	ErrAlreadyBooked          = errors.New("user already has an open booking for this event")
	ErrFullyBooked            = errors.New("event is fully booked")
	ErrAlreadyCancelled       = errors.New("booking is already cancelled")
	ErrCancellationPeriodPast = errors.New("cancellation period for this event has passed")

	// ErrBlockMembership is a data-integrity failure, not a user error;
	// handlers let it surface as a 500.
	ErrBlockMembership = errors.New("event is not a member of the block assigned to this booking")

	ErrEventHasBookings = errors.New("event has open bookings and cannot be deleted")

	ErrPageNotFound   = errors.New("page not found")
	ErrPageRestricted = errors.New("page is restricted to logged-in users")
	ErrReviewNotFound = errors.New("review not found")

	// ErrPaymentMismatch rejects gateway callbacks whose receiver,
	// invoice or transaction details do not line up with our records.
	ErrPaymentMismatch = errors.New("payment callback does not match our records")
)
