package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"github.com/watermelon-studio/studio-booking/internal/notify"
	"github.com/watermelon-studio/studio-booking/internal/repository"
	"gorm.io/gorm"
)

// Actor is the authenticated user a request acts on behalf of.
type Actor struct {
	ID       string
	Username string
	Email    string
}

// BookingResult reports what a create did. Rebooked with Booking.Paid set
// means the payment must be re-reviewed before the space counts as
// confirmed again.
type BookingResult struct {
	Booking  *models.Booking
	Rebooked bool
}

func (r *BookingResult) PendingReview() bool {
	return r.Rebooked && r.Booking.Paid
}

// BookingInfo decorates a booking with the per-user flags the bookings
// page needs.
type BookingInfo struct {
	Booking        models.Booking
	CanCancel      bool
	OnWaitingList  bool
	SpaceConfirmed bool
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor Actor, eventID uint) (*BookingResult, error)
	CreateBlockBooking(ctx context.Context, actor Actor, blockID uint) ([]models.Booking, error)
	CancelBooking(ctx context.Context, actor Actor, bookingID uint, cancelBlock bool) ([]models.Booking, error)
	CreateBookingForUser(ctx context.Context, userID string, eventID uint, status models.BookingStatus) (*models.Booking, error)
	ConfirmSpace(ctx context.Context, bookingID uint) (*models.Booking, error)
	MarkPaid(ctx context.Context, actor Actor, bookingID uint) (*models.Booking, error)
	MarkBlockPaid(ctx context.Context, actor Actor, blockID uint) error
	GetBooking(ctx context.Context, actor Actor, id uint) (*models.Booking, error)
	ListBookings(ctx context.Context, actor Actor, history bool) ([]BookingInfo, error)
	JoinWaitingList(ctx context.Context, actor Actor, eventID uint) (bool, error)
	LeaveWaitingList(ctx context.Context, actor Actor, eventID uint) (bool, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	eventRepo   repository.EventRepository
	blockRepo   repository.BlockRepository
	waitingRepo repository.WaitingListRepository
	activity    repository.ActivityRepository
	publisher   notify.Publisher
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	eventRepo repository.EventRepository,
	blockRepo repository.BlockRepository,
	waitingRepo repository.WaitingListRepository,
	activity repository.ActivityRepository,
	publisher notify.Publisher,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		eventRepo:   eventRepo,
		blockRepo:   blockRepo,
		waitingRepo: waitingRepo,
		activity:    activity,
		publisher:   publisher,
	}
}

// publish is fire-and-forget; a broker outage must never fail a booking
// that already committed.
func (s *bookingService) publish(key string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(key, payload); err != nil {
		log.Printf("[notify] publish %s: %v", key, err)
	}
}

// CreateBooking books a single event for the actor, reopening a previously
// cancelled booking if one exists. The capacity check runs inside the
// transaction under a row lock on the event, so two users racing for the
// last space serialise here.
func (s *bookingService) CreateBooking(ctx context.Context, actor Actor, eventID uint) (*BookingResult, error) {
	var (
		result          BookingResult
		event           *models.Event
		leftWaitingList bool
	)

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = s.eventRepo.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		now := time.Now()
		if !event.BookingOpen {
			return ErrBookingClosed
		}
		if event.PaymentDueDate != nil && !event.PaymentDueDate.After(now) {
			return ErrBookingClosed
		}

		open, err := s.bookingRepo.CountOpen(ctx, tx, eventID)
		if err != nil {
			return err
		}

		existing, err := s.bookingRepo.FindByUserAndEvent(ctx, tx, actor.ID, eventID)
		switch {
		case err == nil:
			if existing.Status == models.StatusOpen {
				return ErrAlreadyBooked
			}
			// reopen a cancelled booking; payment_confirmed is NOT
			// restored even if the booking was paid before
			if !event.HasSpace(open) {
				return ErrFullyBooked
			}
			existing.Status = models.StatusOpen
			existing.BlockID = nil
			existing.Cost = event.Cost
			if err := s.bookingRepo.Save(ctx, tx, existing); err != nil {
				return err
			}
			result = BookingResult{Booking: existing, Rebooked: true}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !event.HasSpace(open) {
				return ErrFullyBooked
			}
			booking := &models.Booking{
				UserID:     actor.ID,
				EventID:    eventID,
				Status:     models.StatusOpen,
				DateBooked: now,
				Cost:       event.Cost,
			}
			if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
				return err
			}
			result = BookingResult{Booking: booking}
		default:
			return err
		}

		// a successful booking is the only thing that takes a user off
		// the waiting list
		leftWaitingList, err = s.waitingRepo.Remove(ctx, tx, actor.ID, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}

	result.Booking.Event = event

	verb := "created"
	key := notify.KeyBookingCreated
	if result.Rebooked {
		verb = "rebooked"
		key = notify.KeyBookingRebooked
	}
	logActivity(ctx, s.activity, "Booking %d %s for %q by user %s",
		result.Booking.ID, verb, event.Name, actor.Username)
	if leftWaitingList {
		logActivity(ctx, s.activity, "User %s removed from waiting list for %q",
			actor.Username, event.Name)
	}

	s.publish(key, notify.BookingMessage{
		BookingID:    result.Booking.ID,
		EventID:      event.ID,
		EventName:    event.Name,
		EventDate:    event.Date,
		UserID:       actor.ID,
		Username:     actor.Username,
		UserEmail:    actor.Email,
		Cost:         result.Booking.Cost,
		Rebooked:     result.Rebooked,
		Paid:         result.Booking.Paid,
		NotifyStudio: event.EmailStudioWhenBooked || result.PendingReview(),
	})

	return &result, nil
}

// CreateBlockBooking books every event in the block at the block item
// cost, reopening any cancelled bookings. All or nothing: one full or
// already-booked event rolls the whole block back.
func (s *bookingService) CreateBlockBooking(ctx context.Context, actor Actor, blockID uint) ([]models.Booking, error) {
	var (
		block    *models.Block
		members  []models.Event
		bookings []models.Booking
	)

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		block, err = s.blockRepo.FindByIDForUpdate(ctx, tx, blockID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBlockNotFound
			}
			return err
		}
		if !block.BookingOpen {
			return ErrBookingClosed
		}

		events, err := s.blockRepo.MemberEvents(ctx, tx, blockID)
		if err != nil {
			return err
		}
		members = events

		for i := range events {
			event := &events[i]
			// locks are taken in date order for every block booking,
			// so concurrent block bookings cannot deadlock
			if _, err := s.eventRepo.FindByIDForUpdate(ctx, tx, event.ID); err != nil {
				return err
			}

			open, err := s.bookingRepo.CountOpen(ctx, tx, event.ID)
			if err != nil {
				return err
			}

			existing, err := s.bookingRepo.FindByUserAndEvent(ctx, tx, actor.ID, event.ID)
			switch {
			case err == nil:
				if existing.Status == models.StatusOpen {
					return ErrAlreadyBooked
				}
				if !event.HasSpace(open) {
					return ErrFullyBooked
				}
				existing.Status = models.StatusOpen
				existing.BlockID = &block.ID
				existing.Cost = block.ItemCost
				if err := s.validateBlockAssignment(ctx, tx, existing); err != nil {
					return err
				}
				if err := s.bookingRepo.Save(ctx, tx, existing); err != nil {
					return err
				}
				bookings = append(bookings, *existing)
			case errors.Is(err, gorm.ErrRecordNotFound):
				if !event.HasSpace(open) {
					return ErrFullyBooked
				}
				booking := &models.Booking{
					UserID:     actor.ID,
					EventID:    event.ID,
					Status:     models.StatusOpen,
					DateBooked: time.Now(),
					Cost:       block.ItemCost,
					BlockID:    &block.ID,
				}
				if err := s.validateBlockAssignment(ctx, tx, booking); err != nil {
					return err
				}
				if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
					return err
				}
				bookings = append(bookings, *booking)
			default:
				return err
			}

			if _, err := s.waitingRepo.Remove(ctx, tx, actor.ID, event.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logActivity(ctx, s.activity, "Block %q booked by user %s (%d classes)",
		block.Name, actor.Username, len(bookings))

	names := make([]string, len(bookings))
	for i, b := range bookings {
		for j := range members {
			if members[j].ID == b.EventID {
				names[i] = members[j].Name
			}
		}
	}
	s.publish(notify.KeyBlockBooked, notify.BlockMessage{
		BlockID:    block.ID,
		BlockName:  block.Name,
		EventNames: names,
		UserID:     actor.ID,
		Username:   actor.Username,
		UserEmail:  actor.Email,
		ItemCost:   block.ItemCost,
	})

	return bookings, nil
}

// validateBlockAssignment enforces the integrity rule that a booking may
// only reference a block its event belongs to.
func (s *bookingService) validateBlockAssignment(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	if booking.BlockID == nil {
		return nil
	}
	events, err := s.blockRepo.MemberEvents(ctx, tx, *booking.BlockID)
	if err != nil {
		return err
	}
	for i := range events {
		if events[i].ID == booking.EventID {
			return nil
		}
	}
	return ErrBlockMembership
}

// CancelBooking cancels the actor's booking, or all of their open bookings
// in the same block when cancelBlock is set. When a cancellation frees the
// last occupied slot, everyone on the waiting list is emailed; entries are
// not removed — the spot goes to whoever books first.
func (s *bookingService) CancelBooking(ctx context.Context, actor Actor, bookingID uint, cancelBlock bool) ([]models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != actor.ID {
		return nil, ErrBookingNotFound
	}
	if booking.Status == models.StatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	now := time.Now()
	if booking.Event == nil || !booking.Event.CanCancel(now) {
		return nil, ErrCancellationPeriodPast
	}

	var (
		cancelled   []models.Booking
		waitingMsgs []notify.WaitingListMessage
	)

	err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		targets := []models.Booking{*booking}
		if cancelBlock && booking.BlockID != nil {
			blockBookings, err := s.bookingRepo.ListOpenByUserAndBlock(ctx, tx, actor.ID, *booking.BlockID)
			if err != nil {
				return err
			}
			targets = targets[:0]
			for _, b := range blockBookings {
				if b.Event != nil && b.Event.Date.After(now) {
					targets = append(targets, b)
				}
			}
		}

		for i := range targets {
			b := targets[i]

			event, err := s.eventRepo.FindByIDForUpdate(ctx, tx, b.EventID)
			if err != nil {
				return err
			}
			open, err := s.bookingRepo.CountOpen(ctx, tx, b.EventID)
			if err != nil {
				return err
			}
			left, limited := event.SpacesLeft(open)
			wasFull := limited && left <= 0

			// paid stays as-is so the studio can confirm the refund;
			// the block link is dropped so a later rebooking is at the
			// single-class rate
			b.Status = models.StatusCancelled
			b.BlockID = nil
			b.PaymentConfirmed = false
			b.Event = nil
			b.Block = nil
			if err := s.bookingRepo.Save(ctx, tx, &b); err != nil {
				return err
			}
			b.Event = event
			cancelled = append(cancelled, b)

			if wasFull {
				entries, err := s.waitingRepo.ListByEvent(ctx, tx, b.EventID)
				if err != nil {
					return err
				}
				if len(entries) > 0 {
					emails := make([]string, len(entries))
					for j, e := range entries {
						emails[j] = e.UserEmail
					}
					waitingMsgs = append(waitingMsgs, notify.WaitingListMessage{
						EventID:   event.ID,
						EventName: event.Name,
						EventDate: event.Date,
						Emails:    emails,
					})
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range cancelled {
		logActivity(ctx, s.activity, "Booking %d for %q cancelled by user %s",
			b.ID, b.Event.Name, actor.Username)
		s.publish(notify.KeyBookingCancelled, notify.BookingMessage{
			BookingID:    b.ID,
			EventID:      b.EventID,
			EventName:    b.Event.Name,
			EventDate:    b.Event.Date,
			UserID:       actor.ID,
			Username:     actor.Username,
			UserEmail:    actor.Email,
			Cost:         b.Cost,
			Paid:         b.Paid,
			NotifyStudio: true,
		})
	}
	for _, msg := range waitingMsgs {
		logActivity(ctx, s.activity, "Waiting list notified for %q (%d users)",
			msg.EventName, len(msg.Emails))
		s.publish(notify.KeyWaitingListSpot, msg)
	}

	return cancelled, nil
}

// CreateBookingForUser is the studio-admin path for adding a booking on a
// user's behalf, optionally directly in CANCELLED state (which is exempt
// from the capacity check).
func (s *bookingService) CreateBookingForUser(ctx context.Context, userID string, eventID uint, status models.BookingStatus) (*models.Booking, error) {
	var booking *models.Booking

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := s.eventRepo.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		if _, err := s.bookingRepo.FindByUserAndEvent(ctx, tx, userID, eventID); err == nil {
			return ErrAlreadyBooked
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if status != models.StatusCancelled {
			open, err := s.bookingRepo.CountOpen(ctx, tx, eventID)
			if err != nil {
				return err
			}
			if !event.HasSpace(open) {
				return ErrFullyBooked
			}
		}

		booking = &models.Booking{
			UserID:     userID,
			EventID:    eventID,
			Status:     status,
			DateBooked: time.Now(),
			Cost:       event.Cost,
		}
		return s.bookingRepo.Create(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}

	logActivity(ctx, s.activity, "Booking %d (%s) added for user %s by studio admin",
		booking.ID, booking.Status, userID)
	return booking, nil
}

// ConfirmSpace is the studio marking a costed booking as paid and
// confirmed.
func (s *bookingService) ConfirmSpace(ctx context.Context, bookingID uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Event != nil && booking.Event.Cost == 0 {
		return booking, nil
	}

	booking.Paid = true
	booking.PaymentConfirmed = true
	stampPaymentConfirmed(booking)
	if err := s.bookingRepo.Save(ctx, s.bookingRepo.GetDB(), booking); err != nil {
		return nil, err
	}

	logActivity(ctx, s.activity, "Space confirmed manually for booking %d", booking.ID)
	return booking, nil
}

// MarkPaid is the user telling the studio they have made a payment; the
// space stays unconfirmed until the studio reviews it.
func (s *bookingService) MarkPaid(ctx context.Context, actor Actor, bookingID uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != actor.ID {
		return nil, ErrBookingNotFound
	}

	booking.Paid = true
	if err := s.bookingRepo.Save(ctx, s.bookingRepo.GetDB(), booking); err != nil {
		return nil, err
	}

	logActivity(ctx, s.activity, "Booking %d marked paid by user %s", booking.ID, actor.Username)
	eventName := ""
	var eventDate time.Time
	if booking.Event != nil {
		eventName = booking.Event.Name
		eventDate = booking.Event.Date
	}
	s.publish(notify.KeyBookingPaid, notify.BookingMessage{
		BookingID:    booking.ID,
		EventID:      booking.EventID,
		EventName:    eventName,
		EventDate:    eventDate,
		UserID:       actor.ID,
		Username:     actor.Username,
		UserEmail:    actor.Email,
		Cost:         booking.Cost,
		Paid:         true,
		NotifyStudio: true,
	})
	return booking, nil
}

// MarkBlockPaid marks every open booking the actor holds in the block as
// paid.
func (s *bookingService) MarkBlockPaid(ctx context.Context, actor Actor, blockID uint) error {
	block, err := s.blockRepo.FindByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBlockNotFound
		}
		return err
	}

	err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings, err := s.bookingRepo.ListOpenByUserAndBlock(ctx, tx, actor.ID, blockID)
		if err != nil {
			return err
		}
		for i := range bookings {
			bookings[i].Paid = true
			bookings[i].Event = nil
			bookings[i].Block = nil
			if err := s.bookingRepo.Save(ctx, tx, &bookings[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logActivity(ctx, s.activity, "Block %q marked paid by user %s", block.Name, actor.Username)
	s.publish(notify.KeyBlockBooked, notify.BlockMessage{
		BlockID:   block.ID,
		BlockName: block.Name,
		UserID:    actor.ID,
		Username:  actor.Username,
		UserEmail: actor.Email,
		ItemCost:  block.ItemCost,
		Paid:      true,
	})
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor Actor, id uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != actor.ID {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, actor Actor, history bool) ([]BookingInfo, error) {
	bookings, err := s.bookingRepo.ListByUser(ctx, actor.ID, time.Now(), history)
	if err != nil {
		return nil, err
	}

	waitingEventIDs, err := s.waitingRepo.ListEventIDsByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	waiting := make(map[uint]bool, len(waitingEventIDs))
	for _, id := range waitingEventIDs {
		waiting[id] = true
	}

	now := time.Now()
	infos := make([]BookingInfo, 0, len(bookings))
	for _, b := range bookings {
		info := BookingInfo{Booking: b, OnWaitingList: waiting[b.EventID]}
		if b.Event != nil {
			info.CanCancel = b.Status == models.StatusOpen && b.Event.CanCancel(now)
			info.SpaceConfirmed = b.SpaceConfirmed(b.Event)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *bookingService) JoinWaitingList(ctx context.Context, actor Actor, eventID uint) (bool, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrEventNotFound
		}
		return false, err
	}

	created, err := s.waitingRepo.Add(ctx, &models.WaitingListUser{
		UserID:    actor.ID,
		UserEmail: actor.Email,
		EventID:   eventID,
	})
	if err != nil {
		return false, err
	}
	if created {
		logActivity(ctx, s.activity, "User %s joined the waiting list for %q",
			actor.Username, event.Name)
	}
	return created, nil
}

func (s *bookingService) LeaveWaitingList(ctx context.Context, actor Actor, eventID uint) (bool, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrEventNotFound
		}
		return false, err
	}

	removed, err := s.waitingRepo.Remove(ctx, nil, actor.ID, eventID)
	if err != nil {
		return false, err
	}
	if removed {
		logActivity(ctx, s.activity, "User %s left the waiting list for %q",
			actor.Username, event.Name)
	}
	return removed, nil
}

// stampPaymentConfirmed records the moment payment_confirmed first flips
// true.
func stampPaymentConfirmed(b *models.Booking) {
	if b.PaymentConfirmed && b.DatePaymentConfirmed == nil {
		now := time.Now()
		b.DatePaymentConfirmed = &now
	}
}
