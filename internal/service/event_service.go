package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"github.com/watermelon-studio/studio-booking/internal/repository"
	"gorm.io/gorm"
)

// EventDetail is an event plus its derived booking state.
type EventDetail struct {
	Event      models.Event
	SpacesLeft *int // nil when the event has no participant limit
	Bookable   bool
}

type EventService interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id uint) error
	GetEventBySlug(ctx context.Context, slug string) (*EventDetail, error)
	GetEventByID(ctx context.Context, id uint) (*models.Event, error)
	ListEvents(ctx context.Context, evType, name string) ([]EventDetail, error)
	CreateEventType(ctx context.Context, et *models.EventType) error
	ListEventTypes(ctx context.Context) ([]models.EventType, error)
}

type eventService struct {
	eventRepo   repository.EventRepository
	bookingRepo repository.BookingRepository
	activity    repository.ActivityRepository
}

func NewEventService(eventRepo repository.EventRepository, bookingRepo repository.BookingRepository, activity repository.ActivityRepository) EventService {
	return &eventService{eventRepo: eventRepo, bookingRepo: bookingRepo, activity: activity}
}

// normalizeEvent applies the save-time invariants: free events never
// require advance payment, and a payment due date is stretched to the very
// end of its calendar day and forces advance payment on.
func normalizeEvent(event *models.Event) {
	if event.Cost == 0 {
		event.AdvancePaymentRequired = false
		event.PaymentDueDate = nil
	}
	if event.PaymentDueDate != nil {
		d := *event.PaymentDueDate
		endOfDay := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location())
		event.PaymentDueDate = &endOfDay
		event.AdvancePaymentRequired = true
	}
	if event.CancellationPeriod == 0 {
		event.CancellationPeriod = 24
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *models.Event) error {
	normalizeEvent(event)

	slug, err := s.uniqueSlug(ctx, event.Name)
	if err != nil {
		return fmt.Errorf("derive slug: %w", err)
	}
	event.Slug = slug

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	logActivity(ctx, s.activity, "Event %d (%s) created", event.ID, event.Name)
	return nil
}

func (s *eventService) UpdateEvent(ctx context.Context, event *models.Event) error {
	normalizeEvent(event)
	if err := s.eventRepo.Save(ctx, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	logActivity(ctx, s.activity, "Event %d (%s) updated", event.ID, event.Name)
	return nil
}

// DeleteEvent refuses while open bookings reference the event; deletion is
// a rare admin action, never a cascade.
func (s *eventService) DeleteEvent(ctx context.Context, id uint) error {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	open, err := s.bookingRepo.CountOpen(ctx, s.bookingRepo.GetDB(), id)
	if err != nil {
		return err
	}
	if open > 0 {
		return ErrEventHasBookings
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	logActivity(ctx, s.activity, "Event %d (%s) deleted", id, event.Name)
	return nil
}

func (s *eventService) GetEventBySlug(ctx context.Context, slug string) (*EventDetail, error) {
	event, err := s.eventRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return s.detail(ctx, event)
}

func (s *eventService) GetEventByID(ctx context.Context, id uint) (*models.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, evType, name string) ([]EventDetail, error) {
	events, err := s.eventRepo.ListUpcoming(ctx, evType, name, time.Now())
	if err != nil {
		return nil, err
	}

	details := make([]EventDetail, 0, len(events))
	for i := range events {
		d, err := s.detail(ctx, &events[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, nil
}

// detail counts open bookings outside any lock; the number is advisory,
// the authoritative check happens inside the booking transaction.
func (s *eventService) detail(ctx context.Context, event *models.Event) (*EventDetail, error) {
	open, err := s.bookingRepo.CountOpen(ctx, s.bookingRepo.GetDB(), event.ID)
	if err != nil {
		return nil, err
	}

	d := &EventDetail{
		Event:    *event,
		Bookable: event.Bookable(open, time.Now()),
	}
	if left, limited := event.SpacesLeft(open); limited {
		d.SpacesLeft = &left
	}
	return d, nil
}

func (s *eventService) CreateEventType(ctx context.Context, et *models.EventType) error {
	return s.eventRepo.CreateEventType(ctx, et)
}

func (s *eventService) ListEventTypes(ctx context.Context) ([]models.EventType, error) {
	return s.eventRepo.ListEventTypes(ctx)
}

// uniqueSlug appends a numeric suffix until the slug is free.
func (s *eventService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)
	slug := base
	for n := 2; ; n++ {
		exists, err := s.eventRepo.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		suffix := fmt.Sprintf("-%d", n)
		if len(base)+len(suffix) > maxSlugLen {
			slug = base[:maxSlugLen-len(suffix)] + suffix
		} else {
			slug = base + suffix
		}
	}
}
