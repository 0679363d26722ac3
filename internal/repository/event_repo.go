package repository

import (
	"context"
	"time"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	Save(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Event, error)
	FindBySlug(ctx context.Context, slug string) (*models.Event, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Event, error)
	ListUpcoming(ctx context.Context, evType, name string, from time.Time) ([]models.Event, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateEventType(ctx context.Context, et *models.EventType) error
	ListEventTypes(ctx context.Context) ([]models.EventType, error)
	GetDB() *gorm.DB
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) Save(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *eventRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Event{}, id).Error
}

func (r *eventRepository) FindByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).Preload("EventType").First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Preload("EventType").
		Where("slug = ?", slug).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByIDForUpdate acquires a row-level lock on the event within the given
// transaction; every capacity decision happens under this lock.
func (r *eventRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Event, error) {
	var event models.Event
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListUpcoming returns bookable events of one type, soonest first,
// optionally filtered by exact name.
func (r *eventRepository) ListUpcoming(ctx context.Context, evType, name string, from time.Time) ([]models.Event, error) {
	q := r.db.WithContext(ctx).
		Preload("EventType").
		Joins("JOIN event_types ON event_types.id = events.event_type_id").
		Where("event_types.type = ?", evType).
		Where("events.date >= ?", from).
		Where("events.booking_open = ?", true)
	if name != "" {
		q = q.Where("events.name = ?", name)
	}

	var events []models.Event
	if err := q.Order("events.date ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

func (r *eventRepository) CreateEventType(ctx context.Context, et *models.EventType) error {
	return r.db.WithContext(ctx).Create(et).Error
}

func (r *eventRepository) ListEventTypes(ctx context.Context) ([]models.EventType, error) {
	var types []models.EventType
	if err := r.db.WithContext(ctx).Order("type, subtype").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}
