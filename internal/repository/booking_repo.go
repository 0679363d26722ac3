package repository

import (
	"context"
	"time"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	Save(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByUserAndEvent(ctx context.Context, tx *gorm.DB, userID string, eventID uint) (*models.Booking, error)
	CountOpen(ctx context.Context, tx *gorm.DB, eventID uint) (int64, error)
	ListByUser(ctx context.Context, userID string, from time.Time, history bool) ([]models.Booking, error)
	ListUnpaidByUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListOpenByUserAndBlock(ctx context.Context, tx *gorm.DB, userID string, blockID uint) ([]models.Booking, error)
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) Save(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Save(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Preload("Event").Preload("Block").First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByUserAndEvent returns any booking for the pair regardless of status;
// the (user, event) pair is unique.
func (r *bookingRepository) FindByUserAndEvent(ctx context.Context, tx *gorm.DB, userID string, eventID uint) (*models.Booking, error) {
	var booking models.Booking
	err := tx.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) CountOpen(ctx context.Context, tx *gorm.DB, eventID uint) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("event_id = ? AND status = ?", eventID, models.StatusOpen).
		Count(&count).Error
	return count, err
}

// ListByUser returns upcoming bookings soonest first, or past bookings most
// recent first when history is set.
func (r *bookingRepository) ListByUser(ctx context.Context, userID string, from time.Time, history bool) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).
		Preload("Event").Preload("Event.EventType").
		Joins("JOIN events ON events.id = bookings.event_id").
		Where("bookings.user_id = ?", userID)
	if history {
		q = q.Where("events.date <= ?", from).Order("events.date DESC")
	} else {
		q = q.Where("events.date >= ?", from).Order("events.date ASC")
	}

	var bookings []models.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) ListUnpaidByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Event").Preload("Block").
		Where("user_id = ? AND status = ? AND paid = ?", userID, models.StatusOpen, false).
		Order("id ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) ListOpenByUserAndBlock(ctx context.Context, tx *gorm.DB, userID string, blockID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := tx.WithContext(ctx).
		Preload("Event").
		Where("user_id = ? AND block_id = ? AND status = ?", userID, blockID, models.StatusOpen).
		Order("id ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
