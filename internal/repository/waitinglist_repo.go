package repository

import (
	"context"
	"time"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WaitingListRepository interface {
	Add(ctx context.Context, entry *models.WaitingListUser) (created bool, err error)
	Remove(ctx context.Context, tx *gorm.DB, userID string, eventID uint) (removed bool, err error)
	Find(ctx context.Context, userID string, eventID uint) (*models.WaitingListUser, error)
	ListByEvent(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.WaitingListUser, error)
	ListEventIDsByUser(ctx context.Context, userID string) ([]uint, error)
}

type waitingListRepository struct {
	db *gorm.DB
}

func NewWaitingListRepository(db *gorm.DB) WaitingListRepository {
	return &waitingListRepository{db: db}
}

// Add inserts the entry unless the user is already on the list; joining
// twice is a no-op.
func (r *waitingListRepository) Add(ctx context.Context, entry *models.WaitingListUser) (bool, error) {
	if entry.DateJoined.IsZero() {
		entry.DateJoined = time.Now()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *waitingListRepository) Remove(ctx context.Context, tx *gorm.DB, userID string, eventID uint) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Delete(&models.WaitingListUser{})
	return result.RowsAffected > 0, result.Error
}

func (r *waitingListRepository) Find(ctx context.Context, userID string, eventID uint) (*models.WaitingListUser, error) {
	var entry models.WaitingListUser
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitingListRepository) ListByEvent(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.WaitingListUser, error) {
	if tx == nil {
		tx = r.db
	}
	var entries []models.WaitingListUser
	err := tx.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("date_joined ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *waitingListRepository) ListEventIDsByUser(ctx context.Context, userID string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.WaitingListUser{}).
		Where("user_id = ?", userID).
		Pluck("event_id", &ids).Error
	return ids, err
}
