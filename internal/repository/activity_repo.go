package repository

import (
	"context"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Record(ctx context.Context, log string) error
	ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Record(ctx context.Context, log string) error {
	return r.db.WithContext(ctx).Create(&models.ActivityLog{Log: log}).Error
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
