package repository

import (
	"context"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BlockRepository interface {
	Create(ctx context.Context, block *models.Block, eventIDs []uint) error
	Save(ctx context.Context, block *models.Block) error
	FindByID(ctx context.Context, id uint) (*models.Block, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Block, error)
	ListOpen(ctx context.Context) ([]models.Block, error)
	MemberEvents(ctx context.Context, tx *gorm.DB, blockID uint) ([]models.Event, error)
	OpenMemberEvents(ctx context.Context, tx *gorm.DB, blockID uint) error
	SetBookingOpen(ctx context.Context, tx *gorm.DB, blockID uint, open bool) error
	ReplaceEvents(ctx context.Context, block *models.Block, eventIDs []uint) error
	GetDB() *gorm.DB
}

type blockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db}
}

func (r *blockRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *blockRepository) Create(ctx context.Context, block *models.Block, eventIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(block).Error; err != nil {
			return err
		}
		if len(eventIDs) == 0 {
			return nil
		}
		var events []models.Event
		if err := tx.Find(&events, eventIDs).Error; err != nil {
			return err
		}
		return tx.Model(block).Association("Events").Append(&events)
	})
}

func (r *blockRepository) Save(ctx context.Context, block *models.Block) error {
	return r.db.WithContext(ctx).Save(block).Error
}

func (r *blockRepository) FindByID(ctx context.Context, id uint) (*models.Block, error) {
	var block models.Block
	if err := r.db.WithContext(ctx).Preload("Events").First(&block, id).Error; err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *blockRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Block, error) {
	var block models.Block
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&block, id).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *blockRepository) ListOpen(ctx context.Context) ([]models.Block, error) {
	var blocks []models.Block
	err := r.db.WithContext(ctx).
		Preload("Events").
		Where("booking_open = ?", true).
		Order("id ASC").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *blockRepository) MemberEvents(ctx context.Context, tx *gorm.DB, blockID uint) ([]models.Event, error) {
	var events []models.Event
	err := tx.WithContext(ctx).
		Joins("JOIN block_events ON block_events.event_id = events.id").
		Where("block_events.block_id = ?", blockID).
		Order("events.date ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// OpenMemberEvents flips booking_open on every member event in one
// statement so the cascade can never half-apply.
func (r *blockRepository) OpenMemberEvents(ctx context.Context, tx *gorm.DB, blockID uint) error {
	return tx.WithContext(ctx).
		Model(&models.Event{}).
		Where("id IN (?)", tx.Session(&gorm.Session{NewDB: true}).
			Table("block_events").
			Select("event_id").
			Where("block_id = ?", blockID)).
		Update("booking_open", true).Error
}

func (r *blockRepository) SetBookingOpen(ctx context.Context, tx *gorm.DB, blockID uint, open bool) error {
	return tx.WithContext(ctx).
		Model(&models.Block{}).
		Where("id = ?", blockID).
		Update("booking_open", open).Error
}

func (r *blockRepository) ReplaceEvents(ctx context.Context, block *models.Block, eventIDs []uint) error {
	var events []models.Event
	if err := r.db.WithContext(ctx).Find(&events, eventIDs).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(block).Association("Events").Replace(&events)
}
