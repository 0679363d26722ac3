package service

import (
	"context"
	"errors"
	"time"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"github.com/watermelon-studio/studio-booking/internal/repository"
	"gorm.io/gorm"
)

type CreateBlockInput struct {
	Name                  string
	ItemCost              float64
	BookingOpen           bool
	IndividualBookingDate time.Time
	EventIDs              []uint
}

type BlockService interface {
	CreateBlock(ctx context.Context, in CreateBlockInput) (*models.Block, error)
	UpdateBlock(ctx context.Context, id uint, in CreateBlockInput) (*models.Block, error)
	OpenBlock(ctx context.Context, id uint) (*models.Block, error)
	GetBlock(ctx context.Context, id uint) (*models.Block, error)
	ListOpenBlocks(ctx context.Context) ([]models.Block, error)
}

type blockService struct {
	blockRepo repository.BlockRepository
	activity  repository.ActivityRepository
}

func NewBlockService(blockRepo repository.BlockRepository, activity repository.ActivityRepository) BlockService {
	return &blockService{blockRepo: blockRepo, activity: activity}
}

// normalizeBlock truncates the individual booking date to midnight so the
// whole advertised day counts.
func normalizeBlock(block *models.Block) {
	d := block.IndividualBookingDate
	if !d.IsZero() {
		block.IndividualBookingDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	}
}

func (s *blockService) CreateBlock(ctx context.Context, in CreateBlockInput) (*models.Block, error) {
	block := &models.Block{
		Name:                  in.Name,
		ItemCost:              in.ItemCost,
		BookingOpen:           in.BookingOpen,
		IndividualBookingDate: in.IndividualBookingDate,
	}
	normalizeBlock(block)

	if err := s.blockRepo.Create(ctx, block, in.EventIDs); err != nil {
		return nil, err
	}

	logActivity(ctx, s.activity, "Block %q created (%d classes)", block.Name, len(in.EventIDs))
	return s.blockRepo.FindByID(ctx, block.ID)
}

func (s *blockService) UpdateBlock(ctx context.Context, id uint, in CreateBlockInput) (*models.Block, error) {
	block, err := s.blockRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}

	wasOpen := block.BookingOpen
	block.Name = in.Name
	block.ItemCost = in.ItemCost
	block.BookingOpen = in.BookingOpen
	block.IndividualBookingDate = in.IndividualBookingDate
	normalizeBlock(block)
	block.Events = nil

	if err := s.blockRepo.Save(ctx, block); err != nil {
		return nil, err
	}
	if in.EventIDs != nil {
		if err := s.blockRepo.ReplaceEvents(ctx, block, in.EventIDs); err != nil {
			return nil, err
		}
	}

	// opening through an update cascades to member events too
	if in.BookingOpen && !wasOpen {
		err := s.blockRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.blockRepo.OpenMemberEvents(ctx, tx, id)
		})
		if err != nil {
			return nil, err
		}
	}

	logActivity(ctx, s.activity, "Block %q updated", block.Name)
	return s.blockRepo.FindByID(ctx, id)
}

// OpenBlock opens the block and every member event for booking in a
// single transaction, so a reader never sees an open block with closed
// member classes.
func (s *blockService) OpenBlock(ctx context.Context, id uint) (*models.Block, error) {
	if _, err := s.blockRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}

	err := s.blockRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.blockRepo.SetBookingOpen(ctx, tx, id, true); err != nil {
			return err
		}
		return s.blockRepo.OpenMemberEvents(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}

	block, err := s.blockRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	logActivity(ctx, s.activity, "Block %q opened for booking (%d classes)",
		block.Name, len(block.Events))
	return block, nil
}

func (s *blockService) GetBlock(ctx context.Context, id uint) (*models.Block, error) {
	block, err := s.blockRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}
	return block, nil
}

func (s *blockService) ListOpenBlocks(ctx context.Context) ([]models.Block, error) {
	return s.blockRepo.ListOpen(ctx)
}
