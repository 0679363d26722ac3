package repository

import (
	"context"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContentRepository interface {
	CreatePage(ctx context.Context, page *models.Page) error
	SavePage(ctx context.Context, page *models.Page) error
	DeletePage(ctx context.Context, id uint) error
	FindPageByName(ctx context.Context, name string) (*models.Page, error)
	ListPages(ctx context.Context) ([]models.Page, error)
	AddPicture(ctx context.Context, pic *models.Picture) error
	DeletePicture(ctx context.Context, id uint) (*models.Picture, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, cat *models.Category) error
	AddImage(ctx context.Context, img *models.Image) error
	DeleteImage(ctx context.Context, id uint) (*models.Image, error)

	CreateReview(ctx context.Context, review *models.Review) error
	SaveReview(ctx context.Context, review *models.Review) error
	FindReviewByID(ctx context.Context, id uint) (*models.Review, error)
	ListReviews(ctx context.Context, publishedOnly bool) ([]models.Review, error)

	ListLocations(ctx context.Context) ([]models.Location, error)
	ListSessions(ctx context.Context) ([]models.WeeklySession, error)
	UpsertSession(ctx context.Context, tx *gorm.DB, session *models.WeeklySession) error
	DeleteAllSessions(ctx context.Context, tx *gorm.DB) error
	GetDB() *gorm.DB
}

type contentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *contentRepository) CreatePage(ctx context.Context, page *models.Page) error {
	return r.db.WithContext(ctx).Create(page).Error
}

func (r *contentRepository) SavePage(ctx context.Context, page *models.Page) error {
	return r.db.WithContext(ctx).Save(page).Error
}

func (r *contentRepository) DeletePage(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("page_id = ?", id).Delete(&models.Picture{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Page{}, id).Error
	})
}

func (r *contentRepository) FindPageByName(ctx context.Context, name string) (*models.Page, error) {
	var page models.Page
	err := r.db.WithContext(ctx).
		Preload("Pictures").
		Where("name = ?", name).
		First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *contentRepository) ListPages(ctx context.Context) ([]models.Page, error) {
	var pages []models.Page
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

func (r *contentRepository) AddPicture(ctx context.Context, pic *models.Picture) error {
	return r.db.WithContext(ctx).Create(pic).Error
}

func (r *contentRepository) DeletePicture(ctx context.Context, id uint) (*models.Picture, error) {
	var pic models.Picture
	if err := r.db.WithContext(ctx).First(&pic, id).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&pic).Error; err != nil {
		return nil, err
	}
	return &pic, nil
}

func (r *contentRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.db.WithContext(ctx).Preload("Images").Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *contentRepository) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

func (r *contentRepository) AddImage(ctx context.Context, img *models.Image) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *contentRepository) DeleteImage(ctx context.Context, id uint) (*models.Image, error) {
	var img models.Image
	if err := r.db.WithContext(ctx).First(&img, id).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&img).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *contentRepository) CreateReview(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *contentRepository) SaveReview(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *contentRepository) FindReviewByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *contentRepository) ListReviews(ctx context.Context, publishedOnly bool) ([]models.Review, error) {
	q := r.db.WithContext(ctx).Order("submission_date DESC")
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var reviews []models.Review
	if err := q.Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *contentRepository) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *contentRepository) ListSessions(ctx context.Context) ([]models.WeeklySession, error) {
	var sessions []models.WeeklySession
	err := r.db.WithContext(ctx).
		Preload("Location").
		Order("day ASC, time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpsertSession keys on (name, day, time) so re-uploading a timetable
// updates rows in place.
func (r *contentRepository) UpsertSession(ctx context.Context, tx *gorm.DB, session *models.WeeklySession) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}, {Name: "day"}, {Name: "time"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"description", "location_id", "max_participants", "cost", "full", "block_info",
			}),
		}).
		Create(session).Error
}

func (r *contentRepository) DeleteAllSessions(ctx context.Context, tx *gorm.DB) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Where("1 = 1").Delete(&models.WeeklySession{}).Error
}
