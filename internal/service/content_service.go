package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/watermelon-studio/studio-booking/internal/models"
	"github.com/watermelon-studio/studio-booking/internal/repository"
	"gorm.io/gorm"
)

type PageInput struct {
	Name         string
	MenuName     string
	MenuLocation string
	Heading      string
	Layout       string
	Content      string
	Restricted   bool
}

type ReviewInput struct {
	Title  string
	Review string
	Rating int
}

type ContentService interface {
	CreatePage(ctx context.Context, in PageInput) (*models.Page, error)
	UpdatePage(ctx context.Context, name string, in PageInput) (*models.Page, error)
	DeletePage(ctx context.Context, name string) error
	GetPage(ctx context.Context, name string, authenticated bool) (*models.Page, error)
	ListPages(ctx context.Context) ([]models.Page, error)
	AddPicture(ctx context.Context, pageName, filename string, main bool) (*models.Picture, error)
	DeletePicture(ctx context.Context, id uint) error

	ListGallery(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	AddImage(ctx context.Context, categoryID uint, filename, caption string) (*models.Image, error)
	DeleteImage(ctx context.Context, id uint) error

	SubmitReview(ctx context.Context, actor Actor, in ReviewInput) (*models.Review, error)
	UpdateReview(ctx context.Context, actor Actor, id uint, in ReviewInput) (*models.Review, error)
	ListReviews(ctx context.Context, includeUnpublished bool) ([]models.Review, error)
	ApproveReview(ctx context.Context, id uint) (*models.Review, error)
	RejectReview(ctx context.Context, id uint) (*models.Review, error)

	Timetable(ctx context.Context) ([]models.WeeklySession, []models.Location, error)
	ImportTimetable(ctx context.Context, csvData io.Reader, replace bool) (int, error)
}

type contentService struct {
	contentRepo repository.ContentRepository
	activity    repository.ActivityRepository
}

func NewContentService(contentRepo repository.ContentRepository, activity repository.ActivityRepository) ContentService {
	return &contentService{contentRepo: contentRepo, activity: activity}
}

// NormalizePageName is how page names become URL segments: lowercased with
// spaces collapsed to hyphens. Applied on every write so lookups are exact.
func NormalizePageName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	return strings.Join(fields, "-")
}

func (s *contentService) CreatePage(ctx context.Context, in PageInput) (*models.Page, error) {
	page := pageFromInput(in)
	if err := s.contentRepo.CreatePage(ctx, page); err != nil {
		return nil, err
	}
	logActivity(ctx, s.activity, "Page %q created", page.Name)
	return page, nil
}

func pageFromInput(in PageInput) *models.Page {
	page := &models.Page{
		Name:         NormalizePageName(in.Name),
		MenuName:     in.MenuName,
		MenuLocation: in.MenuLocation,
		Heading:      in.Heading,
		Layout:       in.Layout,
		Content:      in.Content,
		Restricted:   in.Restricted,
	}
	if page.MenuLocation == "" {
		page.MenuLocation = models.MenuDropdown
	}
	if page.Layout == "" {
		page.Layout = models.LayoutNoImage
	}
	return page
}

func (s *contentService) UpdatePage(ctx context.Context, name string, in PageInput) (*models.Page, error) {
	page, err := s.findPage(ctx, name)
	if err != nil {
		return nil, err
	}

	updated := pageFromInput(in)
	updated.ID = page.ID
	updated.CreatedAt = page.CreatedAt
	if err := s.contentRepo.SavePage(ctx, updated); err != nil {
		return nil, err
	}
	logActivity(ctx, s.activity, "Page %q updated", updated.Name)
	return updated, nil
}

func (s *contentService) DeletePage(ctx context.Context, name string) error {
	page, err := s.findPage(ctx, name)
	if err != nil {
		return err
	}
	if err := s.contentRepo.DeletePage(ctx, page.ID); err != nil {
		return err
	}
	logActivity(ctx, s.activity, "Page %q deleted", page.Name)
	return nil
}

func (s *contentService) GetPage(ctx context.Context, name string, authenticated bool) (*models.Page, error) {
	page, err := s.findPage(ctx, name)
	if err != nil {
		return nil, err
	}
	if page.Restricted && !authenticated {
		return nil, ErrPageRestricted
	}
	return page, nil
}

func (s *contentService) findPage(ctx context.Context, name string) (*models.Page, error) {
	page, err := s.contentRepo.FindPageByName(ctx, NormalizePageName(name))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return page, nil
}

func (s *contentService) ListPages(ctx context.Context) ([]models.Page, error) {
	return s.contentRepo.ListPages(ctx)
}

func (s *contentService) AddPicture(ctx context.Context, pageName, filename string, main bool) (*models.Picture, error) {
	page, err := s.findPage(ctx, pageName)
	if err != nil {
		return nil, err
	}
	pic := &models.Picture{
		PageID: page.ID,
		Key:    storageKey(filename),
		Main:   main,
	}
	if err := s.contentRepo.AddPicture(ctx, pic); err != nil {
		return nil, err
	}
	return pic, nil
}

func (s *contentService) DeletePicture(ctx context.Context, id uint) error {
	_, err := s.contentRepo.DeletePicture(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPageNotFound
	}
	return err
}

// storageKey gives every uploaded file a collision-free object name while
// keeping the original extension.
func storageKey(filename string) string {
	return uuid.NewString() + strings.ToLower(path.Ext(filename))
}

func (s *contentService) ListGallery(ctx context.Context) ([]models.Category, error) {
	return s.contentRepo.ListCategories(ctx)
}

func (s *contentService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	cat := &models.Category{Name: name}
	if err := s.contentRepo.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	logActivity(ctx, s.activity, "Gallery category %q created", name)
	return cat, nil
}

func (s *contentService) AddImage(ctx context.Context, categoryID uint, filename, caption string) (*models.Image, error) {
	img := &models.Image{
		CategoryID: categoryID,
		Key:        storageKey(filename),
		Caption:    caption,
	}
	if err := s.contentRepo.AddImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *contentService) DeleteImage(ctx context.Context, id uint) error {
	_, err := s.contentRepo.DeleteImage(ctx, id)
	return err
}

func (s *contentService) SubmitReview(ctx context.Context, actor Actor, in ReviewInput) (*models.Review, error) {
	review := &models.Review{
		UserID:          actor.ID,
		UserDisplayName: actor.Username,
		SubmissionDate:  time.Now(),
		Title:           in.Title,
		Review:          in.Review,
		Rating:          in.Rating,
	}
	if err := s.contentRepo.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	logActivity(ctx, s.activity, "Review %d submitted by user %s", review.ID, actor.Username)
	return review, nil
}

// UpdateReview keeps the previously approved text visible until a member
// of staff approves the edit: the old values are copied aside and the
// update waits unpublished.
func (s *contentService) UpdateReview(ctx context.Context, actor Actor, id uint, in ReviewInput) (*models.Review, error) {
	review, err := s.contentRepo.FindReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.UserID != actor.ID {
		return nil, ErrReviewNotFound
	}

	review.PreviousReview = review.Review
	review.PreviousRating = review.Rating
	review.PreviousTitle = review.Title

	review.Title = in.Title
	review.Review = in.Review
	review.Rating = in.Rating
	review.Edited = true
	review.UpdatePublished = false
	now := time.Now()
	review.EditedDate = &now

	if err := s.contentRepo.SaveReview(ctx, review); err != nil {
		return nil, err
	}
	logActivity(ctx, s.activity, "Review %d edited by user %s, awaiting approval", review.ID, actor.Username)
	return review, nil
}

func (s *contentService) ListReviews(ctx context.Context, includeUnpublished bool) ([]models.Review, error) {
	return s.contentRepo.ListReviews(ctx, !includeUnpublished)
}

func (s *contentService) ApproveReview(ctx context.Context, id uint) (*models.Review, error) {
	review, err := s.contentRepo.FindReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	if review.Edited && review.Published {
		review.UpdatePublished = true
	} else {
		review.Published = true
	}
	if err := s.contentRepo.SaveReview(ctx, review); err != nil {
		return nil, err
	}
	logActivity(ctx, s.activity, "Review %d approved", review.ID)
	return review, nil
}

// RejectReview throws away a pending edit, restoring the approved text; a
// review with no pending edit is unpublished entirely.
func (s *contentService) RejectReview(ctx context.Context, id uint) (*models.Review, error) {
	review, err := s.contentRepo.FindReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	if review.Edited && !review.UpdatePublished {
		review.Review = review.PreviousReview
		review.Rating = review.PreviousRating
		review.Title = review.PreviousTitle
		review.Edited = false
		review.EditedDate = nil
	} else {
		review.Published = false
		review.UpdatePublished = false
	}
	if err := s.contentRepo.SaveReview(ctx, review); err != nil {
		return nil, err
	}
	logActivity(ctx, s.activity, "Review %d rejected", review.ID)
	return review, nil
}

func (s *contentService) Timetable(ctx context.Context) ([]models.WeeklySession, []models.Location, error) {
	sessions, err := s.contentRepo.ListSessions(ctx)
	if err != nil {
		return nil, nil, err
	}
	locations, err := s.contentRepo.ListLocations(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sessions, locations, nil
}

// timetableRow is one line of the studio-admin CSV upload.
type timetableRow struct {
	Name            string  `csv:"name"`
	Day             string  `csv:"day"`
	Time            string  `csv:"time"`
	Description     string  `csv:"description"`
	Location        string  `csv:"location"`
	MaxParticipants string  `csv:"max_participants"`
	Cost            float64 `csv:"cost"`
	Full            bool    `csv:"full"`
	BlockInfo       string  `csv:"block_info"`
}

// ImportTimetable upserts sessions from the uploaded CSV, keyed on
// (name, day, time). With replace set the existing timetable is wiped
// first; either way the whole upload applies in one transaction.
func (s *contentService) ImportTimetable(ctx context.Context, csvData io.Reader, replace bool) (int, error) {
	var rows []timetableRow
	if err := gocsv.Unmarshal(csvData, &rows); err != nil {
		return 0, fmt.Errorf("parse timetable csv: %w", err)
	}

	locations, err := s.contentRepo.ListLocations(ctx)
	if err != nil {
		return 0, err
	}
	locationIDs := make(map[string]uint, len(locations))
	for _, loc := range locations {
		locationIDs[strings.ToLower(loc.ShortName)] = loc.ID
	}

	count := 0
	err = s.contentRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replace {
			if err := s.contentRepo.DeleteAllSessions(ctx, tx); err != nil {
				return err
			}
		}
		for i, row := range rows {
			day, ok := parseDay(row.Day)
			if !ok {
				return fmt.Errorf("timetable row %d: unknown day %q", i+1, row.Day)
			}
			session := &models.WeeklySession{
				Name:        strings.TrimSpace(row.Name),
				Day:         day,
				Time:        strings.TrimSpace(row.Time),
				Description: row.Description,
				Cost:        row.Cost,
				Full:        row.Full,
				BlockInfo:   row.BlockInfo,
			}
			if id, ok := locationIDs[strings.ToLower(strings.TrimSpace(row.Location))]; ok {
				session.LocationID = &id
			}
			if row.MaxParticipants != "" {
				max, err := strconv.Atoi(strings.TrimSpace(row.MaxParticipants))
				if err != nil {
					return fmt.Errorf("timetable row %d: bad max_participants %q", i+1, row.MaxParticipants)
				}
				session.MaxParticipants = &max
			}
			if err := s.contentRepo.UpsertSession(ctx, tx, session); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logActivity(ctx, s.activity, "Timetable uploaded (%d sessions)", count)
	return count, nil
}

var dayCodes = map[string]string{
	"monday":    models.Monday,
	"tuesday":   models.Tuesday,
	"wednesday": models.Wednesday,
	"thursday":  models.Thursday,
	"friday":    models.Friday,
	"saturday":  models.Saturday,
	"sunday":    models.Sunday,
}

func parseDay(day string) (string, bool) {
	d := strings.ToLower(strings.TrimSpace(day))
	if code, ok := dayCodes[d]; ok {
		return code, true
	}
	// already a stored code, e.g. re-uploading an exported timetable
	if _, ok := models.DayNames[strings.ToUpper(d)]; ok {
		return strings.ToUpper(d), true
	}
	return "", false
}
