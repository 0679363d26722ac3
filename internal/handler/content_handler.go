package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/watermelon-studio/studio-booking/internal/dto"
	"github.com/watermelon-studio/studio-booking/internal/middleware"
	"github.com/watermelon-studio/studio-booking/internal/models"
	"github.com/watermelon-studio/studio-booking/internal/service"
)

type ContentHandler struct {
	svc service.ContentService
}

func NewContentHandler(svc service.ContentService) *ContentHandler {
	return &ContentHandler{svc: svc}
}

// RegisterRoutes mounts the public content routes; the group carries
// OptionalAuth so restricted pages can check for a logged-in user.
func (h *ContentHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/pages", h.ListPages)
	g.GET("/pages/:name", h.GetPage)
	g.GET("/gallery", h.Gallery)
	g.GET("/reviews", h.ListReviews)
	g.GET("/timetable", h.Timetable)
}

// RegisterMemberRoutes requires auth.
func (h *ContentHandler) RegisterMemberRoutes(g *echo.Group) {
	g.POST("/reviews", h.SubmitReview)
	g.PUT("/reviews/:id", h.UpdateReview)
}

func (h *ContentHandler) RegisterAdminRoutes(g *echo.Group) {
	g.POST("/pages", h.CreatePage)
	g.PUT("/pages/:name", h.UpdatePage)
	g.DELETE("/pages/:name", h.DeletePage)
	g.POST("/pages/:name/pictures", h.AddPicture)
	g.DELETE("/pictures/:id", h.DeletePicture)

	g.POST("/gallery/categories", h.CreateCategory)
	g.POST("/gallery/categories/:id/images", h.AddImage)
	g.DELETE("/gallery/images/:id", h.DeleteImage)

	g.GET("/reviews", h.ListAllReviews)
	g.POST("/reviews/:id/approve", h.ApproveReview)
	g.POST("/reviews/:id/reject", h.RejectReview)

	g.POST("/timetable", h.UploadTimetable)
}

func (h *ContentHandler) ListPages(c echo.Context) error {
	pages, err := h.svc.ListPages(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pages)
}

func (h *ContentHandler) GetPage(c echo.Context) error {
	authenticated := middleware.ClaimsFrom(c) != nil

	page, err := h.svc.GetPage(c.Request().Context(), c.Param("name"), authenticated)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPageNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPageRestricted):
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		default:
			return err
		}
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ContentHandler) CreatePage(c echo.Context) error {
	var req dto.PageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page, err := h.svc.CreatePage(c.Request().Context(), pageInput(&req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, page)
}

func (h *ContentHandler) UpdatePage(c echo.Context) error {
	var req dto.PageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page, err := h.svc.UpdatePage(c.Request().Context(), c.Param("name"), pageInput(&req))
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ContentHandler) DeletePage(c echo.Context) error {
	if err := h.svc.DeletePage(c.Request().Context(), c.Param("name")); err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ContentHandler) AddPicture(c echo.Context) error {
	var req dto.PictureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pic, err := h.svc.AddPicture(c.Request().Context(), c.Param("name"), req.Filename, req.Main)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusCreated, pic)
}

func (h *ContentHandler) DeletePicture(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePicture(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ContentHandler) Gallery(c echo.Context) error {
	categories, err := h.svc.ListGallery(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *ContentHandler) CreateCategory(c echo.Context) error {
	var req dto.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cat, err := h.svc.CreateCategory(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *ContentHandler) AddImage(c echo.Context) error {
	categoryID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req dto.ImageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	img, err := h.svc.AddImage(c.Request().Context(), categoryID, req.Filename, req.Caption)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *ContentHandler) DeleteImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteImage(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ContentHandler) ListReviews(c echo.Context) error {
	return h.listReviews(c, false)
}

func (h *ContentHandler) ListAllReviews(c echo.Context) error {
	return h.listReviews(c, true)
}

func (h *ContentHandler) listReviews(c echo.Context, includeUnpublished bool) error {
	reviews, err := h.svc.ListReviews(c.Request().Context(), includeUnpublished)
	if err != nil {
		return err
	}

	resp := make([]dto.ReviewResponse, len(reviews))
	for i := range reviews {
		resp[i] = dto.ToReviewResponse(&reviews[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ContentHandler) SubmitReview(c echo.Context) error {
	var req dto.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	review, err := h.svc.SubmitReview(c.Request().Context(), actor(c), service.ReviewInput{
		Title:  req.Title,
		Review: req.Review,
		Rating: req.Rating,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToReviewResponse(review))
}

func (h *ContentHandler) UpdateReview(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req dto.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	review, err := h.svc.UpdateReview(c.Request().Context(), actor(c), id, service.ReviewInput{
		Title:  req.Title,
		Review: req.Review,
		Rating: req.Rating,
	})
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, dto.ToReviewResponse(review))
}

func (h *ContentHandler) ApproveReview(c echo.Context) error {
	return h.moderateReview(c, h.svc.ApproveReview)
}

func (h *ContentHandler) RejectReview(c echo.Context) error {
	return h.moderateReview(c, h.svc.RejectReview)
}

func (h *ContentHandler) moderateReview(c echo.Context, action func(ctx context.Context, id uint) (*models.Review, error)) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	review, err := action(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, dto.ToReviewResponse(review))
}

func (h *ContentHandler) Timetable(c echo.Context) error {
	sessions, locations, err := h.svc.Timetable(c.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]dto.TimetableSessionResponse, len(sessions))
	for i := range sessions {
		resp[i] = dto.ToSessionResponse(&sessions[i])
	}
	return c.JSON(http.StatusOK, map[string]any{
		"sessions":  resp,
		"locations": locations,
	})
}

// UploadTimetable takes a multipart CSV under field "file";
// ?replace=true wipes the current timetable first.
func (h *ContentHandler) UploadTimetable(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "csv file is required")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer f.Close()

	replace := c.QueryParam("replace") == "true"
	count, err := h.svc.ImportTimetable(c.Request().Context(), f, replace)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"imported": count})
}

func pageInput(req *dto.PageRequest) service.PageInput {
	return service.PageInput{
		Name:         req.Name,
		MenuName:     req.MenuName,
		MenuLocation: req.MenuLocation,
		Heading:      req.Heading,
		Layout:       req.Layout,
		Content:      req.Content,
		Restricted:   req.Restricted,
	}
}
