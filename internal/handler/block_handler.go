package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/watermelon-studio/studio-booking/internal/dto"
	"github.com/watermelon-studio/studio-booking/internal/service"
)

type BlockHandler struct {
	svc service.BlockService
}

func NewBlockHandler(svc service.BlockService) *BlockHandler {
	return &BlockHandler{svc: svc}
}

func (h *BlockHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/blocks", h.ListBlocks)
	g.GET("/blocks/:id", h.GetBlock)
}

func (h *BlockHandler) RegisterAdminRoutes(g *echo.Group) {
	g.POST("/blocks", h.CreateBlock)
	g.PUT("/blocks/:id", h.UpdateBlock)
	g.POST("/blocks/:id/open", h.OpenBlock)
}

func (h *BlockHandler) ListBlocks(c echo.Context) error {
	blocks, err := h.svc.ListOpenBlocks(c.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]dto.BlockResponse, len(blocks))
	for i := range blocks {
		resp[i] = dto.ToBlockResponse(&blocks[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BlockHandler) GetBlock(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	block, err := h.svc.GetBlock(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBlockNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, dto.ToBlockResponse(block))
}

func (h *BlockHandler) CreateBlock(c echo.Context) error {
	var req dto.CreateBlockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	block, err := h.svc.CreateBlock(c.Request().Context(), service.CreateBlockInput{
		Name:                  req.Name,
		ItemCost:              req.ItemCost,
		BookingOpen:           req.BookingOpen,
		IndividualBookingDate: req.IndividualBookingDate,
		EventIDs:              req.EventIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToBlockResponse(block))
}

func (h *BlockHandler) UpdateBlock(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req dto.CreateBlockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	block, err := h.svc.UpdateBlock(c.Request().Context(), id, service.CreateBlockInput{
		Name:                  req.Name,
		ItemCost:              req.ItemCost,
		BookingOpen:           req.BookingOpen,
		IndividualBookingDate: req.IndividualBookingDate,
		EventIDs:              req.EventIDs,
	})
	if err != nil {
		if errors.Is(err, service.ErrBlockNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, dto.ToBlockResponse(block))
}

func (h *BlockHandler) OpenBlock(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	block, err := h.svc.OpenBlock(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBlockNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, dto.ToBlockResponse(block))
}
