package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/watermelon-studio/studio-booking/internal/dto"
	"github.com/watermelon-studio/studio-booking/internal/models"
	"github.com/watermelon-studio/studio-booking/internal/service"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// RegisterRoutes mounts the member routes; auth is REQUIRED on the group.
// Event detail routes use :slug, so booking creation takes the event id in
// the body instead of the path.
func (h *BookingHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/bookings", h.ListBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.POST("/bookings", h.CreateBooking)
	g.DELETE("/bookings/:id", h.CancelBooking)
	g.POST("/bookings/:id/paid", h.MarkPaid)

	g.POST("/waitinglist/:id", h.JoinWaitingList)
	g.DELETE("/waitinglist/:id", h.LeaveWaitingList)

	g.POST("/blocks/:id/bookings", h.CreateBlockBooking)
	g.POST("/blocks/:id/paid", h.MarkBlockPaid)
}

// RegisterAdminRoutes mounts the staff-only routes.
func (h *BookingHandler) RegisterAdminRoutes(g *echo.Group) {
	g.POST("/bookings", h.AdminCreateBooking)
	g.POST("/bookings/:id/confirm-space", h.ConfirmSpace)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.CreateBooking(c.Request().Context(), actor(c), req.EventID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrBookingClosed):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAlreadyBooked), errors.Is(err, service.ErrFullyBooked):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return err
		}
	}

	resp := dto.ToBookingResponse(result.Booking)
	resp.PendingReview = result.PendingReview()
	status := http.StatusCreated
	if result.Rebooked {
		status = http.StatusOK
	}
	return c.JSON(status, resp)
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	bookingID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cancelBlock := c.QueryParam("block") == "true"

	cancelled, err := h.svc.CancelBooking(c.Request().Context(), actor(c), bookingID, cancelBlock)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyCancelled),
			errors.Is(err, service.ErrCancellationPeriodPast):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return err
		}
	}

	resp := make([]dto.BookingResponse, len(cancelled))
	for i := range cancelled {
		resp[i] = dto.ToBookingResponse(&cancelled[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), actor(c), id)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	history := c.QueryParam("history") == "true"

	infos, err := h.svc.ListBookings(c.Request().Context(), actor(c), history)
	if err != nil {
		return err
	}

	resp := make([]dto.BookingResponse, len(infos))
	for i := range infos {
		resp[i] = dto.ToBookingInfoResponse(&infos[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) MarkPaid(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	booking, err := h.svc.MarkPaid(c.Request().Context(), actor(c), id)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CreateBlockBooking(c echo.Context) error {
	blockID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	bookings, err := h.svc.CreateBlockBooking(c.Request().Context(), actor(c), blockID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBlockNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrBookingClosed):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAlreadyBooked), errors.Is(err, service.ErrFullyBooked):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return err
		}
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		resp[i] = dto.ToBookingResponse(&bookings[i])
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) MarkBlockPaid(c echo.Context) error {
	blockID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.MarkBlockPaid(c.Request().Context(), actor(c), blockID); err != nil {
		if errors.Is(err, service.ErrBlockNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BookingHandler) JoinWaitingList(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	created, err := h.svc.JoinWaitingList(c.Request().Context(), actor(c), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	if !created {
		return c.NoContent(http.StatusOK)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *BookingHandler) LeaveWaitingList(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.svc.LeaveWaitingList(c.Request().Context(), actor(c), eventID); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BookingHandler) AdminCreateBooking(c echo.Context) error {
	var req dto.AdminCreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	status := models.StatusOpen
	if req.Status != "" {
		status = models.BookingStatus(req.Status)
	}

	booking, err := h.svc.CreateBookingForUser(c.Request().Context(), req.UserID, req.EventID, status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyBooked), errors.Is(err, service.ErrFullyBooked):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return err
		}
	}
	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ConfirmSpace(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	booking, err := h.svc.ConfirmSpace(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}
