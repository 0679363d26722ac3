package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/watermelon-studio/studio-booking/internal/dto"
	"github.com/watermelon-studio/studio-booking/internal/models"
	"github.com/watermelon-studio/studio-booking/internal/service"
)

type EventHandler struct {
	svc service.EventService
}

func NewEventHandler(svc service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/events", h.ListEvents)
	g.GET("/events/:slug", h.GetEvent)
	g.GET("/event-types", h.ListEventTypes)
}

func (h *EventHandler) RegisterAdminRoutes(g *echo.Group) {
	g.POST("/events", h.CreateEvent)
	g.PUT("/events/:id", h.UpdateEvent)
	g.DELETE("/events/:id", h.DeleteEvent)
	g.POST("/event-types", h.CreateEventType)
}

// ListEvents serves both the classes and the workshops listing, selected
// by ?type=CL|EV, optionally filtered by name.
func (h *EventHandler) ListEvents(c echo.Context) error {
	evType := c.QueryParam("type")
	name := c.QueryParam("name")

	details, err := h.svc.ListEvents(c.Request().Context(), evType, name)
	if err != nil {
		return err
	}

	resp := make([]dto.EventResponse, len(details))
	for i := range details {
		resp[i] = dto.ToEventResponse(&details[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	detail, err := h.svc.GetEventBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(detail))
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	event := eventFromRequest(&req)
	if err := h.svc.CreateEvent(c.Request().Context(), event); err != nil {
		return err
	}

	detail, err := h.svc.GetEventBySlug(c.Request().Context(), event.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToEventResponse(detail))
}

func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	current, err := h.svc.GetEventByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}

	event := eventFromRequest(&req)
	event.ID = id
	event.Slug = current.Slug
	event.CreatedAt = current.CreatedAt
	if err := h.svc.UpdateEvent(c.Request().Context(), event); err != nil {
		return err
	}

	detail, err := h.svc.GetEventBySlug(c.Request().Context(), event.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(detail))
}

func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteEvent(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrEventHasBookings):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return err
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *EventHandler) CreateEventType(c echo.Context) error {
	var req dto.CreateEventTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	et := &models.EventType{Type: req.Type, Subtype: req.Subtype}
	if err := h.svc.CreateEventType(c.Request().Context(), et); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, et)
}

func (h *EventHandler) ListEventTypes(c echo.Context) error {
	types, err := h.svc.ListEventTypes(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, types)
}

func eventFromRequest(req *dto.CreateEventRequest) *models.Event {
	return &models.Event{
		Name:                   req.Name,
		EventTypeID:            req.EventTypeID,
		Description:            req.Description,
		Date:                   req.Date,
		Location:               req.Location,
		MaxParticipants:        req.MaxParticipants,
		ContactPerson:          req.ContactPerson,
		ContactEmail:           req.ContactEmail,
		Cost:                   req.Cost,
		AdvancePaymentRequired: req.AdvancePaymentRequired,
		BookingOpen:            req.BookingOpen,
		PaymentInfo:            req.PaymentInfo,
		PaymentDueDate:         req.PaymentDueDate,
		CancellationPeriod:     req.CancellationPeriod,
		EmailStudioWhenBooked:  req.EmailStudioWhenBooked,
	}
}
