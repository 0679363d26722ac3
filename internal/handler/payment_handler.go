package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/watermelon-studio/studio-booking/internal/service"
)

type PaymentHandler struct {
	svc service.PaymentService
}

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/payments/pending", h.PendingPayments)
	g.GET("/payments/blocks/:id/form", h.BlockPaymentForm)
}

// RegisterPublicRoutes mounts the gateway callback, which authenticates by
// matching our records rather than a user token.
func (h *PaymentHandler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/payments/ipn", h.HandleIPN)
}

func (h *PaymentHandler) PendingPayments(c echo.Context) error {
	forms, err := h.svc.PendingPayments(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, forms)
}

func (h *PaymentHandler) BlockPaymentForm(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	form, err := h.svc.BlockPaymentForm(c.Request().Context(), actor(c), id)
	if err != nil {
		if errors.Is(err, service.ErrBlockNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, form)
}

// HandleIPN accepts the form-encoded gateway callback. Mismatches return
// 200 with no side effect so the gateway stops retrying; real errors 500
// so it retries later.
func (h *PaymentHandler) HandleIPN(c echo.Context) error {
	params := service.IPNParams{
		InvoiceID:     c.FormValue("invoice"),
		TransactionID: c.FormValue("txn_id"),
		PaymentStatus: c.FormValue("payment_status"),
		ReceiverEmail: c.FormValue("receiver_email"),
		Custom:        c.FormValue("custom"),
	}

	if err := h.svc.HandleIPN(c.Request().Context(), params); err != nil {
		if errors.Is(err, service.ErrPaymentMismatch) {
			return c.NoContent(http.StatusOK)
		}
		return err
	}
	return c.NoContent(http.StatusOK)
}
