package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// InvoiceService is the part of service.InvoiceService the handler uses.
type InvoiceService interface {
	Issue(ctx context.Context, reservationID uint64) (*model.Invoice, error)
	MarkPaid(ctx context.Context, invoiceID uint64) (*model.Invoice, error)
	GetByReservation(ctx context.Context, reservationID uint64) (*model.Invoice, error)
}

// InvoiceHandler serves the invoice endpoints of a reservation.
type InvoiceHandler struct {
	Invoices InvoiceService
}

// NewInvoiceHandler returns an InvoiceHandler over s.
func NewInvoiceHandler(s InvoiceService) *InvoiceHandler { return &InvoiceHandler{Invoices: s} }

// Get handles GET /v1/reservations/:id/invoice.
func (h *InvoiceHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	inv, err := h.Invoices.GetByReservation(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// Issue handles POST /v1/reservations/:id/invoice.
func (h *InvoiceHandler) Issue(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	inv, err := h.Invoices.Issue(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

// Pay handles POST /v1/invoices/:id/pay.  Paying an already paid invoice
// returns it unchanged with 200.
func (h *InvoiceHandler) Pay(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid invoice id")
	}
	inv, err := h.Invoices.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}
