package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/service"
)

// ReservationService is the part of service.ReservationService the
// handler uses.
type ReservationService interface {
	Create(ctx context.Context, in service.CreateReservationInput) (*model.Reservation, error)
	Get(ctx context.Context, id uint64) (*model.Reservation, error)
	ListByFestival(ctx context.Context, festivalID uint64) ([]model.Reservation, error)
	ListByEditor(ctx context.Context, editorID uint64) ([]model.Reservation, error)
	Delete(ctx context.Context, id uint64) error
	UpdateStatus(ctx context.Context, id uint64, status string) (*model.Reservation, error)
	UpdateFields(ctx context.Context, id uint64, p service.ReservationPatch) (*model.Reservation, error)
}

// ReservationHandler exposes reservation CRUD and the direct status edit.
type ReservationHandler struct {
	Reservations ReservationService
}

// NewReservationHandler returns a ReservationHandler over r.
func NewReservationHandler(r ReservationService) *ReservationHandler {
	return &ReservationHandler{Reservations: r}
}

type statusReq struct {
	Status string `json:"workflow_status"`
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req service.CreateReservationInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	res, err := h.Reservations.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	res, err := h.Reservations.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListByFestival handles GET /v1/festivals/:id/reservations.
func (h *ReservationHandler) ListByFestival(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid festival id")
	}
	list, err := h.Reservations.ListByFestival(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// ListByEditor handles GET /v1/editors/:id/reservations.
func (h *ReservationHandler) ListByEditor(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid editor id")
	}
	list, err := h.Reservations.ListByEditor(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Update handles PATCH /v1/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var patch service.ReservationPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	res, err := h.Reservations.UpdateFields(c.Request().Context(), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// UpdateStatus handles PUT /v1/reservations/:id/status.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_required_field", "message": "workflow_status required"})
	}
	res, err := h.Reservations.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	if err := h.Reservations.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
