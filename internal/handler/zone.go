package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/service"
)

// ZoneService is the part of service.ZoneService the handler uses.
type ZoneService interface {
	CreateZone(ctx context.Context, in service.CreateZoneInput) (*model.Zone, error)
	ListZones(ctx context.Context, festivalID uint64) ([]model.Zone, error)
}

// ZoneHandler serves zone listing and creation.
type ZoneHandler struct {
	Zones ZoneService
}

// NewZoneHandler returns a ZoneHandler over z.
func NewZoneHandler(z ZoneService) *ZoneHandler { return &ZoneHandler{Zones: z} }

type createZoneReq struct {
	Name               string `json:"name" validate:"required,max=255"`
	TotalTables        int    `json:"total_tables" validate:"gt=0"`
	PricePerTableCents int64  `json:"price_per_table_cents" validate:"gte=0"`
	PricePerAreaCents  int64  `json:"price_per_area_cents" validate:"gte=0"`
}

// List handles GET /v1/festivals/:id/zones.
func (h *ZoneHandler) List(c echo.Context) error {
	festivalID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid festival id")
	}
	zones, err := h.Zones.ListZones(c.Request().Context(), festivalID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, zones)
}

// Create handles POST /v1/festivals/:id/zones.
func (h *ZoneHandler) Create(c echo.Context) error {
	festivalID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid festival id")
	}
	var req createZoneReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}
	z, err := h.Zones.CreateZone(c.Request().Context(), service.CreateZoneInput{
		FestivalID:         festivalID,
		Name:               req.Name,
		TotalTables:        req.TotalTables,
		PricePerTableCents: req.PricePerTableCents,
		PricePerAreaCents:  req.PricePerAreaCents,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, z)
}
