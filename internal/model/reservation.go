package model

import (
	"math"
	"time"

	"github.com/iliyamo/festival-reservation/internal/workflow"
)

// Reservation books tables in one or more zones of a festival for an
// editor.  Prices are stored in cents.  FinalPriceCents is derived from
// the line snapshots and the two discount fields and is never above
// TotalPriceCents nor below zero.
type Reservation struct {
	ID              uint64            `json:"id"`                // reservations.id
	EditorID        uint64            `json:"editor_id"`         // reservations.editor_id
	FestivalID      uint64            `json:"festival_id"`       // reservations.festival_id
	Lines           []ReservationLine `json:"lines"`             // reservation_lines rows
	TablesOffered   int               `json:"tables_offered"`    // reservations.tables_offered
	DiscountCents   int64             `json:"discount_cents"`    // reservations.discount_cents
	TotalPriceCents int64             `json:"total_price_cents"` // reservations.total_price_cents
	FinalPriceCents int64             `json:"final_price_cents"` // reservations.final_price_cents
	Status          workflow.Status   `json:"workflow_status"`   // reservations.workflow_status
	Presentation    bool              `json:"presentation"`      // reservations.presentation
	StockReleased   bool              `json:"-"`                 // reservations.stock_released
	CreatedAt       time.Time         `json:"created_at"`        // reservations.created_at
	UpdatedAt       time.Time         `json:"updated_at"`        // reservations.updated_at
}

// ReservationLine is the part of a reservation allocated to one zone.
// The price snapshots are taken at booking time so later zone price
// edits do not change an existing reservation.
type ReservationLine struct {
	ReservationID   uint64  `json:"reservation_id"`    // reservation_lines.reservation_id
	ZoneID          uint64  `json:"zone_id"`           // reservation_lines.zone_id
	Tables          int     `json:"tables"`            // reservation_lines.tables
	AreaSqm         float64 `json:"area_sqm"`          // reservation_lines.area_sqm
	TablePriceCents int64   `json:"table_price_cents"` // reservation_lines.table_price_cents
	AreaPriceCents  int64   `json:"area_price_cents"`  // reservation_lines.area_price_cents
}

// PriceLine fills the price snapshots of l from the zone tariff.
func PriceLine(l *ReservationLine, z Zone) {
	l.TablePriceCents = int64(l.Tables) * z.PricePerTableCents
	l.AreaPriceCents = int64(math.Round(l.AreaSqm * float64(z.PricePerAreaCents)))
}

// Totals computes the total and final price of a set of priced lines.
// The offered tables are valued at the average per-table price of the
// reservation.
func Totals(lines []ReservationLine, tablesOffered int, discountCents int64) (total, final int64) {
	var tables int64
	var tablePrice int64
	for _, l := range lines {
		total += l.TablePriceCents + l.AreaPriceCents
		tablePrice += l.TablePriceCents
		tables += int64(l.Tables)
	}
	var avg int64
	if tables > 0 {
		avg = int64(math.Round(float64(tablePrice) / float64(tables)))
	}
	final = total - int64(tablesOffered)*avg - discountCents
	if final < 0 {
		final = 0
	}
	if final > total {
		final = total
	}
	return total, final
}

// TableCount returns the number of tables consumed by the reservation.
func (r *Reservation) TableCount() int {
	n := 0
	for _, l := range r.Lines {
		n += l.Tables
	}
	return n
}
