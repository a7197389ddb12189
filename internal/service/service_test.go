package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/festival-reservation/internal/queue"
)

var (
	zoneCols    = []string{"id", "festival_id", "name", "total_tables", "available_tables", "price_per_table_cents", "price_per_area_cents", "created_at", "updated_at"}
	resCols     = []string{"id", "editor_id", "festival_id", "tables_offered", "discount_cents", "total_price_cents", "final_price_cents", "workflow_status", "presentation", "stock_released", "created_at", "updated_at"}
	lineCols    = []string{"reservation_id", "zone_id", "tables", "area_sqm", "table_price_cents", "area_price_cents"}
	invoiceCols = []string{"id", "reservation_id", "invoice_number", "amount_due_cents", "status", "issued_at", "paid_at"}

	fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
)

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []queue.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestDeps(t *testing.T) (Deps, sqlmock.Sqlmock, *recorder) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rec := &recorder{}
	d := NewDeps(db)
	d.Events = rec
	d.Log = log.New("test")
	d.Log.SetLevel(log.OFF)
	d.Now = func() time.Time { return fixedNow }
	return d, mock, rec
}

func existsRow() *sqlmock.Rows { return sqlmock.NewRows([]string{"1"}).AddRow(1) }

func reservationRow(id, editorID, festivalID uint64, offered int, discount, total, final int64, status string, released bool) *sqlmock.Rows {
	return sqlmock.NewRows(resCols).AddRow(id, editorID, festivalID, offered, discount, total, final, status, false, released, fixedNow, fixedNow)
}

func expectReservationLocked(mock sqlmock.Sqlmock, rows *sqlmock.Rows, id uint64) {
	mock.ExpectQuery(`SELECT id, editor_id, .* FROM reservations WHERE id = \? FOR UPDATE`).
		WithArgs(id).WillReturnRows(rows)
}

func expectLines(mock sqlmock.Sqlmock, id uint64, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT reservation_id, zone_id, .* FROM reservation_lines WHERE reservation_id = \? ORDER BY zone_id`).
		WithArgs(id).WillReturnRows(rows)
}

