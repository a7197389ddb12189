package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/workflow"
)

// ReservationRepo provides persistence for reservations and their lines.
// Lines are stored in reservation_lines keyed by (reservation_id,
// zone_id).  Write methods take a DBTX so the service can combine them
// with stock moves in one transaction.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, editor_id, festival_id, tables_offered, discount_cents, total_price_cents, final_price_cents, workflow_status, presentation, stock_released, created_at, updated_at`

const lineColumns = `reservation_id, zone_id, tables, area_sqm, table_price_cents, area_price_cents`

func scanReservation(s rowScanner) (model.Reservation, error) {
	var (
		res    model.Reservation
		status string
	)
	err := s.Scan(&res.ID, &res.EditorID, &res.FestivalID, &res.TablesOffered, &res.DiscountCents,
		&res.TotalPriceCents, &res.FinalPriceCents, &status, &res.Presentation, &res.StockReleased,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return res, err
	}
	st, err := workflow.Parse(status)
	if err != nil {
		return res, err
	}
	res.Status = st
	return res, nil
}

func scanLine(s rowScanner) (model.ReservationLine, error) {
	var l model.ReservationLine
	err := s.Scan(&l.ReservationID, &l.ZoneID, &l.Tables, &l.AreaSqm, &l.TablePriceCents, &l.AreaPriceCents)
	return l, err
}

// CreateTx inserts the reservation header and sets its generated ID.
// Lines are inserted separately with CreateLinesTx.
func (r *ReservationRepo) CreateTx(ctx context.Context, q DBTX, res *model.Reservation) error {
	const stmt = `INSERT INTO reservations (editor_id, festival_id, tables_offered, discount_cents, total_price_cents, final_price_cents, workflow_status, presentation, stock_released, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, stmt,
		res.EditorID, res.FestivalID, res.TablesOffered, res.DiscountCents,
		res.TotalPriceCents, res.FinalPriceCents, string(res.Status), res.Presentation, res.StockReleased,
		res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if isMissingParent(err) {
			return fmt.Errorf("%w: editor %d or festival %d", ErrUnknownReference, res.EditorID, res.FestivalID)
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// CreateLinesTx inserts all lines of a reservation in one statement and
// stamps them with the reservation ID.  Passing an empty slice has no
// effect.
func (r *ReservationRepo) CreateLinesTx(ctx context.Context, q DBTX, reservationID uint64, lines []model.ReservationLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_lines (` + lineColumns + `) VALUES `
	args := make([]any, 0, len(lines)*6)
	for i := range lines {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		lines[i].ReservationID = reservationID
		l := lines[i]
		args = append(args, reservationID, l.ZoneID, l.Tables, l.AreaSqm, l.TablePriceCents, l.AreaPriceCents)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		if isMissingParent(err) {
			return fmt.Errorf("%w: zone referenced by reservation %d", ErrUnknownReference, reservationID)
		}
		return err
	}
	return nil
}

// GetTx loads the reservation header without its lines.  With forUpdate
// the row stays locked until the surrounding transaction ends.
func (r *ReservationRepo) GetTx(ctx context.Context, q DBTX, id uint64, forUpdate bool) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	res, err := scanReservation(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: reservation %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &res, nil
}

// LinesTx returns the lines of a reservation ordered by zone.
func (r *ReservationRepo) LinesTx(ctx context.Context, q DBTX, reservationID uint64) ([]model.ReservationLine, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+lineColumns+` FROM reservation_lines WHERE reservation_id = ? ORDER BY zone_id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []model.ReservationLine{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Get returns a reservation with its lines.
func (r *ReservationRepo) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := r.GetTx(ctx, r.db, id, false)
	if err != nil {
		return nil, err
	}
	if res.Lines, err = r.LinesTx(ctx, r.db, id); err != nil {
		return nil, err
	}
	return res, nil
}

// ListByFestival returns the reservations of a festival, newest first.
func (r *ReservationRepo) ListByFestival(ctx context.Context, festivalID uint64) ([]model.Reservation, error) {
	return r.list(ctx, `festival_id = ?`, festivalID)
}

// ListByEditor returns the reservations of an editor, newest first.
func (r *ReservationRepo) ListByEditor(ctx context.Context, editorID uint64) ([]model.Reservation, error) {
	return r.list(ctx, `editor_id = ?`, editorID)
}

func (r *ReservationRepo) list(ctx context.Context, where string, arg any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE `+where+` ORDER BY created_at DESC, id DESC`, arg)
	if err != nil {
		return nil, err
	}
	out := []model.Reservation{}
	index := make(map[uint64]int)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		res.Lines = []model.ReservationLine{}
		index[res.ID] = len(out)
		out = append(out, res)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	ids := make([]uint64, 0, len(out))
	for _, res := range out {
		ids = append(ids, res.ID)
	}
	lrows, err := r.db.QueryContext(ctx,
		`SELECT `+lineColumns+` FROM reservation_lines WHERE reservation_id IN (`+placeholders(len(ids))+`) ORDER BY reservation_id, zone_id`,
		uint64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		l, err := scanLine(lrows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[l.ReservationID]; ok {
			out[i].Lines = append(out[i].Lines, l)
		}
	}
	if err := lrows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatusTx stores a new workflow status.  stockReleased records
// whether the reservation's tables have been returned to their zones.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, q DBTX, id uint64, status workflow.Status, stockReleased bool, now time.Time) error {
	const stmt = `UPDATE reservations SET workflow_status = ?, stock_released = ?, updated_at = ? WHERE id = ?`
	res, err := q.ExecContext(ctx, stmt, string(status), stockReleased, now, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "reservation", id)
}

// UpdateTermsTx stores the discount fields, the presentation flag and the
// recomputed final price.  Lines, totals and status are left untouched.
func (r *ReservationRepo) UpdateTermsTx(ctx context.Context, q DBTX, res *model.Reservation) error {
	const stmt = `UPDATE reservations SET tables_offered = ?, discount_cents = ?, presentation = ?, final_price_cents = ?, updated_at = ? WHERE id = ?`
	result, err := q.ExecContext(ctx, stmt, res.TablesOffered, res.DiscountCents, res.Presentation, res.FinalPriceCents, res.UpdatedAt, res.ID)
	if err != nil {
		return err
	}
	return expectOneRow(result, "reservation", res.ID)
}

// DeleteTx removes a reservation and its lines.  The caller is
// responsible for returning stock and removing the invoice in the same
// transaction.
func (r *ReservationRepo) DeleteTx(ctx context.Context, q DBTX, id uint64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM reservation_lines WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "reservation", id)
}

func expectOneRow(res sql.Result, what string, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
	}
	return nil
}
