package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// ZoneRepo owns the zones table and its available_tables counter.  The
// counter is only moved by ReserveTx and ReleaseTx, each a single
// conditional UPDATE so concurrent bookings are serialised by the row
// lock instead of a read followed by a write.
type ZoneRepo struct {
	db *sql.DB
}

// NewZoneRepo returns a new ZoneRepo bound to the given database.
func NewZoneRepo(db *sql.DB) *ZoneRepo { return &ZoneRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *ZoneRepo) DB() *sql.DB { return r.db }

const zoneColumns = `id, festival_id, name, total_tables, available_tables, price_per_table_cents, price_per_area_cents, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanZone(s rowScanner) (model.Zone, error) {
	var z model.Zone
	err := s.Scan(&z.ID, &z.FestivalID, &z.Name, &z.TotalTables, &z.AvailableTables,
		&z.PricePerTableCents, &z.PricePerAreaCents, &z.CreatedAt, &z.UpdatedAt)
	return z, err
}

// Create inserts a zone with all of its tables available and returns the
// stored row.  A duplicate name in the festival yields ErrConflict and an
// unknown festival ErrUnknownReference.
func (r *ZoneRepo) Create(ctx context.Context, z *model.Zone) error {
	const q = `INSERT INTO zones (festival_id, name, total_tables, available_tables, price_per_table_cents, price_per_area_cents) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, z.FestivalID, z.Name, z.TotalTables, z.TotalTables, z.PricePerTableCents, z.PricePerAreaCents)
	if err != nil {
		switch {
		case isDuplicate(err):
			return fmt.Errorf("%w: zone %q already exists in festival %d", ErrConflict, z.Name, z.FestivalID)
		case isMissingParent(err):
			return fmt.Errorf("%w: festival %d", ErrUnknownReference, z.FestivalID)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, r.db, uint64(id))
	if err != nil {
		return err
	}
	*z = *stored
	return nil
}

// GetByID loads a single zone.
func (r *ZoneRepo) GetByID(ctx context.Context, q DBTX, id uint64) (*model.Zone, error) {
	z, err := scanZone(q.QueryRowContext(ctx, `SELECT `+zoneColumns+` FROM zones WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: zone %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &z, nil
}

// ListByFestival returns every zone of a festival ordered by id.
func (r *ZoneRepo) ListByFestival(ctx context.Context, festivalID uint64) ([]model.Zone, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+zoneColumns+` FROM zones WHERE festival_id = ? ORDER BY id`, festivalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	zones := []model.Zone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return zones, nil
}

// FindForFestivalTx loads the zones with the given ids that belong to the
// festival, keyed by id.  Ids that are missing or belong to another
// festival are simply absent from the map.
func (r *ZoneRepo) FindForFestivalTx(ctx context.Context, q DBTX, festivalID uint64, ids []uint64) (map[uint64]model.Zone, error) {
	out := make(map[uint64]model.Zone, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE festival_id = ? AND id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{festivalID}, uint64Args(ids)...)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out[z.ID] = z
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReserveTx takes count tables from the zone if, and only if, that many
// are still available.  The check and the decrement are one statement;
// when no row matches the zone is short and ErrInsufficientStock is
// returned.
func (r *ZoneRepo) ReserveTx(ctx context.Context, q DBTX, zoneID uint64, count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: table count must be positive", ErrInvalidField)
	}
	const stmt = `UPDATE zones SET available_tables = available_tables - ? WHERE id = ? AND available_tables >= ?`
	res, err := q.ExecContext(ctx, stmt, count, zoneID, count)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: zone %d cannot cover %d tables", ErrInsufficientStock, zoneID, count)
	}
	return nil
}

// ReleaseTx gives count tables back to the zone.  The result is capped at
// total_tables; the cap only matters if the books were already wrong.
func (r *ZoneRepo) ReleaseTx(ctx context.Context, q DBTX, zoneID uint64, count int) error {
	if count <= 0 {
		return nil
	}
	const stmt = `UPDATE zones SET available_tables = LEAST(total_tables, available_tables + ?) WHERE id = ?`
	res, err := q.ExecContext(ctx, stmt, count, zoneID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: zone %d", ErrNotFound, zoneID)
	}
	return nil
}
