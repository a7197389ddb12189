package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// InvoiceRepo provides persistence for invoices.  The table carries
// unique keys on reservation_id and invoice_number; the repository maps
// a duplicate on insert to ErrInvoiceAlreadyExists.
type InvoiceRepo struct {
	db *sql.DB
}

// NewInvoiceRepo returns a new InvoiceRepo bound to the given database.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

const invoiceColumns = `id, reservation_id, invoice_number, amount_due_cents, status, issued_at, paid_at`

func scanInvoice(s rowScanner) (model.Invoice, error) {
	var (
		inv    model.Invoice
		status string
		paidAt sql.NullTime
	)
	if err := s.Scan(&inv.ID, &inv.ReservationID, &inv.Number, &inv.AmountDueCents, &status, &inv.IssuedAt, &paidAt); err != nil {
		return inv, err
	}
	inv.Status = model.InvoiceStatus(status)
	if paidAt.Valid {
		t := paidAt.Time
		inv.PaidAt = &t
	}
	return inv, nil
}

// CreateTx inserts an issued invoice and sets its generated ID.
func (r *InvoiceRepo) CreateTx(ctx context.Context, q DBTX, inv *model.Invoice) error {
	const stmt = `INSERT INTO invoices (reservation_id, invoice_number, amount_due_cents, status, issued_at) VALUES (?, ?, ?, ?, ?)`
	res, err := q.ExecContext(ctx, stmt, inv.ReservationID, inv.Number, inv.AmountDueCents, string(inv.Status), inv.IssuedAt)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: reservation %d", ErrInvoiceAlreadyExists, inv.ReservationID)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return nil
}

// GetTx loads an invoice by id, optionally locking the row.
func (r *InvoiceRepo) GetTx(ctx context.Context, q DBTX, id uint64, forUpdate bool) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	inv, err := scanInvoice(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &inv, nil
}

// GetByReservationTx loads the invoice bound to a reservation.
func (r *InvoiceRepo) GetByReservationTx(ctx context.Context, q DBTX, reservationID uint64) (*model.Invoice, error) {
	inv, err := scanInvoice(q.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE reservation_id = ?`, reservationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no invoice for reservation %d", ErrNotFound, reservationID)
		}
		return nil, err
	}
	return &inv, nil
}

// GetByReservation is GetByReservationTx outside a transaction.
func (r *InvoiceRepo) GetByReservation(ctx context.Context, reservationID uint64) (*model.Invoice, error) {
	return r.GetByReservationTx(ctx, r.db, reservationID)
}

// MarkPaidTx flags the invoice paid.  paid_at keeps its first value.
func (r *InvoiceRepo) MarkPaidTx(ctx context.Context, q DBTX, id uint64, now time.Time) error {
	const stmt = `UPDATE invoices SET status = ?, paid_at = COALESCE(paid_at, ?) WHERE id = ?`
	res, err := q.ExecContext(ctx, stmt, string(model.InvoicePaid), now, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "invoice", id)
}

// DeleteByReservationTx removes the invoice of a reservation, if any.
func (r *InvoiceRepo) DeleteByReservationTx(ctx context.Context, q DBTX, reservationID uint64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM invoices WHERE reservation_id = ?`, reservationID)
	return err
}
