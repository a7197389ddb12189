package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/queue"
	"github.com/iliyamo/festival-reservation/internal/repository"
	"github.com/iliyamo/festival-reservation/internal/workflow"
)

func TestInvoiceNumber(t *testing.T) {
	assert.Equal(t, "FAC-2025-000042", InvoiceNumber(2025, 42))
	assert.Equal(t, "FAC-2025-1234567", InvoiceNumber(2025, 1234567))
}

func expectNoInvoice(mock sqlmock.Sqlmock, reservationID uint64) {
	mock.ExpectQuery(`FROM invoices WHERE reservation_id = \?`).WithArgs(reservationID).WillReturnRows(sqlmock.NewRows(invoiceCols))
}

func TestInvoiceStatusFor(t *testing.T) {
	assert.Equal(t, model.InvoiceIssued, invoiceStatusFor(workflow.Invoiced))
	assert.Equal(t, model.InvoicePaid, invoiceStatusFor(workflow.Paid))
	assert.Empty(t, invoiceStatusFor(workflow.Present))
	assert.Empty(t, invoiceStatusFor(workflow.Cancelled))
}

func TestIssue_MovesReservationToFacture(t *testing.T) {
	d, mock, rec := newTestDeps(t)
	svc := NewInvoiceService(d)

	mock.ExpectBegin()
	expectReservationLocked(mock, reservationRow(12, 2, 7, 1, 5000, 30000, 15000, "present", false), 12)
	expectNoInvoice(mock, 12)
	mock.ExpectExec(`INSERT INTO invoices \(reservation_id, invoice_number, amount_due_cents, status, issued_at\)`).
		WithArgs(12, "FAC-2025-000012", 15000, "issued", fixedNow).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(`UPDATE reservations SET workflow_status = \?`).
		WithArgs("facture", false, fixedNow, 12).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inv, err := svc.Issue(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), inv.ID)
	assert.Equal(t, model.InvoiceIssued, inv.Status)
	assert.Equal(t, int64(15000), inv.AmountDueCents)
	assert.Nil(t, inv.PaidAt)
	assert.Equal(t, []queue.EventType{queue.InvoiceIssued}, rec.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssue_SecondInvoiceRejected(t *testing.T) {
	d, mock, rec := newTestDeps(t)

	mock.ExpectBegin()
	expectReservationLocked(mock, reservationRow(12, 2, 7, 0, 0, 100, 100, "facture", false), 12)
	mock.ExpectQuery(`FROM invoices WHERE reservation_id = \?`).WithArgs(12).
		WillReturnRows(sqlmock.NewRows(invoiceCols).AddRow(3, 12, "FAC-2025-000012", 100, "issued", fixedNow, nil))
	mock.ExpectRollback()

	_, err := NewInvoiceService(d).Issue(context.Background(), 12)
	assert.ErrorIs(t, err, repository.ErrInvoiceAlreadyExists)
	assert.Empty(t, rec.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssue_DuplicateKeyOnInsert(t *testing.T) {
	d, mock, _ := newTestDeps(t)

	mock.ExpectBegin()
	expectReservationLocked(mock, reservationRow(12, 2, 7, 0, 0, 100, 100, "present", false), 12)
	expectNoInvoice(mock, 12)
	mock.ExpectExec(`INSERT INTO invoices`).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := NewInvoiceService(d).Issue(context.Background(), 12)
	assert.ErrorIs(t, err, repository.ErrInvoiceAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssue_CancelledReservationCannotBeInvoiced(t *testing.T) {
	d, mock, _ := newTestDeps(t)

	mock.ExpectBegin()
	expectReservationLocked(mock, reservationRow(12, 2, 7, 0, 0, 100, 100, "annulée", true), 12)
	expectNoInvoice(mock, 12)
	mock.ExpectRollback()

	_, err := NewInvoiceService(d).Issue(context.Background(), 12)
	assert.ErrorIs(t, err, repository.ErrIllegalTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssue_UnknownReservation(t *testing.T) {
	d, mock, _ := newTestDeps(t)

	mock.ExpectBegin()
	expectReservationLocked(mock, sqlmock.NewRows(resCols), 99)
	mock.ExpectRollback()

	_, err := NewInvoiceService(d).Issue(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaid_Lifecycle(t *testing.T) {
	d, mock, rec := newTestDeps(t)
	svc := NewInvoiceService(d)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM invoices WHERE id = \? FOR UPDATE`).WithArgs(3).
		WillReturnRows(sqlmock.NewRows(invoiceCols).AddRow(3, 12, "FAC-2025-000012", 15000, "issued", fixedNow, nil))
	expectReservationLocked(mock, reservationRow(12, 2, 7, 1, 5000, 30000, 15000, "facture", false), 12)
	mock.ExpectExec(`UPDATE invoices SET status = \?, paid_at = COALESCE\(paid_at, \?\) WHERE id = \?`).
		WithArgs("paid", fixedNow, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE reservations SET workflow_status = \?`).
		WithArgs("facture_payee", false, fixedNow, 12).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inv, err := svc.MarkPaid(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.True(t, fixedNow.Equal(*inv.PaidAt))
	assert.Equal(t, []queue.EventType{queue.InvoicePaid}, rec.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaid_RepeatedCallKeepsPaidAt(t *testing.T) {
	d, mock, rec := newTestDeps(t)
	svc := NewInvoiceService(d)
	firstPaid := fixedNow.Add(-24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM invoices WHERE id = \? FOR UPDATE`).WithArgs(3).
		WillReturnRows(sqlmock.NewRows(invoiceCols).AddRow(3, 12, "FAC-2025-000012", 15000, "paid", fixedNow, firstPaid))
	mock.ExpectCommit()

	inv, err := svc.MarkPaid(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, inv.PaidAt)
	assert.True(t, firstPaid.Equal(*inv.PaidAt))
	assert.Empty(t, rec.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaid_CancelledReservationRejected(t *testing.T) {
	d, mock, _ := newTestDeps(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM invoices WHERE id = \? FOR UPDATE`).WithArgs(3).
		WillReturnRows(sqlmock.NewRows(invoiceCols).AddRow(3, 12, "FAC-2025-000012", 15000, "issued", fixedNow, nil))
	expectReservationLocked(mock, reservationRow(12, 2, 7, 0, 0, 15000, 15000, "annulée", true), 12)
	mock.ExpectRollback()

	_, err := NewInvoiceService(d).MarkPaid(context.Background(), 3)
	assert.ErrorIs(t, err, repository.ErrIllegalTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaid_UnknownInvoice(t *testing.T) {
	d, mock, _ := newTestDeps(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM invoices WHERE id = \?`).WithArgs(8).WillReturnRows(sqlmock.NewRows(invoiceCols))
	mock.ExpectRollback()

	_, err := NewInvoiceService(d).MarkPaid(context.Background(), 8)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
