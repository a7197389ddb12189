package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/queue"
	"github.com/iliyamo/festival-reservation/internal/repository"
	"github.com/iliyamo/festival-reservation/internal/workflow"
)

// InvoiceService issues invoices and records their payment.  Each call
// moves the reservation along the workflow in the same transaction.
type InvoiceService struct {
	Deps
}

// NewInvoiceService returns an InvoiceService over d.
func NewInvoiceService(d Deps) *InvoiceService {
	d.normalize()
	return &InvoiceService{Deps: d}
}

// InvoiceNumber formats the number of the invoice of a reservation.  One
// reservation has at most one invoice, so the id makes it unique.
func InvoiceNumber(year int, reservationID uint64) string {
	return fmt.Sprintf("FAC-%d-%06d", year, reservationID)
}

// invoiceStatusFor is the status an invoice carries while its reservation
// is in s.
func invoiceStatusFor(s workflow.Status) model.InvoiceStatus {
	state, _ := workflow.InvoiceStateFor(s)
	return model.InvoiceStatus(state)
}

// Issue bills a reservation for its final price and moves it to facture.
func (s *InvoiceService) Issue(ctx context.Context, reservationID uint64) (*model.Invoice, error) {
	now := s.Now()
	var inv *model.Invoice
	var res *model.Reservation
	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		if res, err = s.Reservations.GetTx(ctx, tx, reservationID, true); err != nil {
			return err
		}
		existing, err := s.Invoices.GetByReservationTx(ctx, tx, reservationID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", repository.ErrInvoiceAlreadyExists, existing.Number)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		if err := workflow.Transition(res.Status, workflow.Invoiced, workflow.ByInvoiceIssue); err != nil {
			return err
		}
		inv = &model.Invoice{
			ReservationID:  reservationID,
			Number:         InvoiceNumber(now.Year(), reservationID),
			AmountDueCents: res.FinalPriceCents,
			Status:         invoiceStatusFor(workflow.Invoiced),
			IssuedAt:       now,
		}
		if err := s.Invoices.CreateTx(ctx, tx, inv); err != nil {
			return err
		}
		return s.Reservations.UpdateStatusTx(ctx, tx, reservationID, workflow.Invoiced, res.StockReleased, now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.Event{
		Type:           queue.InvoiceIssued,
		ReservationID:  reservationID,
		EditorID:       res.EditorID,
		FestivalID:     res.FestivalID,
		Status:         string(workflow.Invoiced),
		InvoiceID:      inv.ID,
		InvoiceNumber:  inv.Number,
		AmountDueCents: inv.AmountDueCents,
		OccurredAt:     now,
	})
	return inv, nil
}

// MarkPaid records the payment of an invoice and moves its reservation to
// facture_payee.  Paying twice returns the invoice as first paid.
func (s *InvoiceService) MarkPaid(ctx context.Context, invoiceID uint64) (*model.Invoice, error) {
	now := s.Now()
	var inv *model.Invoice
	var res *model.Reservation
	alreadyPaid := false
	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		if inv, err = s.Invoices.GetTx(ctx, tx, invoiceID, true); err != nil {
			return err
		}
		if inv.Status == model.InvoicePaid {
			alreadyPaid = true
			return nil
		}
		if res, err = s.Reservations.GetTx(ctx, tx, inv.ReservationID, true); err != nil {
			return err
		}
		if res.Status != workflow.Paid {
			if err := workflow.Transition(res.Status, workflow.Paid, workflow.ByInvoicePayment); err != nil {
				return err
			}
		}
		if err := s.Invoices.MarkPaidTx(ctx, tx, invoiceID, now); err != nil {
			return err
		}
		if res.Status != workflow.Paid {
			if err := s.Reservations.UpdateStatusTx(ctx, tx, res.ID, workflow.Paid, res.StockReleased, now); err != nil {
				return err
			}
		}
		inv.Status = invoiceStatusFor(workflow.Paid)
		if inv.PaidAt == nil {
			paidAt := now
			inv.PaidAt = &paidAt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyPaid {
		return inv, nil
	}

	s.publish(ctx, queue.Event{
		Type:           queue.InvoicePaid,
		ReservationID:  inv.ReservationID,
		EditorID:       res.EditorID,
		FestivalID:     res.FestivalID,
		Status:         string(workflow.Paid),
		InvoiceID:      inv.ID,
		InvoiceNumber:  inv.Number,
		AmountDueCents: inv.AmountDueCents,
		OccurredAt:     now,
	})
	return inv, nil
}

// GetByReservation returns the invoice of a reservation, or ErrNotFound.
func (s *InvoiceService) GetByReservation(ctx context.Context, reservationID uint64) (*model.Invoice, error) {
	return s.Invoices.GetByReservation(ctx, reservationID)
}
