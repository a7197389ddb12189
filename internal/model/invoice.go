package model

import "time"

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

const (
	InvoiceIssued InvoiceStatus = "issued"
	InvoicePaid   InvoiceStatus = "paid"
)

// Invoice is the single billing document of a reservation.  Number is
// assigned once at issue time and never changes; PaidAt is set by the
// first successful payment and kept on later calls.
type Invoice struct {
	ID             uint64        `json:"id"`               // invoices.id
	ReservationID  uint64        `json:"reservation_id"`   // invoices.reservation_id (unique)
	Number         string        `json:"invoice_number"`   // invoices.invoice_number (unique)
	AmountDueCents int64         `json:"amount_due_cents"` // invoices.amount_due_cents
	Status         InvoiceStatus `json:"status"`           // invoices.status
	IssuedAt       time.Time     `json:"issued_at"`        // invoices.issued_at
	PaidAt         *time.Time    `json:"paid_at"`          // invoices.paid_at (nullable)
}
