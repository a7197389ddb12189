// Package queue defines the billing events exchanged over RabbitMQ, the
// publisher used by the services, and the consumer that records them.
package queue

import "time"

// EventType names a billing event.  It is also the AMQP message type.
type EventType string

const (
	ReservationCreated   EventType = "reservation.created"
	ReservationCancelled EventType = "reservation.cancelled"
	ReservationDeleted   EventType = "reservation.deleted"
	InvoiceIssued        EventType = "invoice.issued"
	InvoicePaid          EventType = "invoice.paid"
)

// Event is published after a reservation or invoice change has committed.
// It carries enough to bill or notify without reading the primary database.
// Fields that do not apply to a type are left zero.
type Event struct {
	Type           EventType `json:"type"`
	ReservationID  uint64    `json:"reservation_id"`
	EditorID       uint64    `json:"editor_id,omitempty"`
	FestivalID     uint64    `json:"festival_id,omitempty"`
	Tables         int       `json:"tables,omitempty"`
	Status         string    `json:"workflow_status,omitempty"`
	InvoiceID      uint64    `json:"invoice_id,omitempty"`
	InvoiceNumber  string    `json:"invoice_number,omitempty"`
	AmountDueCents int64     `json:"amount_due_cents,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
