// Package workflow holds the reservation lifecycle.  A reservation starts
// in Present, moves to Invoiced when an invoice is issued and to Paid when
// that invoice is settled.  Present and Invoiced reservations may be
// cancelled.  Paid and Cancelled are terminal.
//
// Every status change in the service goes through Transition so that
// direct edits and invoice-driven edits share one table.
package workflow

import (
	"errors"
	"fmt"
)

// Status is the workflow stage of a reservation.  The string values are
// the ones stored in the reservations.workflow_status column.
type Status string

const (
	Present   Status = "present"
	Invoiced  Status = "facture"
	Paid      Status = "facture_payee"
	Cancelled Status = "annulée"
)

// Trigger names what is driving a transition.
type Trigger string

const (
	// ByRequest is an explicit edit from a caller (only cancellation).
	ByRequest Trigger = "request"
	// ByInvoiceIssue is used by the invoice issuer when an invoice is created.
	ByInvoiceIssue Trigger = "invoice_issue"
	// ByInvoicePayment is used by the invoice issuer when an invoice is paid.
	ByInvoicePayment Trigger = "invoice_payment"
)

var (
	// ErrIllegalTransition is returned for any move not in the table.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrUnknownStatus is returned by Parse for values outside the enum.
	ErrUnknownStatus = errors.New("unknown workflow status")
)

// transitions maps from -> to -> the trigger allowed to perform it.
var transitions = map[Status]map[Status]Trigger{
	Present: {
		Invoiced:  ByInvoiceIssue,
		Cancelled: ByRequest,
	},
	Invoiced: {
		Paid:      ByInvoicePayment,
		Cancelled: ByRequest,
	},
}

// Parse converts a stored or user supplied value into a Status.
func Parse(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Valid reports whether s is one of the four statuses.
func (s Status) Valid() bool {
	switch s {
	case Present, Invoiced, Paid, Cancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool { return s == Paid || s == Cancelled }

// Transition checks that moving from -> to is allowed for the trigger.
func Transition(from, to Status, by Trigger) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: %q -> %q", ErrIllegalTransition, from, to)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrIllegalTransition, from)
	}
	want, ok := transitions[from][to]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	if want != by {
		return fmt.Errorf("%w: %s -> %s requires %s, got %s", ErrIllegalTransition, from, to, want, by)
	}
	return nil
}

// InvoiceStateFor returns the invoice status a reservation in s should
// carry.  ok is false when s implies no invoice.
func InvoiceStateFor(s Status) (state string, ok bool) {
	switch s {
	case Invoiced:
		return "issued", true
	case Paid:
		return "paid", true
	}
	return "", false
}
