// Package repository defines the error kinds shared by the data access
// and service layers.  Every rejection surfaced to a caller wraps one of
// these sentinels with a human readable reason, so handlers can switch
// on errors.Is and still report why.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/festival-reservation/internal/workflow"
)

var (
	// ErrMissingRequiredField is returned when an editor, festival or
	// zone line is absent from a request.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidField is returned for present but unusable values such
	// as a negative discount.
	ErrInvalidField = errors.New("invalid field")

	// ErrUnknownReference is returned when an editor, festival or zone
	// id does not resolve.
	ErrUnknownReference = errors.New("unknown reference")

	// ErrInsufficientStock is returned when a zone cannot cover the
	// requested tables.  Losing a race and plain exhaustion look the same.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrIllegalTransition is the workflow rejection, re-exported so
	// callers only need this package.
	ErrIllegalTransition = workflow.ErrIllegalTransition

	// ErrInvoiceAlreadyExists is returned when a reservation already
	// carries an invoice.
	ErrInvoiceAlreadyExists = errors.New("invoice already exists")

	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique key other than the invoice
	// ones is violated (duplicate email, duplicate zone name).
	ErrConflict = errors.New("conflict")
)

// MySQL server error numbers the repositories translate.
const (
	mysqlDuplicateEntry    = 1062
	mysqlNoReferencedRow   = 1452
	mysqlNoReferencedRowV2 = 1216
)

func isMySQLError(err error, codes ...uint16) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	for _, c := range codes {
		if me.Number == c {
			return true
		}
	}
	return false
}

func isDuplicate(err error) bool { return isMySQLError(err, mysqlDuplicateEntry) }

func isMissingParent(err error) bool {
	return isMySQLError(err, mysqlNoReferencedRow, mysqlNoReferencedRowV2)
}
