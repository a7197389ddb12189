// Package service holds the reservation workflow: stock moves, status
// changes and invoicing.  Each operation that touches more than one row
// runs in a single transaction; cache invalidation and event publishing
// happen after commit and never fail the operation.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/festival-reservation/internal/cache"
	"github.com/iliyamo/festival-reservation/internal/queue"
	"github.com/iliyamo/festival-reservation/internal/repository"
)

// EventPublisher delivers billing events.  queue.Publisher and
// queue.Background implement it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// Deps groups what the services share.  Cache, Events, Log and Now may be
// left nil.
type Deps struct {
	DB           *sql.DB
	Zones        *repository.ZoneRepo
	Reservations *repository.ReservationRepo
	Invoices     *repository.InvoiceRepo
	Directory    *repository.DirectoryRepo
	Cache        *cache.ZoneCache
	Events       EventPublisher
	Log          *log.Logger
	Now          func() time.Time
}

// NewDeps builds the repositories over db.
func NewDeps(db *sql.DB) Deps {
	return Deps{
		DB:           db,
		Zones:        repository.NewZoneRepo(db),
		Reservations: repository.NewReservationRepo(db),
		Invoices:     repository.NewInvoiceRepo(db),
		Directory:    repository.NewDirectoryRepo(db),
	}
}

func (d *Deps) normalize() {
	if d.Log == nil {
		d.Log = log.New("service")
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
}

// withTx runs fn in a transaction.  fn's error rolls everything back.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (d *Deps) publish(ctx context.Context, ev queue.Event) {
	if d.Events == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = d.Now()
	}
	if err := d.Events.Publish(ctx, ev); err != nil {
		d.Log.Warnf("publish %s for reservation %d: %v", ev.Type, ev.ReservationID, err)
	}
}

func (d *Deps) invalidateZones(ctx context.Context, festivalID uint64) {
	if err := d.Cache.Invalidate(ctx, festivalID); err != nil {
		d.Log.Warnf("invalidate zone cache for festival %d: %v", festivalID, err)
	}
}
