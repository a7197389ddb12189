package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/queue"
	"github.com/iliyamo/festival-reservation/internal/repository"
	"github.com/iliyamo/festival-reservation/internal/workflow"
)

// ReservationService books tables for editors and moves reservations
// through the workflow.  Stock changes and row changes share one
// transaction.
type ReservationService struct {
	Deps
}

// NewReservationService returns a ReservationService over d.
func NewReservationService(d Deps) *ReservationService {
	d.normalize()
	return &ReservationService{Deps: d}
}

// LineInput asks for tables (and optionally floor area) in one zone.
type LineInput struct {
	ZoneID  uint64  `json:"zone_id"`
	Tables  int     `json:"tables"`
	AreaSqm float64 `json:"area_sqm"`
}

// CreateReservationInput is a booking request.  Lines naming the same
// zone are merged.
type CreateReservationInput struct {
	EditorID      uint64      `json:"editor_id"`
	FestivalID    uint64      `json:"festival_id"`
	Lines         []LineInput `json:"lines"`
	TablesOffered int         `json:"tables_offered"`
	DiscountCents int64       `json:"discount_cents"`
	Presentation  bool        `json:"presentation"`
}

// ReservationPatch lists the fields a reservation may change after
// booking.  Nil fields are left as they are.
type ReservationPatch struct {
	TablesOffered *int   `json:"tables_offered"`
	DiscountCents *int64 `json:"discount_cents"`
	Presentation  *bool  `json:"presentation"`
}

// normalizeLines validates the requested lines and merges repeated zones.
// The result is sorted by zone id, which is also the lock order.
func normalizeLines(in []LineInput) ([]model.ReservationLine, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one zone line", repository.ErrMissingRequiredField)
	}
	merged := make(map[uint64]*model.ReservationLine, len(in))
	for i, l := range in {
		switch {
		case l.ZoneID == 0:
			return nil, fmt.Errorf("%w: lines[%d].zone_id", repository.ErrMissingRequiredField, i)
		case l.Tables == 0:
			return nil, fmt.Errorf("%w: lines[%d].tables", repository.ErrMissingRequiredField, i)
		case l.Tables < 0:
			return nil, fmt.Errorf("%w: lines[%d].tables must be positive", repository.ErrInvalidField, i)
		case l.AreaSqm < 0:
			return nil, fmt.Errorf("%w: lines[%d].area_sqm cannot be negative", repository.ErrInvalidField, i)
		}
		if m, ok := merged[l.ZoneID]; ok {
			m.Tables += l.Tables
			m.AreaSqm += l.AreaSqm
			continue
		}
		merged[l.ZoneID] = &model.ReservationLine{ZoneID: l.ZoneID, Tables: l.Tables, AreaSqm: l.AreaSqm}
	}
	lines := make([]model.ReservationLine, 0, len(merged))
	for _, l := range merged {
		lines = append(lines, *l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ZoneID < lines[j].ZoneID })
	return lines, nil
}

func validateTerms(tablesOffered int, discountCents int64) error {
	if tablesOffered < 0 {
		return fmt.Errorf("%w: tables_offered cannot be negative", repository.ErrInvalidField)
	}
	if discountCents < 0 {
		return fmt.Errorf("%w: discount_cents cannot be negative", repository.ErrInvalidField)
	}
	return nil
}

// Create books every requested line or nothing.  Stock is taken zone by
// zone inside one transaction; a short zone rolls back the tables already
// taken from the others.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*model.Reservation, error) {
	if in.EditorID == 0 {
		return nil, fmt.Errorf("%w: editor_id", repository.ErrMissingRequiredField)
	}
	if in.FestivalID == 0 {
		return nil, fmt.Errorf("%w: festival_id", repository.ErrMissingRequiredField)
	}
	lines, err := normalizeLines(in.Lines)
	if err != nil {
		return nil, err
	}
	if err := validateTerms(in.TablesOffered, in.DiscountCents); err != nil {
		return nil, err
	}

	now := s.Now()
	res := &model.Reservation{
		EditorID:      in.EditorID,
		FestivalID:    in.FestivalID,
		TablesOffered: in.TablesOffered,
		DiscountCents: in.DiscountCents,
		Status:        workflow.Present,
		Presentation:  in.Presentation,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = withTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.checkParties(ctx, tx, in.EditorID, in.FestivalID); err != nil {
			return err
		}
		ids := make([]uint64, len(lines))
		for i, l := range lines {
			ids[i] = l.ZoneID
		}
		zones, err := s.Zones.FindForFestivalTx(ctx, tx, in.FestivalID, ids)
		if err != nil {
			return err
		}
		for i := range lines {
			z, ok := zones[lines[i].ZoneID]
			if !ok {
				return fmt.Errorf("%w: zone %d is not part of festival %d", repository.ErrUnknownReference, lines[i].ZoneID, in.FestivalID)
			}
			if err := s.Zones.ReserveTx(ctx, tx, z.ID, lines[i].Tables); err != nil {
				return err
			}
			model.PriceLine(&lines[i], z)
		}
		res.TotalPriceCents, res.FinalPriceCents = model.Totals(lines, res.TablesOffered, res.DiscountCents)
		if err := s.Reservations.CreateTx(ctx, tx, res); err != nil {
			return err
		}
		if err := s.Reservations.CreateLinesTx(ctx, tx, res.ID, lines); err != nil {
			return err
		}
		res.Lines = lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateZones(ctx, res.FestivalID)
	s.publish(ctx, queue.Event{
		Type:          queue.ReservationCreated,
		ReservationID: res.ID,
		EditorID:      res.EditorID,
		FestivalID:    res.FestivalID,
		Tables:        res.TableCount(),
		Status:        string(res.Status),
		OccurredAt:    now,
	})
	return res, nil
}

func (s *ReservationService) checkParties(ctx context.Context, q repository.DBTX, editorID, festivalID uint64) error {
	ok, err := s.Directory.EditorExists(ctx, q, editorID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: editor %d", repository.ErrUnknownReference, editorID)
	}
	ok, err = s.Directory.FestivalExists(ctx, q, festivalID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: festival %d", repository.ErrUnknownReference, festivalID)
	}
	return nil
}

// Get returns a reservation with its lines.
func (s *ReservationService) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	return s.Reservations.Get(ctx, id)
}

// ListByFestival returns the reservations of a festival, newest first.
func (s *ReservationService) ListByFestival(ctx context.Context, festivalID uint64) ([]model.Reservation, error) {
	return s.Reservations.ListByFestival(ctx, festivalID)
}

// ListByEditor returns the reservations of an editor across festivals,
// newest first.
func (s *ReservationService) ListByEditor(ctx context.Context, editorID uint64) ([]model.Reservation, error) {
	return s.Reservations.ListByEditor(ctx, editorID)
}

// releaseLines returns the tables of every line to its zone.
func (s *ReservationService) releaseLines(ctx context.Context, q repository.DBTX, lines []model.ReservationLine) error {
	for _, l := range lines {
		if err := s.Zones.ReleaseTx(ctx, q, l.ZoneID, l.Tables); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a reservation with its lines and invoice and gives its
// tables back, unless a cancellation already did.
func (s *ReservationService) Delete(ctx context.Context, id uint64) error {
	var res *model.Reservation
	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		if res, err = s.Reservations.GetTx(ctx, tx, id, true); err != nil {
			return err
		}
		if res.Lines, err = s.Reservations.LinesTx(ctx, tx, id); err != nil {
			return err
		}
		if err := s.Invoices.DeleteByReservationTx(ctx, tx, id); err != nil {
			return err
		}
		if err := s.Reservations.DeleteTx(ctx, tx, id); err != nil {
			return err
		}
		if res.StockReleased {
			return nil
		}
		return s.releaseLines(ctx, tx, res.Lines)
	})
	if err != nil {
		return err
	}

	s.invalidateZones(ctx, res.FestivalID)
	s.publish(ctx, queue.Event{
		Type:          queue.ReservationDeleted,
		ReservationID: res.ID,
		EditorID:      res.EditorID,
		FestivalID:    res.FestivalID,
		Tables:        res.TableCount(),
		Status:        string(res.Status),
	})
	return nil
}

// UpdateStatus applies a status requested directly by an operator.  The
// workflow only lets such a request cancel; invoicing states are reached
// through the invoice operations.  Cancelling frees the tables at once.
func (s *ReservationService) UpdateStatus(ctx context.Context, id uint64, raw string) (*model.Reservation, error) {
	to, err := workflow.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: workflow_status %q", repository.ErrInvalidField, raw)
	}

	var res *model.Reservation
	now := s.Now()
	err = withTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		if res, err = s.Reservations.GetTx(ctx, tx, id, true); err != nil {
			return err
		}
		if res.Lines, err = s.Reservations.LinesTx(ctx, tx, id); err != nil {
			return err
		}
		if err := workflow.Transition(res.Status, to, workflow.ByRequest); err != nil {
			return err
		}
		if to == workflow.Cancelled && !res.StockReleased {
			if err := s.releaseLines(ctx, tx, res.Lines); err != nil {
				return err
			}
			res.StockReleased = true
		}
		if err := s.Reservations.UpdateStatusTx(ctx, tx, id, to, res.StockReleased, now); err != nil {
			return err
		}
		res.Status = to
		res.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	if to == workflow.Cancelled {
		s.invalidateZones(ctx, res.FestivalID)
		s.publish(ctx, queue.Event{
			Type:          queue.ReservationCancelled,
			ReservationID: res.ID,
			EditorID:      res.EditorID,
			FestivalID:    res.FestivalID,
			Tables:        res.TableCount(),
			Status:        string(res.Status),
			OccurredAt:    now,
		})
	}
	return res, nil
}

// UpdateFields changes the discount terms or the presentation flag and
// recomputes the final price from the stored line prices.  Lines, total
// and status never change here.
func (s *ReservationService) UpdateFields(ctx context.Context, id uint64, p ReservationPatch) (*model.Reservation, error) {
	var res *model.Reservation
	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		if res, err = s.Reservations.GetTx(ctx, tx, id, true); err != nil {
			return err
		}
		if res.Lines, err = s.Reservations.LinesTx(ctx, tx, id); err != nil {
			return err
		}
		if p.TablesOffered != nil {
			res.TablesOffered = *p.TablesOffered
		}
		if p.DiscountCents != nil {
			res.DiscountCents = *p.DiscountCents
		}
		if p.Presentation != nil {
			res.Presentation = *p.Presentation
		}
		if err := validateTerms(res.TablesOffered, res.DiscountCents); err != nil {
			return err
		}
		_, res.FinalPriceCents = model.Totals(res.Lines, res.TablesOffered, res.DiscountCents)
		res.UpdatedAt = s.Now()
		return s.Reservations.UpdateTermsTx(ctx, tx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
