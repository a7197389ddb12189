package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
)

// ZoneService creates zones and serves their listings.
type ZoneService struct {
	Deps
}

// NewZoneService returns a ZoneService over d.
func NewZoneService(d Deps) *ZoneService {
	d.normalize()
	return &ZoneService{Deps: d}
}

// CreateZoneInput carries the fields of a new zone.  Prices are in cents.
type CreateZoneInput struct {
	FestivalID         uint64
	Name               string
	TotalTables        int
	PricePerTableCents int64
	PricePerAreaCents  int64
}

// CreateZone registers a zone with every table available.
func (s *ZoneService) CreateZone(ctx context.Context, in CreateZoneInput) (*model.Zone, error) {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.FestivalID == 0:
		return nil, fmt.Errorf("%w: festival_id", repository.ErrMissingRequiredField)
	case in.Name == "":
		return nil, fmt.Errorf("%w: name", repository.ErrMissingRequiredField)
	case in.TotalTables <= 0:
		return nil, fmt.Errorf("%w: total_tables must be positive", repository.ErrInvalidField)
	case in.PricePerTableCents < 0 || in.PricePerAreaCents < 0:
		return nil, fmt.Errorf("%w: prices cannot be negative", repository.ErrInvalidField)
	}
	z := &model.Zone{
		FestivalID:         in.FestivalID,
		Name:               in.Name,
		TotalTables:        in.TotalTables,
		AvailableTables:    in.TotalTables,
		PricePerTableCents: in.PricePerTableCents,
		PricePerAreaCents:  in.PricePerAreaCents,
	}
	if err := s.Zones.Create(ctx, z); err != nil {
		return nil, err
	}
	s.invalidateZones(ctx, in.FestivalID)
	return z, nil
}

// ListZones returns the zones of a festival, from the cache when possible.
// A listing read while a reservation moved stock is returned but not
// cached.
func (s *ZoneService) ListZones(ctx context.Context, festivalID uint64) ([]model.Zone, error) {
	if zones, ok := s.Cache.Get(ctx, festivalID); ok {
		return zones, nil
	}
	gen, genErr := s.Cache.Generation(ctx, festivalID)
	zones, err := s.Zones.ListByFestival(ctx, festivalID)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		s.Log.Warnf("read zone cache generation of festival %d: %v", festivalID, genErr)
		return zones, nil
	}
	if _, err := s.Cache.Set(ctx, festivalID, gen, zones); err != nil {
		s.Log.Warnf("cache zones of festival %d: %v", festivalID, err)
	}
	return zones, nil
}
