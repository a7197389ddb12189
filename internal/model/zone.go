package model

import "time"

// Zone is a priced pool of exhibition tables inside a festival.  The
// available counter is only ever moved by reservation operations.
//
// Fields:
//  ID                 – primary key identifier.
//  FestivalID         – festival the zone belongs to.
//  Name               – unique name within the festival.
//  TotalTables        – capacity fixed at festival setup.
//  AvailableTables    – tables not yet reserved (0..TotalTables).
//  PricePerTableCents – price of one table in cents.
//  PricePerAreaCents  – price of one square metre in cents.
type Zone struct {
	ID                 uint64    `json:"id"`                    // zones.id
	FestivalID         uint64    `json:"festival_id"`           // zones.festival_id
	Name               string    `json:"name"`                  // zones.name
	TotalTables        int       `json:"total_tables"`          // zones.total_tables
	AvailableTables    int       `json:"available_tables"`      // zones.available_tables
	PricePerTableCents int64     `json:"price_per_table_cents"` // zones.price_per_table_cents
	PricePerAreaCents  int64     `json:"price_per_area_cents"`  // zones.price_per_area_cents
	CreatedAt          time.Time `json:"created_at"`            // zones.created_at
	UpdatedAt          time.Time `json:"updated_at"`            // zones.updated_at
}
