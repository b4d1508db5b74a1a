package entities

import "time"

// HourlyRow is one transformed hour of a PSE report. Values holds the
// technical columns (mapped from the API field names) and is flattened into
// the parent document, so the stored shape matches the legacy collections.
type HourlyRow struct {
	Day    time.Time      `bson:"Doba" json:"Doba"`
	Hour   int            `bson:"Godzina" json:"Godzina"`
	Values map[string]any `bson:",inline" json:"-"`
}

// DaySnapshot is the persisted unit: one document per business day.
// DayStart (data_cet) identifies the day - it is the local (Europe/Warsaw)
// midnight of the business day expressed in UTC. First is written on the
// initial upsert and never overwritten; Newest is replaced on every run.
type DaySnapshot struct {
	DayStart   time.Time   `bson:"data_cet"`
	First      []HourlyRow `bson:"first"`
	Newest     []HourlyRow `bson:"newest"`
	LastUpdate time.Time   `bson:"last_update"`
}
