package model

import "time"

// IntakeEntry is a single recorded water intake event. Volumes are always
// stored in the canonical unit (milliliters); display conversion happens at
// the edge. Entries are immutable once created.
type IntakeEntry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`

	// AmountML is the intake volume in milliliters. Always positive.
	AmountML int `json:"amount_ml"`

	// Timestamp is the instant the intake was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// DailyTotal is the derived sum of all entries whose timestamp falls within
// a single calendar day. It is recomputed on demand and never persisted.
type DailyTotal struct {
	// Day is midnight (local) of the calendar day this total covers.
	Day time.Time `json:"day"`

	// TotalML is the summed volume for the day, zero if no entries.
	TotalML int `json:"total_ml"`
}
