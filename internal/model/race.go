package model

import "time"

// Race is a single race within an event.  StartTime is a wall clock
// string such as "10:00".  A nil Capacity means entries are unlimited.
type Race struct {
	ID         string    // races.id
	EventID    string    // races.event_id
	Name       string    // races.name
	Discipline string    // races.discipline
	StartTime  *string   // races.start_time (nullable)
	Laps       *int      // races.laps (nullable)
	Capacity   *int      // races.capacity (nullable)
	CreatedAt  time.Time // races.created_at
}

// Gender groups race categories.
type Gender string

const (
	GenderOpen  Gender = "open"
	GenderWomen Gender = "women"
)

// RaceCategory is a labelled entry class within a race, e.g. "Cat 3".
// (RaceID, Gender, Label) is unique.
type RaceCategory struct {
	ID     string // race_categories.id
	RaceID string // race_categories.race_id
	Gender Gender // race_categories.gender
	Label  string // race_categories.label
}
