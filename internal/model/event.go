package model

import "time"

// EventStatus is the publication state of an event.  Only PUBLISHED
// events are listed as upcoming.
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventCancelled EventStatus = "CANCELLED"
)

// Event is a race day at a venue.  It belongs to one organiser and
// holds any number of races.
//
// Fields:
//  ID          – primary key (UUIDv7 string).
//  OrganiserID – owning organiser.
//  Name        – event title, unique per organiser.
//  Venue       – optional venue name; nil renders as "TBC".
//  Date        – when the event takes place (UTC).
//  Status      – publication state.
//  CreatedAt   – creation timestamp.
type Event struct {
	ID          string      // events.id
	OrganiserID string      // events.organiser_id
	Name        string      // events.name
	Venue       *string     // events.venue (nullable)
	Date        time.Time   // events.event_date
	Status      EventStatus // events.status
	CreatedAt   time.Time   // events.created_at
}
