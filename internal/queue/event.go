// Package queue defines the entry events exchanged over RabbitMQ, the
// publisher used by the entry flow and the consumer that writes the
// entry log.
package queue

import "context"

// Event types carried in EntryEvent.Type.
const (
	EntryCreated = "entry.created"
	EntryPaid    = "entry.paid"
)

// EntryEvent is published when an entry is created or paid.  It carries
// enough to log or notify without querying the primary database.
type EntryEvent struct {
	Type       string `json:"type"`
	EntryID    string `json:"entryId"`
	RaceID     string `json:"raceId"`
	RaceName   string `json:"raceName,omitempty"`
	EventID    string `json:"eventId,omitempty"`
	EventName  string `json:"eventName,omitempty"`
	RiderName  string `json:"riderName"`
	Paid       bool   `json:"paid"`
	OccurredAt string `json:"occurredAt"`
}

// Publisher delivers entry events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev EntryEvent) error
}

// NopPublisher drops every event.  It is used when the queue is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, EntryEvent) error { return nil }
