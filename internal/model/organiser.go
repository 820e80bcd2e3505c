package model

import "time"

// Organiser is the club or promoter that owns and publishes events.
// The slug is unique and is what the seed uses to find an existing row.
//
// Fields:
//  ID        – primary key (UUIDv7 string).
//  Name      – display name, e.g. "Yorkshire CC".
//  Slug      – unique, URL-friendly identifier.
//  CreatedAt – creation timestamp (UTC).
type Organiser struct {
	ID        string    // organisers.id
	Name      string    // organisers.name
	Slug      string    // organisers.slug
	CreatedAt time.Time // organisers.created_at
}
