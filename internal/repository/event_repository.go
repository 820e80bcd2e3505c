package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/racecraft/internal/database"
	"github.com/iliyamo/racecraft/internal/model"
)

// EventWithOrganiser is an event joined with the organiser that owns it.
type EventWithOrganiser struct {
	model.Event
	Organiser model.Organiser
}

// EventRepo manages persistence for events.
type EventRepo struct {
	db *database.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *database.DB) *EventRepo {
	return &EventRepo{db: db}
}

const eventWithOrganiserCols = `e.id, e.organiser_id, e.name, e.venue, e.event_date, e.status, e.created_at,
       o.id, o.name, o.slug, o.created_at`

func scanEventWithOrganiser(s rowScanner) (*EventWithOrganiser, error) {
	var (
		ev     EventWithOrganiser
		venue  sql.NullString
		status string
	)
	err := s.Scan(
		&ev.ID, &ev.OrganiserID, &ev.Name, &venue, &ev.Date, &status, &ev.CreatedAt,
		&ev.Organiser.ID, &ev.Organiser.Name, &ev.Organiser.Slug, &ev.Organiser.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	ev.Venue = database.StringPtr(venue)
	ev.Status = model.EventStatus(status)
	ev.Date = ev.Date.UTC()
	return &ev, nil
}

// ListUpcoming returns published events dated at or after now, earliest
// first, each with its organiser.
func (r *EventRepo) ListUpcoming(ctx context.Context, now time.Time) ([]EventWithOrganiser, error) {
	q := `SELECT ` + eventWithOrganiserCols + `
FROM events e
JOIN organisers o ON o.id = e.organiser_id
WHERE e.event_date >= ? AND e.status = ?
ORDER BY e.event_date ASC, e.name ASC`
	rows, err := r.db.QueryContext(ctx, q, database.Stamp(now), string(model.EventPublished))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]EventWithOrganiser, 0)
	for rows.Next() {
		ev, err := scanEventWithOrganiser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

// GetByID retrieves an event with its organiser.  It returns
// ErrEventNotFound if there is no matching row.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*EventWithOrganiser, error) {
	q := `SELECT ` + eventWithOrganiserCols + `
FROM events e
JOIN organisers o ON o.id = e.organiser_id
WHERE e.id = ?`
	ev, err := scanEventWithOrganiser(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// GetByName returns the first event (oldest id) with the given name.
func (r *EventRepo) GetByName(ctx context.Context, name string) (*model.Event, error) {
	const q = `SELECT id, organiser_id, name, venue, event_date, status, created_at
FROM events WHERE name = ? ORDER BY id ASC LIMIT 1`
	var (
		e      model.Event
		venue  sql.NullString
		status string
	)
	err := r.db.QueryRowContext(ctx, q, name).Scan(&e.ID, &e.OrganiserID, &e.Name, &venue, &e.Date, &status, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	e.Venue = database.StringPtr(venue)
	e.Status = model.EventStatus(status)
	e.Date = e.Date.UTC()
	return &e, nil
}

// InsertIgnore inserts the event, stamped with now, unless its
// (organiser, name) pair already exists.  A missing ID is generated.  It
// reports whether a row was written.
func (r *EventRepo) InsertIgnore(ctx context.Context, e *model.Event, now time.Time) (bool, error) {
	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return false, err
		}
		e.ID = id.String()
	}
	if e.Status == "" {
		e.Status = model.EventDraft
	}
	e.CreatedAt = database.Stamp(now)
	q := r.db.Dialect.InsertIgnore() + ` INTO events (id, organiser_id, name, venue, event_date, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.ID, e.OrganiserID, e.Name, database.NullString(e.Venue), database.Stamp(e.Date), string(e.Status), e.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
