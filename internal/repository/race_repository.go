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

// EventSummary is the slice of an event echoed back in entry receipts.
type EventSummary struct {
	ID   string
	Name string
	Date time.Time
}

// RaceRepo manages persistence for races.
type RaceRepo struct {
	db *database.DB
}

// NewRaceRepo constructs a RaceRepo with the given DB handle.
func NewRaceRepo(db *database.DB) *RaceRepo {
	return &RaceRepo{db: db}
}

const raceCols = `id, event_id, name, discipline, start_time, laps, capacity, created_at`

func scanRace(s rowScanner) (*model.Race, error) {
	var (
		race      model.Race
		startTime sql.NullString
		laps      sql.NullInt64
		capacity  sql.NullInt64
	)
	if err := s.Scan(&race.ID, &race.EventID, &race.Name, &race.Discipline, &startTime, &laps, &capacity, &race.CreatedAt); err != nil {
		return nil, err
	}
	race.StartTime = database.StringPtr(startTime)
	race.Laps = database.IntPtr(laps)
	race.Capacity = database.IntPtr(capacity)
	return &race, nil
}

// Create inserts a new race stamped with now.  A missing ID is
// generated.
func (r *RaceRepo) Create(ctx context.Context, race *model.Race, now time.Time) error {
	if race.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		race.ID = id.String()
	}
	race.CreatedAt = database.Stamp(now)
	const q = `INSERT INTO races (id, event_id, name, discipline, start_time, laps, capacity, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		race.ID, race.EventID, race.Name, race.Discipline,
		database.NullString(race.StartTime), database.NullInt(race.Laps), database.NullInt(race.Capacity),
		race.CreatedAt)
	return err
}

// GetByID retrieves a race by its ID.  It returns ErrRaceNotFound if
// there is no matching row.
func (r *RaceRepo) GetByID(ctx context.Context, id string) (*model.Race, error) {
	return r.getByID(ctx, r.db, id, "")
}

// GetForUpdateTx retrieves a race inside tx and locks its row until the
// transaction ends, so concurrent entries for the same race queue up
// behind each other.
func (r *RaceRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Race, error) {
	return r.getByID(ctx, tx, id, r.db.Dialect.ForUpdate())
}

func (r *RaceRepo) getByID(ctx context.Context, q querier, id, lock string) (*model.Race, error) {
	race, err := scanRace(q.QueryRowContext(ctx, `SELECT `+raceCols+` FROM races WHERE id = ?`+lock, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRaceNotFound
	}
	if err != nil {
		return nil, err
	}
	return race, nil
}

// GetByEventAndName returns the race with the given name under an event.
// Race names are not unique in the schema, so the oldest match wins.
func (r *RaceRepo) GetByEventAndName(ctx context.Context, eventID, name string) (*model.Race, error) {
	const q = `SELECT ` + raceCols + ` FROM races WHERE event_id = ? AND name = ? ORDER BY id ASC LIMIT 1`
	race, err := scanRace(r.db.QueryRowContext(ctx, q, eventID, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRaceNotFound
	}
	if err != nil {
		return nil, err
	}
	return race, nil
}

// ListByEvent returns the races of an event ordered by start time, then
// name.  An unknown event yields an empty slice.
func (r *RaceRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Race, error) {
	const q = `SELECT ` + raceCols + ` FROM races WHERE event_id = ? ORDER BY start_time ASC, name ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Race, 0)
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *race)
	}
	return out, rows.Err()
}

// EventSummaryTx loads the id, name and date of the event a race
// belongs to.
func (r *RaceRepo) EventSummaryTx(ctx context.Context, tx *sql.Tx, eventID string) (*EventSummary, error) {
	const q = `SELECT id, name, event_date FROM events WHERE id = ?`
	var ev EventSummary
	err := tx.QueryRowContext(ctx, q, eventID).Scan(&ev.ID, &ev.Name, &ev.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	ev.Date = ev.Date.UTC()
	return &ev, nil
}
