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

// EntryRepo manages persistence for race entries.
type EntryRepo struct {
	db *database.DB
}

// NewEntryRepo constructs an EntryRepo with the given DB handle.
func NewEntryRepo(db *database.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

// CountByRace returns how many entries a race has.
func (r *EntryRepo) CountByRace(ctx context.Context, raceID string) (int, error) {
	return countByRace(ctx, r.db, raceID)
}

// CountByRaceTx is CountByRace inside the caller's transaction.
func (r *EntryRepo) CountByRaceTx(ctx context.Context, tx *sql.Tx, raceID string) (int, error) {
	return countByRace(ctx, tx, raceID)
}

func countByRace(ctx context.Context, q querier, raceID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE race_id = ?`, raceID).Scan(&n)
	return n, err
}

// CreateTx inserts an unpaid entry using the provided transaction.  The
// caller must commit or roll back.  ID and CreatedAt are assigned here.
func (r *EntryRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.Entry, now time.Time) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	e.ID = id.String()
	e.Paid = false
	e.PaidAt = nil
	e.CreatedAt = database.Stamp(now)

	const q = `INSERT INTO entries
    (id, race_id, rider_name, email, club, bc_id, emergency_name, emergency_phone, paid, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, q,
		e.ID, e.RaceID, e.RiderName,
		database.NullString(e.Email), database.NullString(e.Club), database.NullString(e.BCID),
		e.EmergencyName, e.EmergencyPhone, false, e.CreatedAt)
	return err
}

// GetByID retrieves an entry.  It returns ErrEntryNotFound if there is
// no matching row.
func (r *EntryRepo) GetByID(ctx context.Context, id string) (*model.Entry, error) {
	const q = `SELECT id, race_id, rider_name, email, club, bc_id, emergency_name, emergency_phone, paid, paid_at, created_at
FROM entries WHERE id = ?`
	var (
		e                 model.Entry
		email, club, bcID sql.NullString
		paidAt            sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.RaceID, &e.RiderName, &email, &club, &bcID,
		&e.EmergencyName, &e.EmergencyPhone, &e.Paid, &paidAt, &e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	e.Email = database.StringPtr(email)
	e.Club = database.StringPtr(club)
	e.BCID = database.StringPtr(bcID)
	e.PaidAt = database.TimePtr(paidAt)
	return &e, nil
}

// MarkPaid flips an unpaid entry to paid.  It reports false when the
// entry was already paid (or missing); the update never runs twice.
func (r *EntryRepo) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	const q = `UPDATE entries SET paid = ?, paid_at = ? WHERE id = ? AND paid = ?`
	res, err := r.db.ExecContext(ctx, q, true, database.Stamp(at), id, false)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
