package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/iliyamo/racecraft/internal/database"
	"github.com/iliyamo/racecraft/internal/model"
)

// CategoryRepo manages persistence for race categories.
type CategoryRepo struct {
	db *database.DB
}

// NewCategoryRepo constructs a CategoryRepo with the given DB handle.
func NewCategoryRepo(db *database.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// InsertIgnore inserts a category unless (race, gender, label) already
// exists.  It reports whether a row was written.
func (r *CategoryRepo) InsertIgnore(ctx context.Context, c *model.RaceCategory) (bool, error) {
	if c.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return false, err
		}
		c.ID = id.String()
	}
	q := r.db.Dialect.InsertIgnore() + ` INTO race_categories (id, race_id, gender, label) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.ID, c.RaceID, string(c.Gender), c.Label)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByEvent returns every category of every race in an event, in
// insertion order.
func (r *CategoryRepo) ListByEvent(ctx context.Context, eventID string) ([]model.RaceCategory, error) {
	const q = `SELECT c.id, c.race_id, c.gender, c.label
FROM race_categories c
JOIN races r ON r.id = c.race_id
WHERE r.event_id = ?
ORDER BY c.id ASC`
	return r.list(ctx, q, eventID)
}

func (r *CategoryRepo) list(ctx context.Context, q string, arg string) ([]model.RaceCategory, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.RaceCategory, 0)
	for rows.Next() {
		var (
			c      model.RaceCategory
			gender string
		)
		if err := rows.Scan(&c.ID, &c.RaceID, &gender, &c.Label); err != nil {
			return nil, err
		}
		c.Gender = model.Gender(gender)
		out = append(out, c)
	}
	return out, rows.Err()
}
