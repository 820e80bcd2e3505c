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

// OrganiserRepo manages persistence for organisers.
type OrganiserRepo struct {
	db *database.DB
}

// NewOrganiserRepo constructs an OrganiserRepo with the given DB handle.
func NewOrganiserRepo(db *database.DB) *OrganiserRepo {
	return &OrganiserRepo{db: db}
}

// Upsert inserts the organiser unless one with the same slug exists and
// returns the stored row either way.  created reports whether a new row
// was written.  An existing row is left unchanged.
func (r *OrganiserRepo) Upsert(ctx context.Context, name, slug string, now time.Time) (o *model.Organiser, created bool, err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, false, err
	}
	q := r.db.Dialect.InsertIgnore() + ` INTO organisers (id, name, slug, created_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, id.String(), name, slug, database.Stamp(now))
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	o, err = r.GetBySlug(ctx, slug)
	if err != nil {
		return nil, false, err
	}
	return o, n > 0, nil
}

// GetBySlug retrieves an organiser by its unique slug.  It returns
// ErrOrganiserNotFound if there is no matching row.
func (r *OrganiserRepo) GetBySlug(ctx context.Context, slug string) (*model.Organiser, error) {
	const q = `SELECT id, name, slug, created_at FROM organisers WHERE slug = ?`
	var o model.Organiser
	err := r.db.QueryRowContext(ctx, q, slug).Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrganiserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
