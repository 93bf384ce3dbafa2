// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"time"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"github.com/vinovest/sqlx"
)

// ErrNotFound is returned when a write targets a record that does not exist.
var ErrNotFound = apperr.ErrNotFound

// Repository is the only component that reads and writes codes and assets.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock replaces the clock used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// New creates a new Repository instance.
func New(db *sqlx.DB, opts ...Option) *Repository {
	r := &Repository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DB returns the underlying database handle.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// q rewrites ? placeholders for the driver in use.
func (r *Repository) q(query string) string {
	return r.db.Rebind(query)
}

// timestamp returns the current time at the precision every supported store keeps.
func (r *Repository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}
