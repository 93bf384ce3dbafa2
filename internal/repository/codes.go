// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/models"
	"github.com/vinovest/sqlx"
)

const codeColumns = `id, assigned_asset_id, status, created_at, updated_at`

// CodeFilter narrows ListCodes.
type CodeFilter struct {
	Status models.CodeStatus // empty means all
	Limit  int               // 0 means no limit
}

// InsertCodes stores new unassigned codes in one transaction.
// Either every identifier is stored or none is.
func (r *Repository) InsertCodes(ctx context.Context, ids []string) ([]models.Code, error) {
	if len(ids) == 0 {
		return nil, apperr.Invalid("no identifiers to insert")
	}
	for _, id := range ids {
		if !models.ValidIdentifier(id) {
			return nil, apperr.Invalid("identifier %q", id)
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, classify("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.timestamp()
	stmt := r.q(`INSERT INTO codes (id, assigned_asset_id, status, created_at, updated_at) VALUES (?, NULL, ?, ?, ?)`)

	codes := make([]models.Code, 0, len(ids))
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, stmt, id, string(models.StatusUnassigned), now, now); err != nil {
			return nil, classify(fmt.Sprintf("inserting code %s", id), err)
		}
		codes = append(codes, models.Code{
			ID:        id,
			Status:    models.StatusUnassigned,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("committing codes", err)
	}

	return codes, nil
}

// FindCode returns the code with the given identifier, or nil if it does not exist.
func (r *Repository) FindCode(ctx context.Context, id string) (*models.Code, error) {
	var c models.Code
	err := r.db.GetContext(ctx, &c, r.q(`SELECT `+codeColumns+` FROM codes WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("finding code", err)
	}
	return &c, nil
}

// CodeExists checks whether an identifier is already taken.
func (r *Repository) CodeExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, r.q(`SELECT EXISTS(SELECT 1 FROM codes WHERE id = ?)`), id)
	if err != nil {
		return false, classify("checking code", err)
	}
	return exists, nil
}

// ListCodes returns codes newest first.
func (r *Repository) ListCodes(ctx context.Context, filter CodeFilter) ([]models.Code, error) {
	query := `SELECT ` + codeColumns + ` FROM codes`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	codes := []models.Code{}
	if err := r.db.SelectContext(ctx, &codes, r.q(query), args...); err != nil {
		return nil, classify("listing codes", err)
	}
	return codes, nil
}

// ListCodesForAsset returns the codes attached to an asset.
func (r *Repository) ListCodesForAsset(ctx context.Context, assetID string) ([]models.Code, error) {
	codes := []models.Code{}
	err := r.db.SelectContext(ctx, &codes,
		r.q(`SELECT `+codeColumns+` FROM codes WHERE assigned_asset_id = ? ORDER BY updated_at DESC, id ASC`),
		assetID)
	if err != nil {
		return nil, classify("listing codes for asset", err)
	}
	return codes, nil
}

// CodeStats counts codes by status.
func (r *Repository) CodeStats(ctx context.Context) (models.CodeStats, error) {
	var stats models.CodeStats
	err := r.db.GetContext(ctx, &stats, `SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN status = 'assigned' THEN 1 ELSE 0 END), 0) AS assigned,
		COALESCE(SUM(CASE WHEN status = 'unassigned' THEN 1 ELSE 0 END), 0) AS unassigned
		FROM codes`)
	if err != nil {
		return models.CodeStats{}, classify("counting codes", err)
	}
	return stats, nil
}

// UpdateCodeAssignment points a code at an asset, or clears it when assetID is nil.
// The status follows the asset and updated_at is bumped on a change. The last write wins.
func (r *Repository) UpdateCodeAssignment(ctx context.Context, id string, assetID *string) (*models.Code, error) {
	c, err := r.setAssignment(ctx, r.db, id, assetID, "")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("updating code %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify("updating code assignment", err)
	}
	return c, nil
}

// CompareAndSetAssignment is UpdateCodeAssignment guarded by the expected current status.
// It returns apperr.ErrConflict when the code exists in another state.
func (r *Repository) CompareAndSetAssignment(ctx context.Context, id string, expected models.CodeStatus, assetID *string) (*models.Code, error) {
	if !expected.Valid() {
		return nil, apperr.Invalid("status %q", expected)
	}

	c, err := r.setAssignment(ctx, r.db, id, assetID, expected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.missOrConflict(ctx, r.db, id)
	}
	if err != nil {
		return nil, classify("updating code assignment", err)
	}
	return c, nil
}

// setAssignment runs the assignment update on db or tx. An empty expected status skips the guard.
// updated_at only moves when the assigned asset actually changes; asset ids are never empty,
// so '' stands in for NULL in the comparison.
func (r *Repository) setAssignment(ctx context.Context, ext sqlx.ExtContext, id string, assetID *string, expected models.CodeStatus) (*models.Code, error) {
	query := `UPDATE codes SET
		updated_at = CASE WHEN COALESCE(assigned_asset_id, '') = COALESCE(?, '') THEN updated_at ELSE ? END,
		assigned_asset_id = ?, status = ?
		WHERE id = ?`
	args := []any{assetID, r.timestamp(), assetID, string(models.StatusFor(assetID)), id}
	if expected != "" {
		query += ` AND status = ?`
		args = append(args, string(expected))
	}
	query += ` RETURNING ` + codeColumns

	var c models.Code
	if err := sqlx.GetContext(ctx, ext, &c, r.q(query), args...); err != nil {
		return nil, err
	}
	return &c, nil
}

// missOrConflict tells a missing code apart from one in an unexpected state.
func (r *Repository) missOrConflict(ctx context.Context, ext sqlx.QueryerContext, id string) error {
	var exists bool
	if err := sqlx.GetContext(ctx, ext, &exists, r.q(`SELECT EXISTS(SELECT 1 FROM codes WHERE id = ?)`), id); err != nil {
		return classify("checking code", err)
	}
	if !exists {
		return fmt.Errorf("updating code %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("updating code %s: %w", id, apperr.ErrConflict)
}
