// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeberg.org/oliverandrich/assettag/internal/models"
	"github.com/google/uuid"
	"github.com/vinovest/sqlx"
)

const assetColumns = `id, name, description, location, project_id, created_at, updated_at`

// CreateAsset stores a new asset built from a draft.
func (r *Repository) CreateAsset(ctx context.Context, draft models.AssetDraft) (*models.Asset, error) {
	a, err := r.insertAsset(ctx, r.db, draft)
	if err != nil {
		return nil, classify("creating asset", err)
	}
	return a, nil
}

func (r *Repository) insertAsset(ctx context.Context, ext sqlx.ExecerContext, draft models.AssetDraft) (*models.Asset, error) {
	now := r.timestamp()
	a := &models.Asset{
		ID:          uuid.NewString(),
		Name:        draft.Name,
		Description: draft.Description,
		Location:    draft.Location,
		ProjectID:   draft.ProjectRef(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := ext.ExecContext(ctx,
		r.q(`INSERT INTO assets (`+assetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.Name, a.Description, a.Location, a.ProjectID, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetAsset returns the asset with the given ID, or nil if it does not exist.
func (r *Repository) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	var a models.Asset
	err := r.db.GetContext(ctx, &a, r.q(`SELECT `+assetColumns+` FROM assets WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting asset", err)
	}
	return &a, nil
}

// AssetExists checks whether an asset with the given ID exists.
func (r *Repository) AssetExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, r.q(`SELECT EXISTS(SELECT 1 FROM assets WHERE id = ?)`), id)
	if err != nil {
		return false, classify("checking asset", err)
	}
	return exists, nil
}

// ListAssets returns all assets ordered by name.
func (r *Repository) ListAssets(ctx context.Context) ([]models.Asset, error) {
	assets := []models.Asset{}
	if err := r.db.SelectContext(ctx, &assets, `SELECT `+assetColumns+` FROM assets ORDER BY name ASC, id ASC`); err != nil {
		return nil, classify("listing assets", err)
	}
	return assets, nil
}

// CreateAssetAndAssign creates an asset and points the code at it in one transaction.
// An empty expected status assigns regardless of the current state.
func (r *Repository) CreateAssetAndAssign(ctx context.Context, draft models.AssetDraft, codeID string, expected models.CodeStatus) (*models.Asset, *models.Code, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, classify("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err := r.insertAsset(ctx, tx, draft)
	if err != nil {
		return nil, nil, classify("creating asset", err)
	}

	c, err := r.setAssignment(ctx, tx, codeID, &a.ID, expected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, r.missOrConflict(ctx, tx, codeID)
	}
	if err != nil {
		return nil, nil, classify("assigning code", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, classify("committing assignment", err)
	}

	return a, c, nil
}

// DeleteAsset removes an asset no code points to.
func (r *Repository) DeleteAsset(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM assets WHERE id = ?`), id)
	if err != nil {
		return classify("deleting asset", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("deleting asset", err)
	}
	if n == 0 {
		return fmt.Errorf("deleting asset %s: %w", id, ErrNotFound)
	}
	return nil
}
