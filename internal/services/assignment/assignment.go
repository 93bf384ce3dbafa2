// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package assignment attaches codes to assets.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Store is the part of the code store the transactor writes through.
type Store interface {
	CodeExists(ctx context.Context, id string) (bool, error)
	UpdateCodeAssignment(ctx context.Context, id string, assetID *string) (*models.Code, error)
	CompareAndSetAssignment(ctx context.Context, id string, expected models.CodeStatus, assetID *string) (*models.Code, error)
}

// Assets is the asset collaborator.
type Assets interface {
	CreateAsset(ctx context.Context, draft models.AssetDraft) (*models.Asset, error)
	AssetExists(ctx context.Context, id string) (bool, error)
}

// AtomicAssigner creates an asset and assigns a code in one transaction.
// An empty expected status skips the state guard.
type AtomicAssigner interface {
	CreateAssetAndAssign(ctx context.Context, draft models.AssetDraft, codeID string, expected models.CodeStatus) (*models.Asset, *models.Code, error)
}

// AssetDeleter removes an asset left behind by a failed two-step assignment.
type AssetDeleter interface {
	DeleteAsset(ctx context.Context, id string) error
}

// Notifier is told about every successful write.
type Notifier interface {
	CodeChanged(code *models.Code)
}

// Service performs assignments.
type Service struct {
	store         Store
	assets        Assets
	notifier      Notifier
	allowReassign bool
}

// Option configures a Service.
type Option func(*Service)

// WithReassign sets whether an assigned code may be pointed at another asset.
func WithReassign(allow bool) Option {
	return func(s *Service) {
		s.allowReassign = allow
	}
}

// WithNotifier registers n for change notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// NewService creates a service. Reassignment is allowed unless disabled.
func NewService(store Store, assets Assets, opts ...Option) *Service {
	s := &Service{store: store, assets: assets, allowReassign: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AllowReassign reports the reassignment policy.
func (s *Service) AllowReassign() bool {
	return s.allowReassign
}

// AssignToExisting points code id at an existing asset.
func (s *Service) AssignToExisting(ctx context.Context, id, assetID string) (*models.Code, error) {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return nil, apperr.Invalid("asset id is required")
	}

	ok, err := s.assets.AssetExists(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Invalid("asset %s does not exist", assetID)
	}

	var c *models.Code
	if s.allowReassign {
		c, err = s.store.UpdateCodeAssignment(ctx, id, &assetID)
	} else {
		c, err = s.store.CompareAndSetAssignment(ctx, id, models.StatusUnassigned, &assetID)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("code_assigned", "code", id, "asset", assetID)
	s.notify(c)
	return c, nil
}

// CreateAssetAndAssign creates an asset from draft and points code id at it.
// The code must exist before an asset is created.
func (s *Service) CreateAssetAndAssign(ctx context.Context, id string, draft models.AssetDraft) (*models.Asset, *models.Code, error) {
	draft.Normalize()
	if err := validate.Struct(draft); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}

	ok, err := s.store.CodeExists(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("assigning code %s: %w", id, apperr.ErrNotFound)
	}

	expected := models.CodeStatus("")
	if !s.allowReassign {
		expected = models.StatusUnassigned
	}

	var (
		a *models.Asset
		c *models.Code
	)
	if atomic, ok := s.store.(AtomicAssigner); ok {
		a, c, err = atomic.CreateAssetAndAssign(ctx, draft, id, expected)
	} else {
		a, c, err = s.createThenAssign(ctx, id, draft, expected)
	}
	if err != nil {
		return nil, nil, err
	}

	slog.Info("code_assigned", "code", id, "asset", a.ID, "new_asset", true)
	s.notify(c)
	return a, c, nil
}

func (s *Service) createThenAssign(ctx context.Context, id string, draft models.AssetDraft, expected models.CodeStatus) (*models.Asset, *models.Code, error) {
	a, err := s.assets.CreateAsset(ctx, draft)
	if err != nil {
		return nil, nil, err
	}

	var c *models.Code
	if expected == "" {
		c, err = s.store.UpdateCodeAssignment(ctx, id, &a.ID)
	} else {
		c, err = s.store.CompareAndSetAssignment(ctx, id, expected, &a.ID)
	}
	if err == nil {
		return a, c, nil
	}

	slog.Error("orphan_asset", "asset", a.ID, "code", id, "error", err)
	if d, ok := s.assets.(AssetDeleter); ok {
		if derr := d.DeleteAsset(context.WithoutCancel(ctx), a.ID); derr != nil {
			slog.Error("failed to remove orphan asset", "asset", a.ID, "error", derr)
		} else {
			slog.Info("orphan_asset_removed", "asset", a.ID)
		}
	}
	return nil, nil, err
}

// Unassign clears the asset of code id.
func (s *Service) Unassign(ctx context.Context, id string) (*models.Code, error) {
	c, err := s.store.UpdateCodeAssignment(ctx, id, nil)
	if err != nil {
		return nil, err
	}

	slog.Info("code_unassigned", "code", id)
	s.notify(c)
	return c, nil
}

func (s *Service) notify(c *models.Code) {
	if s.notifier != nil && c != nil {
		s.notifier.CodeChanged(c)
	}
}

// IsValidationError reports whether err came from draft validation.
func IsValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
