// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// CodeStatus is the assignment state of a code.
type CodeStatus string

const (
	StatusUnassigned CodeStatus = "unassigned"
	StatusAssigned   CodeStatus = "assigned"
)

// Valid reports whether s is one of the known statuses.
func (s CodeStatus) Valid() bool {
	return s == StatusUnassigned || s == StatusAssigned
}

// StatusFor derives the status from the assigned asset.
func StatusFor(assetID *string) CodeStatus {
	if assetID == nil {
		return StatusUnassigned
	}
	return StatusAssigned
}

// Code is a printed label identity.
type Code struct { //nolint:govet // fieldalignment: readability over optimization
	ID              string     `db:"id" json:"id"`
	AssignedAssetID *string    `db:"assigned_asset_id" json:"assigned_asset_id"`
	Status          CodeStatus `db:"status" json:"status"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Assigned returns true if the code points to an asset.
func (c *Code) Assigned() bool {
	return c.AssignedAssetID != nil
}

// Consistent reports whether the status agrees with the assigned asset.
func (c *Code) Consistent() bool {
	return c.Status == StatusFor(c.AssignedAssetID)
}

// CodeStats summarizes the code inventory.
type CodeStats struct {
	Total      int64 `db:"total" json:"total"`
	Assigned   int64 `db:"assigned" json:"assigned"`
	Unassigned int64 `db:"unassigned" json:"unassigned"`
}
