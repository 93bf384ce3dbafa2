// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"strings"
	"time"
)

// Asset is a physical item a code can be attached to.
type Asset struct { //nolint:govet // fieldalignment: readability over optimization
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Location    string    `db:"location" json:"location"`
	ProjectID   *string   `db:"project_id" json:"project_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AssetDraft is the input for creating an asset from an assignment form.
type AssetDraft struct {
	Name        string `form:"name" json:"name" validate:"required,max=200"`
	Description string `form:"description" json:"description" validate:"max=2000"`
	Location    string `form:"location" json:"location" validate:"max=200"`
	ProjectID   string `form:"project_id" json:"project_id" validate:"omitempty,max=64"`
}

// Normalize trims surrounding whitespace from all fields.
func (d *AssetDraft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Location = strings.TrimSpace(d.Location)
	d.ProjectID = strings.TrimSpace(d.ProjectID)
}

// ProjectRef returns the project id or nil when empty.
func (d *AssetDraft) ProjectRef() *string {
	if d.ProjectID == "" {
		return nil
	}
	p := d.ProjectID
	return &p
}
