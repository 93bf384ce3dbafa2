// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models_test

import (
	"testing"

	"codeberg.org/oliverandrich/assettag/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	asset := "asset-1"

	assert.Equal(t, models.StatusUnassigned, models.StatusFor(nil))
	assert.Equal(t, models.StatusAssigned, models.StatusFor(&asset))
}

func TestCode_Consistent(t *testing.T) {
	asset := "asset-1"

	tests := []struct {
		name     string
		code     models.Code
		expected bool
	}{
		{"unassigned without asset", models.Code{Status: models.StatusUnassigned}, true},
		{"assigned with asset", models.Code{Status: models.StatusAssigned, AssignedAssetID: &asset}, true},
		{"assigned without asset", models.Code{Status: models.StatusAssigned}, false},
		{"unassigned with asset", models.Code{Status: models.StatusUnassigned, AssignedAssetID: &asset}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.code.Consistent())
		})
	}
}

func TestCodeStatus_Valid(t *testing.T) {
	assert.True(t, models.StatusAssigned.Valid())
	assert.True(t, models.StatusUnassigned.Valid())
	assert.False(t, models.CodeStatus("lost").Valid())
}

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{"ABC123", true},
		{"000000", true},
		{"abc123", false},
		{"ABC12", false},
		{"ABC1234", false},
		{"ABC-12", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, models.ValidIdentifier(tt.id))
		})
	}
}

func TestAssetDraft_Normalize(t *testing.T) {
	d := models.AssetDraft{Name: "  Chiller 2 ", Location: " Roof ", ProjectID: "  "}

	d.Normalize()

	assert.Equal(t, "Chiller 2", d.Name)
	assert.Equal(t, "Roof", d.Location)
	assert.Nil(t, d.ProjectRef())

	d.ProjectID = "p-1"
	assert.Equal(t, "p-1", *d.ProjectRef())
}
