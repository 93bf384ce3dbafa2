// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/assettag/internal/repository"
	"codeberg.org/oliverandrich/assettag/internal/services/assignment"
	"codeberg.org/oliverandrich/assettag/internal/services/codegen"
	"codeberg.org/oliverandrich/assettag/internal/services/export"
	"codeberg.org/oliverandrich/assettag/internal/services/qrimage"
	"codeberg.org/oliverandrich/assettag/internal/services/resolver"
	"codeberg.org/oliverandrich/assettag/internal/services/scan"
	"codeberg.org/oliverandrich/assettag/internal/services/session"
	"codeberg.org/oliverandrich/assettag/internal/sse"
	"codeberg.org/oliverandrich/assettag/internal/templates"
	"github.com/labstack/echo/v4"
)

// Deps are the collaborators of the handlers.
type Deps struct {
	Repo       *repository.Repository
	Codes      *codegen.Service
	Renderer   *qrimage.Renderer
	Resolver   *resolver.Resolver
	Assignment *assignment.Service
	Scans      *scan.Registry[resolver.Outcome]
	Sessions   *session.Manager
	Hub        *sse.Hub
	Exporter   *export.Exporter
	Scanner    templates.ScanView
	Previews   int
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	Deps
}

// New creates a new Handlers instance.
func New(d Deps) *Handlers {
	if d.Previews <= 0 {
		d.Previews = 20
	}
	return &Handlers{Deps: d}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Home sends visitors to the code list.
func (h *Handlers) Home(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/codes")
}
