// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/models"
	"codeberg.org/oliverandrich/assettag/internal/repository"
	"codeberg.org/oliverandrich/assettag/internal/services/export"
	"codeberg.org/oliverandrich/assettag/internal/services/qrimage"
	"codeberg.org/oliverandrich/assettag/internal/templates"
	"github.com/labstack/echo/v4"
)

// Codes renders the management page.
func (h *Handlers) Codes(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.Repo.CodeStats(ctx)
	if err != nil {
		return renderError(c, err)
	}
	codes, err := h.Repo.ListCodes(ctx, repository.CodeFilter{})
	if err != nil {
		return renderError(c, err)
	}

	ids := make([]string, 0, h.Previews)
	for _, code := range codes {
		if len(ids) == h.Previews {
			break
		}
		ids = append(ids, code.ID)
	}
	previews, err := h.Renderer.RenderMany(ctx, ids)
	if err != nil {
		return renderError(c, err)
	}

	generated, _ := strconv.Atoi(c.QueryParam("generated"))

	return Render(c, http.StatusOK, templates.CodesPage(templates.CodesView{
		Codes:     codes,
		Previews:  previews,
		Stats:     stats,
		BatchMax:  h.Deps.Codes.MaxBatch(),
		Generated: generated,
	}))
}

// GenerateCodes creates a batch from the form on the management page.
func (h *Handlers) GenerateCodes(c echo.Context) error {
	count, err := strconv.Atoi(strings.TrimSpace(c.FormValue("count")))
	if err != nil {
		return renderError(c, apperr.Invalid("count %q", c.FormValue("count")))
	}

	codes, err := h.Deps.Codes.GenerateBatch(c.Request().Context(), count)
	if err != nil {
		return renderError(c, err)
	}

	h.notifyAll(codes)
	return redirect(c, "/codes?generated="+strconv.Itoa(len(codes)))
}

// CodeImage serves the label of a stored code.
func (h *Handlers) CodeImage(c echo.Context) error {
	id := c.Param("id")
	if !models.ValidIdentifier(id) {
		return renderError(c, apperr.Invalid("identifier %q", id))
	}

	code, err := h.Repo.FindCode(c.Request().Context(), id)
	if err != nil {
		return renderError(c, err)
	}
	if code == nil {
		return renderError(c, apperr.ErrNotFound)
	}

	png, err := h.Renderer.Render(id)
	if err != nil {
		return renderError(c, err)
	}

	header := c.Response().Header()
	header.Set("Cache-Control", "public, max-age=86400")
	if c.QueryParam("download") != "" {
		header.Set(echo.HeaderContentDisposition, `attachment; filename="`+qrimage.DownloadName(id)+`"`)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// Manifest downloads the spreadsheet of all codes.
func (h *Handlers) Manifest(c echo.Context) error {
	ctx := c.Request().Context()
	codes, err := h.Repo.ListCodes(ctx, repository.CodeFilter{})
	if err != nil {
		return renderError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentType, export.ContentType())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.ManifestName+`"`)
	c.Response().WriteHeader(http.StatusOK)
	return h.Exporter.WriteManifest(ctx, c.Response(), codes)
}

func (h *Handlers) notifyAll(codes []models.Code) {
	if h.Hub == nil {
		return
	}
	for i := range codes {
		h.Hub.CodeChanged(&codes[i])
	}
}
