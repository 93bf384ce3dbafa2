// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/i18n"
	"codeberg.org/oliverandrich/assettag/internal/models"
	"codeberg.org/oliverandrich/assettag/internal/services/resolver"
	"codeberg.org/oliverandrich/assettag/internal/templates"
	"github.com/labstack/echo/v4"
)

// Landing is the page every printed label points to. Assigned codes
// redirect to their asset unless ?manage is set, free codes show the
// assignment form and unknown identifiers are rejected.
func (h *Handlers) Landing(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if !models.ValidIdentifier(id) {
		return h.notSystemCode(c)
	}

	outcome, err := h.Resolver.Classify(ctx, id)
	if err != nil {
		return renderError(c, err)
	}

	switch resolver.Decide(outcome).Kind {
	case resolver.ViewAsset:
		if c.QueryParam("manage") == "" {
			return c.Redirect(http.StatusSeeOther, "/assets/"+outcome.AssetID)
		}
	case resolver.Reject:
		return h.notSystemCode(c)
	}

	return h.renderAssign(c, http.StatusOK, id, models.AssetDraft{}, "")
}

func (h *Handlers) notSystemCode(c echo.Context) error {
	msg := i18n.Reason(c.Request().Context(), "reject", resolver.ReasonNotSystemCode)
	return Render(c, http.StatusNotFound, templates.ErrorPage(http.StatusNotFound, msg))
}

func (h *Handlers) renderAssign(c echo.Context, status int, id string, draft models.AssetDraft, errMsg string) error {
	ctx := c.Request().Context()

	code, err := h.Repo.FindCode(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	if code == nil {
		return h.notSystemCode(c)
	}

	var current *models.Asset
	if code.AssignedAssetID != nil {
		current, err = h.Repo.GetAsset(ctx, *code.AssignedAssetID)
		if err != nil {
			return renderError(c, err)
		}
	}

	assets, err := h.Repo.ListAssets(ctx)
	if err != nil {
		return renderError(c, err)
	}

	return Render(c, status, templates.AssignPage(templates.AssignView{
		Current:  current,
		Error:    errMsg,
		ImageURL: "/codes/" + id + "/image.png",
		Code:     *code,
		Assets:   assets,
		Draft:    draft,
	}))
}

// Assign attaches the code to an existing asset.
func (h *Handlers) Assign(c echo.Context) error {
	id := c.Param("id")
	assetID := c.FormValue("asset_id")

	code, err := h.Assignment.AssignToExisting(c.Request().Context(), id, assetID)
	if err != nil {
		return h.assignFailed(c, id, models.AssetDraft{}, err)
	}
	return redirect(c, "/assets/"+*code.AssignedAssetID)
}

// AssignNew creates an asset from the form and attaches the code to it.
func (h *Handlers) AssignNew(c echo.Context) error {
	id := c.Param("id")

	var draft models.AssetDraft
	if err := c.Bind(&draft); err != nil {
		return renderError(c, apperr.Invalid("form: %v", err))
	}

	asset, _, err := h.Assignment.CreateAssetAndAssign(c.Request().Context(), id, draft)
	if err != nil {
		return h.assignFailed(c, id, draft, err)
	}
	return redirect(c, "/assets/"+asset.ID)
}

// Unassign detaches the code.
func (h *Handlers) Unassign(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.Assignment.Unassign(c.Request().Context(), id); err != nil {
		return renderError(c, err)
	}
	return redirect(c, "/qr/"+id)
}

// assignFailed shows the form again for input and state errors.
func (h *Handlers) assignFailed(c echo.Context, id string, draft models.AssetDraft, err error) error {
	ctx := c.Request().Context()
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		logError(c, http.StatusUnprocessableEntity, err)
		return h.renderAssign(c, http.StatusUnprocessableEntity, id, draft, i18n.T(ctx, "error_bad_request"))
	case errors.Is(err, apperr.ErrConflict):
		logError(c, http.StatusConflict, err)
		return h.renderAssign(c, http.StatusConflict, id, draft, i18n.T(ctx, "error_conflict"))
	default:
		return renderError(c, err)
	}
}

// Asset shows an asset with its codes.
func (h *Handlers) Asset(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	asset, err := h.Repo.GetAsset(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	if asset == nil {
		return renderError(c, apperr.ErrNotFound)
	}

	codes, err := h.Repo.ListCodesForAsset(ctx, id)
	if err != nil {
		return renderError(c, err)
	}

	return Render(c, http.StatusOK, templates.AssetPage(*asset, codes))
}
