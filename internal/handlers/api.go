// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/models"
	"codeberg.org/oliverandrich/assettag/internal/repository"
	"codeberg.org/oliverandrich/assettag/internal/services/resolver"
	"github.com/labstack/echo/v4"
)

// CodeJSON is a code with its canonical URL.
type CodeJSON struct {
	models.Code
	URL string `json:"url"`
}

type createCodesRequest struct {
	Count int `json:"count" form:"count"`
}

func (h *Handlers) codeJSON(c models.Code) (CodeJSON, error) {
	url, err := h.Renderer.CanonicalURL(c.ID)
	if err != nil {
		return CodeJSON{}, err
	}
	return CodeJSON{Code: c, URL: url}, nil
}

func (h *Handlers) codesJSON(codes []models.Code) ([]CodeJSON, error) {
	out := make([]CodeJSON, 0, len(codes))
	for _, c := range codes {
		j, err := h.codeJSON(c)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

// APIListCodes lists codes, optionally filtered by ?status= and ?limit=.
func (h *Handlers) APIListCodes(c echo.Context) error {
	filter := repository.CodeFilter{Status: models.CodeStatus(c.QueryParam("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		return apiError(c, apperr.Invalid("status %q", filter.Status))
	}
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			return apiError(c, apperr.Invalid("limit %q", l))
		}
		filter.Limit = n
	}

	ctx := c.Request().Context()
	codes, err := h.Repo.ListCodes(ctx, filter)
	if err != nil {
		return apiError(c, err)
	}
	stats, err := h.Repo.CodeStats(ctx)
	if err != nil {
		return apiError(c, err)
	}

	out, err := h.codesJSON(codes)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"codes": out, "stats": stats})
}

// APICreateCodes generates a batch.
func (h *Handlers) APICreateCodes(c echo.Context) error {
	var req createCodesRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, apperr.Invalid("body: %v", err))
	}

	codes, err := h.Deps.Codes.GenerateBatch(c.Request().Context(), req.Count)
	if err != nil {
		return apiError(c, err)
	}
	h.notifyAll(codes)

	out, err := h.codesJSON(codes)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"codes": out})
}

// APIGetCode returns one code and its classification.
func (h *Handlers) APIGetCode(c echo.Context) error {
	id := c.Param("id")
	if !models.ValidIdentifier(id) {
		return apiError(c, apperr.Invalid("identifier %q", id))
	}

	ctx := c.Request().Context()
	outcome, err := h.Resolver.Classify(ctx, id)
	if err != nil {
		return apiError(c, err)
	}
	if outcome.Classification == resolver.Unknown {
		return apiError(c, apperr.ErrNotFound)
	}

	code, err := h.Repo.FindCode(ctx, id)
	if err != nil {
		return apiError(c, err)
	}
	if code == nil {
		return apiError(c, apperr.ErrNotFound)
	}

	out, err := h.codeJSON(*code)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"code":    out,
		"outcome": outcome,
		"intent":  resolver.Decide(outcome),
	})
}
