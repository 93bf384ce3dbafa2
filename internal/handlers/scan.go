// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/services/resolver"
	"codeberg.org/oliverandrich/assettag/internal/templates"
	"github.com/labstack/echo/v4"
)

type scanRequest struct {
	Raw string `json:"raw" form:"raw"`
}

// ScanResponse is the answer to a decoded frame.
type ScanResponse struct {
	Intent   *resolver.Intent `json:"intent,omitempty"`
	State    string           `json:"state"`
	Path     string           `json:"path,omitempty"`
	Accepted bool             `json:"accepted"`
}

// ScanPage renders the camera scanner.
func (h *Handlers) ScanPage(c echo.Context) error {
	if _, err := h.scanSessionID(c); err != nil {
		return renderError(c, err)
	}
	return Render(c, http.StatusOK, templates.ScanPage(h.Scanner))
}

// APIScan resolves the text of one decoded frame. While the previous
// result is still shown further frames are dropped until /api/scan/reset.
func (h *Handlers) APIScan(c echo.Context) error {
	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, apperr.Invalid("body: %v", err))
	}

	sid, err := h.scanSessionID(c)
	if err != nil {
		return apiError(c, err)
	}
	session := h.Scans.Session(sid)

	intent, accepted, err := resolver.NewPipeline(h.Resolver, session).HandleDecode(c.Request().Context(), req.Raw)
	if err != nil {
		return apiError(c, err)
	}

	resp := ScanResponse{Accepted: accepted, State: session.State().String()}
	if accepted {
		resp.Intent = &intent
		resp.Path = intent.Path()
		h.publishScan(sid, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// APIScanReset readies the scan session for the next code.
func (h *Handlers) APIScanReset(c echo.Context) error {
	sid, err := h.scanSessionID(c)
	if err != nil {
		return apiError(c, err)
	}

	session := h.Scans.Session(sid)
	if !session.Reset() {
		h.Scans.Remove(sid)
		session = h.Scans.Session(sid)
	}
	return c.JSON(http.StatusOK, ScanResponse{State: session.State().String()})
}

func (h *Handlers) publishScan(sid string, resp ScanResponse) {
	if h.Hub == nil {
		return
	}
	h.Hub.ScanResult(sid, resp)
}
