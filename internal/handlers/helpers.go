// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"bytes"

	"codeberg.org/oliverandrich/assettag/internal/htmx"
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render renders a templ component with the given status code.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	var buf bytes.Buffer
	if err := component.Render(c.Request().Context(), &buf); err != nil {
		return err
	}

	return c.HTMLBlob(statusCode, buf.Bytes())
}

func redirect(c echo.Context, url string) error {
	htmx.Redirect(c.Response(), c.Request(), url)
	return nil
}

// scanSessionID returns the scan session of the browser, issuing a cookie for a new one.
func (h *Handlers) scanSessionID(c echo.Context) (string, error) {
	data, err := h.Sessions.Ensure(c.Response(), c.Request())
	if err != nil {
		return "", err
	}
	return data.ID, nil
}
