// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/i18n"
	"codeberg.org/oliverandrich/assettag/internal/templates"
	"github.com/labstack/echo/v4"
)

// ErrorStatus maps an error to an HTTP status code.
func ErrorStatus(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrStoreUnavailable), errors.Is(err, apperr.ErrCollisionRetryExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorMessageID(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "error_bad_request"
	case http.StatusNotFound:
		return "error_not_found"
	case http.StatusConflict:
		return "error_conflict"
	case http.StatusServiceUnavailable:
		return "error_unavailable"
	default:
		return "error_internal"
	}
}

// renderError renders the error page for err.
func renderError(c echo.Context, err error) error {
	status := ErrorStatus(err)
	logError(c, status, err)
	msg := i18n.T(c.Request().Context(), errorMessageID(status))
	return Render(c, status, templates.ErrorPage(status, msg))
}

// apiError writes err as JSON.
func apiError(c echo.Context, err error) error {
	status := ErrorStatus(err)
	logError(c, status, err)
	body := map[string]string{"error": i18n.T(c.Request().Context(), errorMessageID(status))}
	if status < http.StatusInternalServerError {
		body["detail"] = err.Error()
	}
	return c.JSON(status, body)
}

func logError(c echo.Context, status int, err error) {
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(c.Request().Context(), level, "request failed",
		"path", c.Request().URL.Path,
		"status", status,
		"error", err,
	)
}

// HTTPErrorHandler renders unhandled errors, as JSON below /api/.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var render func(echo.Context, error) error = renderError
	if isAPI(c) {
		render = apiError
	}
	if rerr := render(c, err); rerr != nil {
		slog.Error("failed to render error", "error", rerr)
	}
}

func isAPI(c echo.Context) bool {
	p := c.Request().URL.Path
	return len(p) >= 5 && p[:5] == "/api/"
}
