// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"log/slog"

	"codeberg.org/oliverandrich/assettag/internal/assets"
	"codeberg.org/oliverandrich/assettag/internal/ctxkeys"
	"github.com/labstack/echo/v4"
)

// Assets holds the URL paths of the bundled stylesheet and script.
type Assets struct {
	CSSPath string
	JSPath  string
}

// findAssets returns asset paths from the embedded manifest.
func findAssets() *Assets {
	a := &Assets{
		CSSPath: assets.CSSPath(),
		JSPath:  assets.JSPath(),
	}
	slog.Debug("assets loaded", "css", a.CSSPath, "js", a.JSPath)
	return a
}

// assetsToContext puts the asset paths into the request context for templates.
func assetsToContext(a *Assets) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxkeys.CSSPath{}, a.CSSPath)
			ctx = context.WithValue(ctx, ctxkeys.JSPath{}, a.JSPath)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
