// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

//go:build dev

// Package assets serves the stylesheet and scanner script from disk so edits
// show up without a rebuild.
package assets

import (
	"net/http"
)

// CSSPath returns the path to the stylesheet.
func CSSPath() string {
	return "/static/css/styles.css"
}

// JSPath returns the path to the scanner script.
func JSPath() string {
	return "/static/js/app.js"
}

// FileServer serves internal/assets/static relative to the working directory.
func FileServer() http.Handler {
	return http.FileServer(http.Dir("internal/assets/static"))
}
