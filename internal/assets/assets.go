// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

//go:build !dev

// Package assets embeds the stylesheet and the scanner script. A release
// build runs esbuild first, which writes content hashed copies next to the
// sources and lists them in esbuild-meta.json.
package assets

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

//go:embed esbuild-meta.json
var metaData []byte

//go:embed static
var staticFS embed.FS

const (
	defaultCSSPath = "/static/css/styles.css"
	defaultJSPath  = "/static/js/app.js"
)

// esbuildMeta is the part of the esbuild metafile we read.
type esbuildMeta struct {
	Outputs map[string]struct {
		EntryPoint string `json:"entryPoint"`
	} `json:"outputs"`
}

var cssPath, jsPath = resolvePaths(metaData)

// resolvePaths maps the esbuild outputs for styles.css and app.js to URL paths.
// Missing or broken metadata falls back to the unhashed sources.
func resolvePaths(meta []byte) (css, js string) {
	css, js = defaultCSSPath, defaultJSPath
	if len(meta) == 0 {
		return css, js
	}

	var m esbuildMeta
	if err := json.Unmarshal(meta, &m); err != nil {
		slog.Error("failed to parse esbuild meta", "error", err)
		return css, js
	}

	for out, info := range m.Outputs {
		idx := strings.Index(out, "/static/")
		if idx < 0 {
			continue
		}
		url := out[idx:]
		switch {
		case path.Ext(url) == ".css" && (info.EntryPoint == "" || strings.HasSuffix(info.EntryPoint, "styles.css")):
			css = url
		case path.Ext(url) == ".js" && (info.EntryPoint == "" || strings.HasSuffix(info.EntryPoint, "app.js")):
			js = url
		}
	}
	return css, js
}

// CSSPath returns the path to the stylesheet.
func CSSPath() string {
	return cssPath
}

// JSPath returns the path to the scanner script.
func JSPath() string {
	return jsPath
}

// FileServer serves the embedded static directory.
func FileServer() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("failed to create sub filesystem: " + err.Error())
	}
	return http.FileServer(http.FS(sub))
}
