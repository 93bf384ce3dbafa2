// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ScanView carries the camera preferences to the browser scanner.
type ScanView struct {
	Facing     string
	Width      int
	Height     int
	IntervalMS int
}

// ScanPage hosts the camera scanner. The browser posts decoded text to
// /api/scan and follows the returned intent.
func ScanPage(v ScanView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(T(ctx, "scan_title"), templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			h := &html{w: w}
			h.el("h1", "", T(ctx, "scan_title"))
			h.raw(`<div id="scanner" class="scanner"`)
			h.attr("data-facing", v.Facing)
			h.attr("data-width", itoa(v.Width))
			h.attr("data-height", itoa(v.Height))
			h.attr("data-interval", itoa(v.IntervalMS))
			for _, key := range []string{
				"camera_permission_denied", "camera_no_device", "camera_unsupported",
				"reject_not_system_code", "reject_unreadable",
				"intent_view_asset", "intent_open_assignment",
			} {
				h.attr("data-msg-"+key, T(ctx, key))
			}
			h.raw(`><video id="scanner-video" playsinline muted></video>`)
			h.raw(`<p id="scanner-status" class="status">`)
			h.text(T(ctx, "scan_hint"))
			h.raw(`</p><button type="button" id="scanner-reset" hidden>`)
			h.text(T(ctx, "scan_again"))
			h.raw(`</button></div><form id="scanner-manual" class="inline"><label class="field"><span>`)
			h.text(T(ctx, "scan_manual"))
			h.raw(`</span><input type="text" name="raw" autocomplete="off" maxlength="256"></label><button type="submit">`)
			h.text(T(ctx, "scan_submit"))
			h.raw("</button></form>")
			return h.err
		})).Render(ctx, w)
	})
}
