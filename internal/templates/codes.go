// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"
	"io"

	"codeberg.org/oliverandrich/assettag/internal/models"
	"codeberg.org/oliverandrich/assettag/internal/services/qrimage"
	"github.com/a-h/templ"
)

// CodesView is the data of the code management page.
type CodesView struct {
	Codes     []models.Code
	Previews  []qrimage.Label
	Stats     models.CodeStats
	BatchMax  int
	Generated int
}

// CodesPage lists codes with stats, the generate form and label previews.
func CodesPage(v CodesView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(T(ctx, "codes_title"), codesBody(v)).Render(ctx, w)
	})
}

func codesBody(v CodesView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.el("h1", "", T(ctx, "codes_title"))

		if v.Generated > 0 {
			h.el("p", "flash", i18nPlural(ctx, "codes_generated", v.Generated))
		}

		h.raw(`<dl class="stats" id="stats">`)
		stat(h, T(ctx, "codes_total"), int(v.Stats.Total))
		stat(h, T(ctx, "codes_assigned"), int(v.Stats.Assigned))
		stat(h, T(ctx, "codes_unassigned"), int(v.Stats.Unassigned))
		h.raw("</dl>")

		h.raw(`<section class="card"><h2>`)
		h.text(T(ctx, "generate_title"))
		h.raw(`</h2><form method="post" action="/codes" class="inline">`)
		h.csrf(CSRFToken(ctx))
		h.raw(`<label class="field"><span>`)
		h.text(TData(ctx, "generate_count", map[string]any{"Max": v.BatchMax}))
		h.raw(`</span><input type="number" name="count" min="1" value="1"`)
		h.attr("max", itoa(v.BatchMax))
		h.raw(` required></label><button type="submit">`)
		h.text(T(ctx, "generate_button"))
		h.raw(`</button></form>`)
		h.link("/codes/manifest.xlsx", "secondary", T(ctx, "export_manifest"))
		h.raw("</section>")

		if len(v.Previews) > 0 {
			h.raw(`<section><h2>`)
			h.text(T(ctx, "codes_previews"))
			h.raw(`</h2><div class="labels">`)
			for _, l := range v.Previews {
				h.raw(`<figure class="label"><img`)
				h.attr("src", qrimage.DataURI(l.PNG))
				h.attr("alt", l.ID)
				h.raw("><figcaption>")
				h.text(l.ID)
				h.raw(" ")
				h.link(DownloadURL(l.ID), "", T(ctx, "download"))
				h.raw("</figcaption></figure>")
			}
			h.raw("</div></section>")
		}

		if len(v.Codes) == 0 {
			h.el("p", "empty", T(ctx, "codes_empty"))
			return h.err
		}

		h.raw(`<table class="codes" id="codes"><thead><tr>`)
		for _, col := range []string{"col_id", "col_status", "col_asset", "col_created"} {
			h.el("th", "", T(ctx, col))
		}
		h.raw("</tr></thead><tbody>")
		for _, c := range v.Codes {
			h.raw("<tr")
			h.attr("id", "code-"+c.ID)
			h.raw("><td>")
			h.link("/qr/"+c.ID, "mono", c.ID)
			h.raw("</td>")
			h.el("td", "status-"+string(c.Status), StatusLabel(ctx, c.Status))
			h.raw("<td>")
			if c.AssignedAssetID != nil {
				h.link("/assets/"+*c.AssignedAssetID, "", *c.AssignedAssetID)
			}
			h.raw("</td>")
			h.el("td", "", Timestamp(ctx, c.CreatedAt))
			h.raw("</tr>")
		}
		h.raw("</tbody></table>")
		return h.err
	})
}

func stat(h *html, label string, n int) {
	h.el("dt", "", label)
	h.el("dd", "", itoa(n))
}
