// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"
	"io"

	"codeberg.org/oliverandrich/assettag/internal/models"
	"github.com/a-h/templ"
)

// AssetPage shows an asset and the codes attached to it.
func AssetPage(asset models.Asset, codes []models.Code) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(asset.Name, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			h := &html{w: w}
			h.el("h1", "", asset.Name)
			h.raw(`<dl class="details">`)
			if asset.Location != "" {
				h.el("dt", "", T(ctx, "asset_location"))
				h.el("dd", "", asset.Location)
			}
			if asset.ProjectID != nil {
				h.el("dt", "", T(ctx, "asset_project"))
				h.el("dd", "", *asset.ProjectID)
			}
			h.raw("</dl>")
			if asset.Description != "" {
				h.el("p", "description", asset.Description)
			}

			h.el("h2", "", T(ctx, "asset_codes"))
			if len(codes) == 0 {
				h.el("p", "empty", T(ctx, "asset_none"))
				return h.err
			}
			h.raw(`<ul class="asset-codes">`)
			for _, c := range codes {
				h.raw("<li>")
				h.link("/qr/"+c.ID, "mono", c.ID)
				h.raw(" ")
				h.link(DownloadURL(c.ID), "", T(ctx, "download"))
				h.raw("</li>")
			}
			h.raw("</ul>")
			return h.err
		})).Render(ctx, w)
	})
}
