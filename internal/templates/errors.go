// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"
	"io"
	"net/http"

	"codeberg.org/oliverandrich/assettag/internal/i18n"
	"github.com/a-h/templ"
)

// ErrorPage renders an error with its status code.
func ErrorPage(status int, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := http.StatusText(status)
		if title == "" {
			title = T(ctx, "error_title")
		}
		return Layout(title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			h := &html{w: w}
			h.raw(`<section class="error">`)
			h.el("p", "code", itoa(status))
			h.el("h1", "", title)
			h.el("p", "", message)
			h.link("/codes", "", T(ctx, "back_home"))
			h.raw("</section>")
			return h.err
		})).Render(ctx, w)
	})
}

func i18nPlural(ctx context.Context, id string, n int) string {
	return i18n.TPlural(ctx, id, n)
}
