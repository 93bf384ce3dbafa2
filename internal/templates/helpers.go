// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/assettag/internal/ctxkeys"
	"codeberg.org/oliverandrich/assettag/internal/i18n"
	"codeberg.org/oliverandrich/assettag/internal/models"
)

func fromContext[K any](ctx context.Context, key K, fallback string) string {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v
	}
	return fallback
}

// CSRFToken returns the token the CSRF middleware stored for this request.
func CSRFToken(ctx context.Context) string {
	return fromContext(ctx, ctxkeys.CSRFToken{}, "")
}

// CSSPath returns the fingerprinted stylesheet path.
func CSSPath(ctx context.Context) string {
	return fromContext(ctx, ctxkeys.CSSPath{}, "/static/css/styles.css")
}

// JSPath returns the fingerprinted scanner script path.
func JSPath(ctx context.Context) string {
	return fromContext(ctx, ctxkeys.JSPath{}, "/static/js/app.js")
}

func T(ctx context.Context, messageID string) string {
	return i18n.T(ctx, messageID)
}

func TData(ctx context.Context, messageID string, data map[string]any) string {
	return i18n.TData(ctx, messageID, data)
}

func Locale(ctx context.Context) string {
	return i18n.GetLocale(ctx)
}

// StatusLabel is the translated name of a code status.
func StatusLabel(ctx context.Context, s models.CodeStatus) string {
	return T(ctx, "status_"+string(s))
}

// DownloadURL points at the label PNG served as an attachment.
func DownloadURL(id string) string {
	return "/codes/" + id + "/image.png?download=1"
}

// Timestamp formats t in the order readers of the locale expect.
func Timestamp(ctx context.Context, t time.Time) string {
	if Locale(ctx) == "de" {
		return t.Local().Format("02.01.2006 15:04")
	}
	return t.Local().Format("2006-01-02 15:04")
}

// assetOption is the select label of an asset.
func assetOption(a models.Asset) string {
	if a.Location == "" {
		return a.Name
	}
	return a.Name + " (" + a.Location + ")"
}
