// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package i18n translates UI strings. Messages live in embedded TOML files,
// one per supported language, and the request locale travels in the context.
package i18n

import (
	"context"
	"embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translationFS embed.FS

// Supported lists the available languages, default first.
var Supported = []language.Tag{
	language.English,
	language.German,
}

var (
	matcher    = language.NewMatcher(Supported)
	localizers map[language.Tag]*i18n.Localizer
)

type localeContextKey struct{}

// Init loads the embedded translations. It must run before the first lookup.
func Init() error {
	bundle := i18n.NewBundle(Supported[0])
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	loaded := make(map[language.Tag]*i18n.Localizer, len(Supported))
	for _, tag := range Supported {
		file := fmt.Sprintf("translations/active.%s.toml", tag)
		if _, err := bundle.LoadMessageFileFS(translationFS, file); err != nil {
			return fmt.Errorf("loading %s: %w", file, err)
		}
		loaded[tag] = i18n.NewLocalizer(bundle, tag.String())
	}

	localizers = loaded
	return nil
}

// MatchLanguage picks the supported language closest to an Accept-Language header.
func MatchLanguage(acceptLanguage string) language.Tag {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	return supportedBase(tag)
}

// Negotiate prefers an explicit choice such as ?lang=de and falls back to
// the Accept-Language header.
func Negotiate(explicit, acceptLanguage string) language.Tag {
	if explicit != "" {
		if tag, err := language.Parse(explicit); err == nil {
			if _, _, conf := matcher.Match(tag); conf != language.No {
				return MatchLanguage(explicit)
			}
		}
	}
	return MatchLanguage(acceptLanguage)
}

// supportedBase strips regions and extensions the matcher keeps, so de-AT
// becomes de.
func supportedBase(tag language.Tag) language.Tag {
	base, _ := tag.Base()
	for _, s := range Supported {
		if b, _ := s.Base(); b == base {
			return s
		}
	}
	return Supported[0]
}

// WithLocale adds the locale to the context.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	return context.WithValue(ctx, localeContextKey{}, supportedBase(lang))
}

// GetLocale returns the language code of the context locale.
func GetLocale(ctx context.Context) string {
	return locale(ctx).String()
}

func locale(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(localeContextKey{}).(language.Tag); ok {
		return tag
	}
	return Supported[0]
}

// localize falls back to the message ID so missing translations stay visible.
func localize(ctx context.Context, cfg *i18n.LocalizeConfig) string {
	l, ok := localizers[locale(ctx)]
	if !ok {
		return cfg.MessageID
	}
	msg, err := l.Localize(cfg)
	if err != nil {
		return cfg.MessageID
	}
	return msg
}

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: messageID})
}

// TData translates a message with template data.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: messageID, TemplateData: data})
}

// TPlural translates a message with plural support. The count is available as {{.Count}}.
func TPlural(ctx context.Context, messageID string, count int) string {
	return localize(ctx, &i18n.LocalizeConfig{
		MessageID:    messageID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

// Reason translates a machine readable reason such as a camera failure
// ("camera", "no_device") or a scan rejection ("reject", "unreadable").
func Reason(ctx context.Context, kind, reason string) string {
	return T(ctx, kind+"_"+reason)
}
