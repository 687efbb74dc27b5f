// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package i18n holds the supported site locales, the translated strings for
// page chrome and the rules for picking a visitor's locale.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// English and Spanish are the two site locales.
	English = "en"
	Spanish = "es"

	// CookieName stores the visitor's last chosen locale.
	CookieName = "lang"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	supportedTags = []language.Tag{language.English, language.Spanish}
	matcher       = language.NewMatcher(supportedTags)

	// keys holds every catalog key per locale, used by Has.
	keys = map[string]map[string]bool{}
)

func init() {
	if err := register(localeFS); err != nil {
		panic(err)
	}
}

// register loads the embedded JSON catalogs into x/text/message.
func register(fsys fs.FS) error {
	files, err := fs.Glob(fsys, "locales/*.json")
	if err != nil {
		return fmt.Errorf("glob locales: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		locale := strings.TrimSuffix(path.Base(file), ".json")
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale %q: %w", locale, err)
		}

		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return fmt.Errorf("parse %s: %w", file, err)
		}

		if keys[locale] == nil {
			keys[locale] = make(map[string]bool, len(messages))
		}
		for key, value := range messages {
			if err := message.SetString(tag, key, value); err != nil {
				return fmt.Errorf("register %s/%s: %w", locale, key, err)
			}
			keys[locale][key] = true
		}
	}
	return nil
}

// Locales returns the supported locale codes in display order.
func Locales() []string {
	return []string{English, Spanish}
}

// IsSupported reports whether locale is one of the site locales.
func IsSupported(locale string) bool {
	return locale == English || locale == Spanish
}

// Normalize returns locale if supported, otherwise fallback.
func Normalize(locale, fallback string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if IsSupported(locale) {
		return locale
	}
	return fallback
}

// Alternate returns the other site locale, used by the language switcher.
func Alternate(locale string) string {
	if locale == Spanish {
		return English
	}
	return Spanish
}

// T returns the translation of key for locale, formatting args into it.
// Keys missing from the Spanish catalog fall back to English; unknown keys
// are returned as-is.
func T(locale, key string, args ...any) string {
	tag := language.English
	if locale == Spanish && Has(Spanish, key) {
		tag = language.Spanish
	}
	return message.NewPrinter(tag).Sprintf(key, args...)
}

// Has reports whether the catalog for locale defines key.
func Has(locale, key string) bool {
	return keys[locale][key]
}

// Match picks the best supported locale for an Accept-Language header.
// Returns fallback when nothing matches.
func Match(acceptLanguage, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	base, _ := supportedTags[idx].Base()
	return base.String()
}

// Resolve determines the locale for a request without a locale prefix:
// the lang cookie first, then Accept-Language, then fallback.
func Resolve(r *http.Request, fallback string) string {
	if c, err := r.Cookie(CookieName); err == nil && IsSupported(c.Value) {
		return c.Value
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		return Match(accept, fallback)
	}
	return fallback
}

// SetCookie persists the visitor's locale for a year.
func SetCookie(w http.ResponseWriter, locale string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    locale,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
