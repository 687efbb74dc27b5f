// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coachpress/internal/i18n"
)

// LocaleKey is the context key for the active locale.
const LocaleKey contextKey = "locale"

// Locale validates the {locale} URL parameter of public routes, remembers
// it in the lang cookie and stores it in the request context. Unknown
// locales are answered by notFound.
func Locale(notFound http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := chi.URLParam(r, "locale")
			if !i18n.IsSupported(locale) {
				notFound(w, r)
				return
			}

			if c, err := r.Cookie(i18n.CookieName); err != nil || c.Value != locale {
				i18n.SetCookie(w, locale)
			}
			next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), locale)))
		})
	}
}

// WithLocale returns a copy of ctx carrying locale.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, LocaleKey, locale)
}

// LocaleFromCtx returns the active locale, or English if none is set.
func LocaleFromCtx(ctx context.Context) string {
	if locale, ok := ctx.Value(LocaleKey).(string); ok && locale != "" {
		return locale
	}
	return i18n.English
}
