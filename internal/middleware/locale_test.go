// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestLocale(t *testing.T) {
	notFound := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}

	var gotLocale string
	r := chi.NewRouter()
	r.Route("/{locale}", func(r chi.Router) {
		r.Use(Locale(notFound))
		r.Get("/blog", func(w http.ResponseWriter, r *http.Request) {
			gotLocale = LocaleFromCtx(r.Context())
		})
	})

	tests := []struct {
		path       string
		cookie     string
		wantStatus int
		wantLocale string
		wantCookie bool
	}{
		{"/es/blog", "", http.StatusOK, "es", true},
		{"/en/blog", "en", http.StatusOK, "en", false},
		{"/en/blog", "es", http.StatusOK, "en", true},
		{"/fr/blog", "", http.StatusNotFound, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.cookie, func(t *testing.T) {
			gotLocale = ""
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "lang", Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if gotLocale != tt.wantLocale {
				t.Errorf("locale: got %q, want %q", gotLocale, tt.wantLocale)
			}
			if set := len(rr.Result().Cookies()) > 0; set != tt.wantCookie {
				t.Errorf("cookie set: got %v, want %v", set, tt.wantCookie)
			}
		})
	}
}

func TestLocaleFromCtxDefault(t *testing.T) {
	if got := LocaleFromCtx(context.Background()); got != "en" {
		t.Errorf("got %q, want en", got)
	}
	if got := LocaleFromCtx(WithLocale(context.Background(), "es")); got != "es" {
		t.Errorf("got %q, want es", got)
	}
}
