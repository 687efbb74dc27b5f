// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coachpress/internal/i18n"
	"coachpress/internal/middleware"
	"coachpress/internal/models"
	"coachpress/internal/session"

	"github.com/google/uuid"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	rn, err := New("Coachpress", "https://coach.example.com/", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rn
}

// requestWithLocale builds a request whose context carries a locale and,
// optionally, an operator session.
func requestWithLocale(target, locale string, sess *session.Data) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	ctx := middleware.WithLocale(req.Context(), locale)
	if sess != nil {
		ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	}
	return req.WithContext(ctx)
}

func TestNew(t *testing.T) {
	rn := newRenderer(t)

	for _, name := range []string{"home", "blog", "post", "books", "book", "programs", "contact", "unsubscribe", "notfound"} {
		if _, ok := rn.public[name]; !ok {
			t.Errorf("public template %q not parsed", name)
		}
	}
	for _, name := range []string{"login", "dashboard", "post_edit", "book_edit"} {
		if _, ok := rn.admin[name]; !ok {
			t.Errorf("admin template %q not parsed", name)
		}
	}
	if _, ok := rn.public["base"]; ok {
		t.Error("base.html should not be registered as a page")
	}
	if rn.siteURL != "https://coach.example.com" {
		t.Errorf("siteURL should lose its trailing slash, got %q", rn.siteURL)
	}
}

func TestRenderPublic_Localized(t *testing.T) {
	rn := newRenderer(t)

	for _, locale := range i18n.Locales() {
		t.Run(locale, func(t *testing.T) {
			body, err := rn.RenderPublic("programs", &PageData{
				Locale:  locale,
				Path:    "/programs",
				Section: "programs",
				Data:    map[string]any{"Programs": []string{"single", "monthly"}},
			})
			if err != nil {
				t.Fatalf("RenderPublic: %v", err)
			}
			html := string(body)

			if !strings.Contains(html, `<html lang="`+locale+`">`) {
				t.Error("missing lang attribute")
			}
			if !strings.Contains(html, i18n.T(locale, "programs.title")) {
				t.Error("missing localized title")
			}
			alt := i18n.Alternate(locale)
			if !strings.Contains(html, `href="/`+alt+`/programs"`) {
				t.Errorf("missing language switch link to /%s/programs", alt)
			}
			if !strings.Contains(html, `hreflang="es" href="https://coach.example.com/es/programs"`) {
				t.Error("missing hreflang alternate")
			}
			if strings.Contains(html, "programs.intensive") {
				t.Error("unselected program rendered")
			}
		})
	}
}

func TestRenderPublic_Post(t *testing.T) {
	rn := newRenderer(t)
	post := &models.Post{
		Title:     "Small steps",
		Slug:      "small-steps",
		Content:   "<p>Start <strong>today</strong>.</p>",
		Views:     42,
		CreatedAt: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
	}

	body, err := rn.RenderPublic("post", &PageData{
		Locale: "es",
		Path:   "/blog/small-steps",
		Title:  post.Title,
		Data:   map[string]any{"Post": post},
	})
	if err != nil {
		t.Fatalf("RenderPublic: %v", err)
	}
	html := string(body)

	for _, want := range []string{
		"<title>Small steps | Coachpress</title>",
		"<p>Start <strong>today</strong>.</p>",
		`data-views-slug="small-steps"`,
		"9 de marzo de 2026",
		i18n.T("es", "views", int64(42)),
	} {
		if !strings.Contains(html, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRenderPublic_BookMarkdownDescription(t *testing.T) {
	rn := newRenderer(t)
	notes := "<p>My notes</p>"
	book := &models.Book{
		Title:       "Atomic Habits",
		Slug:        "atomic-habits",
		Author:      "James Clear",
		Description: "A book about **habits**.",
		Content:     &notes,
		Link:        "https://example.com/buy",
	}

	body, err := rn.RenderPublic("book", &PageData{Locale: "en", Path: "/books/atomic-habits", Data: map[string]any{"Book": book}})
	if err != nil {
		t.Fatalf("RenderPublic: %v", err)
	}
	html := string(body)
	for _, want := range []string{"<strong>habits</strong>", "by James Clear", notes, `href="https://example.com/buy"`} {
		if !strings.Contains(html, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRenderPublic_EmptyLists(t *testing.T) {
	rn := newRenderer(t)
	body, err := rn.RenderPublic("blog", &PageData{Locale: "en", Path: "/blog", Data: map[string]any{"Posts": []models.Post{}}})
	if err != nil {
		t.Fatalf("RenderPublic: %v", err)
	}
	if !strings.Contains(string(body), i18n.T("en", "blog.empty")) {
		t.Error("empty blog should show the empty message")
	}
}

func TestRenderPublic_UnknownTemplate(t *testing.T) {
	rn := newRenderer(t)
	if _, err := rn.RenderPublic("nope", &PageData{}); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestPublic_StatusAndLocaleFromContext(t *testing.T) {
	rn := newRenderer(t)
	rec := httptest.NewRecorder()

	rn.Public(rec, requestWithLocale("/es/missing", "es", nil), http.StatusNotFound, "notfound", &PageData{})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), i18n.T("es", "notfound.title")) {
		t.Error("not found page should be rendered in the request locale")
	}
}

func TestAdmin_Dashboard(t *testing.T) {
	rn := newRenderer(t)
	sess := &session.Data{ID: uuid.NewString(), Email: "coach@example.com"}
	rec := httptest.NewRecorder()

	rn.Admin(rec, requestWithLocale("/admin", "en", sess), "dashboard", &PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"Stats": map[string]any{
				"Posts":       models.ContentStats{Total: 2, Published: 1, Views: 10},
				"Books":       models.ContentStats{},
				"Subscribers": 3,
			},
			"Posts": []models.Post{
				{ID: uuid.New(), Title: "Draft post", Slug: "draft-post"},
			},
			"Books": []models.Book{},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("admin pages must not be cached")
	}
	html := rec.Body.String()
	for _, want := range []string{"coach@example.com", "Draft post", `data-action="publish"`, "No books yet.", "1 / 2"} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestAdmin_LoginIsStandalone(t *testing.T) {
	rn := newRenderer(t)
	rec := httptest.NewRecorder()

	rn.Admin(rec, requestWithLocale("/admin/login", "en", nil), "login", &PageData{
		Data: map[string]any{"TOTP": true},
	})

	html := rec.Body.String()
	if strings.Contains(html, "admin-header") {
		t.Error("login page should not use the admin layout")
	}
	if !strings.Contains(html, `name="code"`) {
		t.Error("login page should ask for a TOTP code when enabled")
	}
}

func TestAdmin_PostEditor(t *testing.T) {
	rn := newRenderer(t)
	post := &models.Post{ID: uuid.New(), Title: "Hello", Slug: "hello", Content: "<p>Body</p>", Published: true}
	rec := httptest.NewRecorder()

	rn.Admin(rec, requestWithLocale("/admin/posts/x", "en", nil), "post_edit", &PageData{
		Title: "Edit post",
		Data:  map[string]any{"Post": post, "Content": post.Content},
	})

	html := rec.Body.String()
	for _, want := range []string{`data-id="` + post.ID.String() + `"`, `value="hello"`, "<p>Body</p>", "checked"} {
		if !strings.Contains(html, want) {
			t.Errorf("editor missing %q", want)
		}
	}
}

func TestAdmin_UnknownTemplate(t *testing.T) {
	rn := newRenderer(t)
	rec := httptest.NewRecorder()
	rn.Admin(rec, requestWithLocale("/admin", "en", nil), "missing", &PageData{})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	if got := FormatDate("en", d); got != "December 1, 2026" {
		t.Errorf("en: got %q", got)
	}
	if got := FormatDate("es", d); got != "1 de diciembre de 2026" {
		t.Errorf("es: got %q", got)
	}
}
