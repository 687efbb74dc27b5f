// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site and
// the admin area. Templates are embedded in the binary; each page template
// is paired with its area's base layout.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"coachpress/internal/i18n"
	"coachpress/internal/markdown"
	"coachpress/internal/middleware"
	"coachpress/internal/session"
)

//go:embed templates/public/*.html templates/admin/*.html
var templateFS embed.FS

// PageData holds all data passed to templates.
type PageData struct {
	Title       string        // Page title for <title> tag
	Description string        // Meta description
	Locale      string        // Active locale (public pages)
	Path        string        // Path without the locale prefix, e.g. "/blog"
	Section     string        // Active nav section
	Session     *session.Data // Current operator session (nil if anonymous)
	CSRFToken   string        // CSRF token for admin API calls
	Data        map[string]any
}

// Renderer handles template parsing and execution.
type Renderer struct {
	public   map[string]*template.Template
	admin    map[string]*template.Template
	siteName string
	siteURL  string
}

// standaloneTemplates lists admin templates that render as full HTML pages
// without the admin layout.
var standaloneTemplates = map[string]bool{
	"login": true,
}

// New creates a Renderer by parsing all embedded templates.
func New(siteName, siteURL string, devMode bool) (*Renderer, error) {
	rn := &Renderer{
		public:   make(map[string]*template.Template),
		admin:    make(map[string]*template.Template),
		siteName: siteName,
		siteURL:  strings.TrimRight(siteURL, "/"),
	}

	funcs := template.FuncMap{
		"t":         i18n.T,
		"alternate": i18n.Alternate,
		"locales":   i18n.Locales,
		// safe marks operator-authored HTML (post and book bodies) as trusted.
		"safe":     func(s string) template.HTML { return template.HTML(s) },
		"markdown": markdown.Render,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"date":     FormatDate,
		"isoDate":  func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
		"siteName": func() string { return rn.siteName },
		"siteURL":  func() string { return rn.siteURL },
		"isDev":    func() bool { return devMode },
		"year":     func() int { return time.Now().Year() },
		"active": func(current, target string) string {
			if current == target {
				return "active"
			}
			return ""
		},
	}

	if err := rn.parseArea(rn.public, "public", funcs, nil); err != nil {
		return nil, err
	}
	if err := rn.parseArea(rn.admin, "admin", funcs, standaloneTemplates); err != nil {
		return nil, err
	}
	return rn, nil
}

// parseArea parses every page of templates/<area>/ paired with base.html.
func (rn *Renderer) parseArea(dst map[string]*template.Template, area string, funcs template.FuncMap, standalone map[string]bool) error {
	dir := "templates/" + area
	entries, err := fs.ReadDir(templateFS, dir)
	if err != nil {
		return fmt.Errorf("read %s templates: %w", area, err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" {
			continue
		}
		tmplName := strings.TrimSuffix(name, path.Ext(name))

		files := []string{dir + "/base.html", dir + "/" + name}
		if standalone[tmplName] {
			files = files[1:]
		}
		tmpl, err := template.New(path.Base(files[0])).Funcs(funcs).ParseFS(templateFS, files...)
		if err != nil {
			return fmt.Errorf("parse template %s/%s: %w", area, name, err)
		}
		dst[tmplName] = tmpl
	}
	return nil
}

// RenderPublic executes a public page into a byte slice so callers can
// cache the result.
func (rn *Renderer) RenderPublic(name string, data *PageData) ([]byte, error) {
	tmpl, ok := rn.public[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	if data.Locale == "" {
		data.Locale = i18n.English
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Public renders a public page with the given status.
func (rn *Renderer) Public(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	if data.Locale == "" {
		data.Locale = middleware.LocaleFromCtx(r.Context())
	}
	body, err := rn.RenderPublic(name, data)
	if err != nil {
		slog.Error("render public page failed", "error", err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	WriteHTML(w, status, body)
}

// Admin renders an admin page. Session and CSRF token are taken from the
// request when not set.
func (rn *Renderer) Admin(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.admin[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.CSRFToken = middleware.GetCSRFToken(r)
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	execName := "base.html"
	if standaloneTemplates[name] {
		execName = name + ".html"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, execName, data); err != nil {
		slog.Error("render admin page failed", "error", err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteHTML(w, http.StatusOK, buf.Bytes())
}

// WriteHTML writes an HTML body with the given status.
func WriteHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

var monthsES = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatDate renders a date the way each locale writes it:
// "March 9, 2026" and "9 de marzo de 2026".
func FormatDate(locale string, t time.Time) string {
	if locale == i18n.Spanish {
		return fmt.Sprintf("%d de %s de %d", t.Day(), monthsES[t.Month()-1], t.Year())
	}
	return t.Format("January 2, 2006")
}
