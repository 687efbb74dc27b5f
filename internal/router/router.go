// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// coaching site. Routes are organized into the localized public site, the
// JSON API and the admin area, each with its own middleware stack.
package router

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"coachpress/internal/handlers"
	"coachpress/internal/middleware"
)

// Options carries the transport settings the router needs.
type Options struct {
	// Secure marks cookies as HTTPS-only and enables HSTS.
	Secure bool

	// CORSOrigins lists the browser origins allowed to call /api.
	CORSOrigins []string

	// Static is served under /static/. Nil disables static assets.
	Static fs.FS

	// LoginLimiter throttles login attempts; FormLimiter throttles the
	// newsletter and contact forms. Nil limiters are skipped.
	LoginLimiter *middleware.RateLimiter
	FormLimiter  *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options, sessions middleware.SessionReader, content *handlers.Content, auth *handlers.Auth, public *handlers.Public, admin *handlers.Admin) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(opts.Secure))
	r.Use(middleware.LoadSession(sessions))

	r.NotFound(public.NotFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/health", healthHandler)
	if opts.Static != nil {
		r.Handle("/static/*", staticHandler(opts.Static))
	}
	r.Get("/feed.xml", public.Feed)
	r.Get("/sitemap.xml", public.Sitemap)

	// JSON API.
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.CSRFHeaderName},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		// Authentication. Login and logout carry the double-submit token
		// too, so another site cannot sign the operator in or out.
		r.With(limit(opts.LoginLimiter), middleware.CSRF(opts.Secure)).Post("/auth/login", auth.Login)
		r.With(middleware.CSRF(opts.Secure)).Post("/auth/logout", auth.Logout)
		r.Get("/auth/session", auth.Session)

		// Public reads; ?all=true is checked inside the handlers.
		r.Get("/posts", content.ListPosts)
		r.Get("/posts/{slug}", content.GetPost)
		r.Get("/books", content.ListBooks)
		r.Get("/books/{slug}", content.GetBook)
		r.Post("/views", content.TrackView)

		r.Group(func(r chi.Router) {
			r.Use(limit(opts.FormLimiter))
			r.Post("/newsletter/subscribe", public.Subscribe)
			r.Post("/newsletter/unsubscribe", public.Unsubscribe)
			r.Post("/contact", public.SendContact)
		})

		// Operator-only endpoints.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAPIAuth)
			r.Use(middleware.CSRF(opts.Secure))

			r.Post("/posts", content.CreatePost)
			r.Delete("/posts", content.DeletePostQuery)
			r.Put("/posts/{id}", content.UpdatePost)
			r.Post("/posts/{id}/publish", content.PublishPost)
			r.Post("/posts/{id}/unpublish", content.UnpublishPost)
			r.Delete("/posts/{id}", content.DeletePost)

			r.Post("/books", content.CreateBook)
			r.Delete("/books", content.DeleteBookQuery)
			r.Put("/books/{id}", content.UpdateBook)
			r.Post("/books/{id}/publish", content.PublishBook)
			r.Post("/books/{id}/unpublish", content.UnpublishBook)
			r.Delete("/books/{id}", content.DeleteBook)

			r.Post("/upload", content.Upload)
			r.Get("/admin/stats", content.Stats)
			r.Get("/admin/totp.png", auth.TOTPQRCode)
		})
	})

	// Admin pages.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.CSRF(opts.Secure))

		r.Get("/login", auth.LoginPage)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminPage)

			r.Get("/", admin.Dashboard)
			r.Get("/posts/new", admin.PostNew)
			r.Get("/posts/{id}", admin.PostEdit)
			r.Get("/books/new", admin.BookNew)
			r.Get("/books/{id}", admin.BookEdit)
		})
	})

	// Localized public site.
	r.Get("/", public.RootRedirect)
	r.Route("/{locale}", func(r chi.Router) {
		r.Use(middleware.Locale(public.NotFound))

		r.Get("/", public.Home)
		r.Get("/blog", public.Blog)
		r.Get("/blog/{slug}", public.Post)
		r.Get("/books", public.Books)
		r.Get("/books/{slug}", public.Book)
		r.Get("/programs", public.Programs)
		r.Get("/contact", public.Contact)
		r.Get("/unsubscribe", public.UnsubscribePage)
	})

	return r
}

// limit returns rl's middleware, or a pass-through when rl is nil.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// staticHandler serves embedded assets with a long-lived cache header.
func staticHandler(static fs.FS) http.Handler {
	files := http.StripPrefix("/static/", http.FileServerFS(static))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400")
		files.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/api/") {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"error":"Method not allowed"}`))
}
