// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"coachpress/internal/cache"
	"coachpress/internal/i18n"
	"coachpress/internal/mailer"
	"coachpress/internal/middleware"
	"coachpress/internal/render"
)

// Home page list sizes.
const (
	homePosts = 3
	homeBooks = 4
)

// programs are the translation keys of the coaching programs, in page order.
var programs = []string{"single", "monthly", "intensive"}

// Public groups handlers for the public site. Pages are served from the
// Valkey page cache when possible and rendered from the store on miss.
type Public struct {
	renderer      *render.Renderer
	posts         PostStore
	books         BookStore
	subscribers   SubscriberStore
	pages         PageCache
	sender        mailer.Sender
	contactTo     string
	siteName      string
	siteURL       string
	defaultLocale string
}

// NewPublic creates a new Public handler group. Contact messages are sent
// through sender to contactTo.
func NewPublic(renderer *render.Renderer, posts PostStore, books BookStore, subscribers SubscriberStore, pages PageCache, sender mailer.Sender, contactTo, siteName, siteURL, defaultLocale string) *Public {
	return &Public{
		renderer:      renderer,
		posts:         posts,
		books:         books,
		subscribers:   subscribers,
		pages:         pages,
		sender:        sender,
		contactTo:     contactTo,
		siteName:      siteName,
		siteURL:       strings.TrimRight(siteURL, "/"),
		defaultLocale: defaultLocale,
	}
}

// pageBuilder loads what a page needs. A nil PageData means not found.
type pageBuilder func(r *http.Request, locale string) (string, *render.PageData, error)

// serve answers from the page cache or builds, renders and caches the page.
func (p *Public) serve(w http.ResponseWriter, r *http.Request, build pageBuilder) {
	ctx := r.Context()
	locale := middleware.LocaleFromCtx(ctx)
	path := localPath(r, locale)
	key := cache.PageKey(locale, path)

	if html, ok := p.pages.Get(ctx, key); ok {
		w.Header().Set("X-Cache", "HIT")
		render.WriteHTML(w, http.StatusOK, html)
		return
	}

	name, data, err := build(r, locale)
	if err != nil {
		slog.Error("load page failed", "error", err, "path", r.URL.Path)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		p.NotFound(w, r)
		return
	}

	data.Locale = locale
	data.Path = path
	html, err := p.renderer.RenderPublic(name, data)
	if err != nil {
		slog.Error("render page failed", "error", err, "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	p.pages.Set(ctx, key, html)
	w.Header().Set("X-Cache", "MISS")
	render.WriteHTML(w, http.StatusOK, html)
}

// localPath strips the locale prefix: "/es/blog" → "/blog", "/es" → "".
func localPath(r *http.Request, locale string) string {
	path := strings.TrimPrefix(r.URL.Path, "/"+locale)
	return strings.TrimSuffix(path, "/")
}

// RootRedirect sends "/" to the visitor's locale.
func (p *Public) RootRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+i18n.Resolve(r, p.defaultLocale), http.StatusFound)
}

// NotFound renders the localized 404 page, or a JSON 404 under /api.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	locale, ok := r.Context().Value(middleware.LocaleKey).(string)
	if !ok {
		locale = i18n.Resolve(r, p.defaultLocale)
	}
	p.renderer.Public(w, r, http.StatusNotFound, "notfound", &render.PageData{
		Title:  i18n.T(locale, "notfound.title"),
		Locale: locale,
		Path:   localPath(r, locale),
	})
}

// Home renders the landing page with the latest posts and books.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	p.serve(w, r, func(r *http.Request, locale string) (string, *render.PageData, error) {
		posts, err := p.posts.ListPublished(r.Context())
		if err != nil {
			return "", nil, err
		}
		books, err := p.books.ListPublished(r.Context())
		if err != nil {
			return "", nil, err
		}
		return "home", &render.PageData{
			Description: i18n.T(locale, "home.intro"),
			Section:     "home",
			Data: map[string]any{
				"Posts": posts[:min(len(posts), homePosts)],
				"Books": books[:min(len(books), homeBooks)],
			},
		}, nil
	})
}

// Blog lists published posts.
func (p *Public) Blog(w http.ResponseWriter, r *http.Request) {
	p.serve(w, r, func(r *http.Request, locale string) (string, *render.PageData, error) {
		posts, err := p.posts.ListPublished(r.Context())
		if err != nil {
			return "", nil, err
		}
		return "blog", &render.PageData{
			Title:   i18n.T(locale, "blog.title"),
			Section: "blog",
			Data:    map[string]any{"Posts": posts},
		}, nil
	})
}

// Post renders a single published post.
func (p *Public) Post(w http.ResponseWriter, r *http.Request) {
	p.serve(w, r, func(r *http.Request, locale string) (string, *render.PageData, error) {
		post, err := p.posts.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil || post == nil {
			return "", nil, err
		}
		desc := post.MetaDescription
		if desc == "" {
			desc = post.Summary()
		}
		return "post", &render.PageData{
			Title:       post.Title,
			Description: desc,
			Section:     "blog",
			Data:        map[string]any{"Post": post},
		}, nil
	})
}

// Books lists published books.
func (p *Public) Books(w http.ResponseWriter, r *http.Request) {
	p.serve(w, r, func(r *http.Request, locale string) (string, *render.PageData, error) {
		books, err := p.books.ListPublished(r.Context())
		if err != nil {
			return "", nil, err
		}
		return "books", &render.PageData{
			Title:   i18n.T(locale, "books.title"),
			Section: "books",
			Data:    map[string]any{"Books": books},
		}, nil
	})
}

// Book renders a single published book.
func (p *Public) Book(w http.ResponseWriter, r *http.Request) {
	p.serve(w, r, func(r *http.Request, locale string) (string, *render.PageData, error) {
		book, err := p.books.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil || book == nil {
			return "", nil, err
		}
		return "book", &render.PageData{
			Title:       book.Title,
			Description: book.Description,
			Section:     "books",
			Data:        map[string]any{"Book": book},
		}, nil
	})
}

// Programs renders the coaching programs page.
func (p *Public) Programs(w http.ResponseWriter, r *http.Request) {
	p.serve(w, r, func(r *http.Request, locale string) (string, *render.PageData, error) {
		return "programs", &render.PageData{
			Title:       i18n.T(locale, "programs.title"),
			Description: i18n.T(locale, "programs.intro"),
			Section:     "programs",
			Data:        map[string]any{"Programs": programs},
		}, nil
	})
}

// Contact renders the contact form.
func (p *Public) Contact(w http.ResponseWriter, r *http.Request) {
	p.serve(w, r, func(r *http.Request, locale string) (string, *render.PageData, error) {
		return "contact", &render.PageData{
			Title:       i18n.T(locale, "contact.title"),
			Description: i18n.T(locale, "contact.intro"),
			Section:     "contact",
		}, nil
	})
}
