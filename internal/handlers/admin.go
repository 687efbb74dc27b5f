// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coachpress/internal/render"
)

// Admin groups the admin pages. They host the client-side editor, which
// talks to the content API.
type Admin struct {
	renderer    *render.Renderer
	posts       PostStore
	books       BookStore
	subscribers SubscriberStore
	operator    Operator
}

// NewAdmin creates a new Admin handler group with the given dependencies.
func NewAdmin(renderer *render.Renderer, posts PostStore, books BookStore, subscribers SubscriberStore, operator Operator) *Admin {
	return &Admin{
		renderer:    renderer,
		posts:       posts,
		books:       books,
		subscribers: subscribers,
		operator:    operator,
	}
}

// Dashboard lists every post and book, drafts included, with stats.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	posts, err := a.posts.ListAll(ctx)
	if err != nil {
		slog.Error("list posts failed", "error", err)
	}
	books, err := a.books.ListAll(ctx)
	if err != nil {
		slog.Error("list books failed", "error", err)
	}
	stats, err := loadStats(ctx, a.posts, a.books, a.subscribers)
	if err != nil {
		slog.Error("load stats failed", "error", err)
	}

	a.renderer.Admin(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"Posts": posts,
			"Books": books,
			"Stats": stats,
			"TOTP":  a.operator.TOTPEnabled(),
		},
	})
}

// PostNew renders an empty post editor.
func (a *Admin) PostNew(w http.ResponseWriter, r *http.Request) {
	a.renderer.Admin(w, r, "post_edit", &render.PageData{
		Title:   "New post",
		Section: "posts",
		Data:    map[string]any{"Content": ""},
	})
}

// PostEdit renders the editor for an existing post.
func (a *Admin) PostEdit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	post, err := a.posts.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find post failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	a.renderer.Admin(w, r, "post_edit", &render.PageData{
		Title:   "Edit: " + post.Title,
		Section: "posts",
		Data:    map[string]any{"Post": post, "Content": post.Content},
	})
}

// BookNew renders an empty book editor.
func (a *Admin) BookNew(w http.ResponseWriter, r *http.Request) {
	a.renderer.Admin(w, r, "book_edit", &render.PageData{
		Title:   "New book",
		Section: "books",
		Data:    map[string]any{"Content": ""},
	})
}

// BookEdit renders the editor for an existing book.
func (a *Admin) BookEdit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	book, err := a.books.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find book failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if book == nil {
		http.NotFound(w, r)
		return
	}

	content := ""
	if book.Content != nil {
		content = *book.Content
	}
	a.renderer.Admin(w, r, "book_edit", &render.PageData{
		Title:   "Edit: " + book.Title,
		Section: "books",
		Data:    map[string]any{"Book": book, "Content": content},
	})
}
