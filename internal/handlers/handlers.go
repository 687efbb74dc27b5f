// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for Coachpress.
// Handlers are grouped by concern (content API, auth, public site, admin
// pages) and receive their dependencies through the handler struct.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"coachpress/internal/mailer"
	"coachpress/internal/models"
	"coachpress/internal/store"
)

// maxJSONBody caps JSON request bodies. Post content is HTML with inline
// markup, so this is generous.
const maxJSONBody = 2 << 20

// PostStore is the post persistence the handlers need.
type PostStore interface {
	ListPublished(ctx context.Context) ([]models.Post, error)
	ListAll(ctx context.Context) ([]models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	FindBySlugAny(ctx context.Context, slug string) (*models.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) (*models.Post, bool, error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Post, bool, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Post, error)
	DeleteBySlug(ctx context.Context, slug string) (*models.Post, error)
	IncrementViews(ctx context.Context, slug string) (int64, error)
	Stats(ctx context.Context) (models.ContentStats, error)
}

// BookStore is the book persistence the handlers need.
type BookStore interface {
	ListPublished(ctx context.Context) ([]models.Book, error)
	ListAll(ctx context.Context) ([]models.Book, error)
	FindBySlug(ctx context.Context, slug string) (*models.Book, error)
	FindBySlugAny(ctx context.Context, slug string) (*models.Book, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	Create(ctx context.Context, b *models.Book) (*models.Book, error)
	Update(ctx context.Context, b *models.Book) (*models.Book, bool, error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Book, bool, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Book, error)
	DeleteBySlug(ctx context.Context, slug string) (*models.Book, error)
	IncrementViews(ctx context.Context, slug string) (int64, error)
	Stats(ctx context.Context) (models.ContentStats, error)
}

// SubscriberStore is the newsletter subscriber persistence.
type SubscriberStore interface {
	Subscribe(ctx context.Context, email, locale string) (models.SubscribeResult, error)
	Unsubscribe(ctx context.Context, email string) error
	CountActive(ctx context.Context) (int, error)
}

// PageCache stores rendered public pages.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, html []byte)
	InvalidateAll(ctx context.Context)
}

// Announcer sends the newsletter for newly published content.
type Announcer interface {
	Dispatch(a mailer.Announcement)
}

// Uploader puts files into object storage and removes them again.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
	ExtractKey(rawURL string) (string, bool)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeStoreError maps a store failure to its HTTP answer. Unexpected
// errors echo the underlying message so the operator can see it.
func writeStoreError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, store.ErrDuplicateSlug):
		writeError(w, http.StatusBadRequest, "Duplicate slug")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		slog.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
