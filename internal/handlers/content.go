// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coachpress/internal/imaging"
	"coachpress/internal/mailer"
	"coachpress/internal/middleware"
	"coachpress/internal/models"
	"coachpress/internal/slug"
	"coachpress/internal/storage"
	"coachpress/internal/store"
)

// maxUploadSize is the largest accepted image upload (15 MB).
const maxUploadSize = 15 << 20

// Content groups the JSON API for posts, books, view tracking, uploads and
// dashboard stats.
type Content struct {
	posts       PostStore
	books       BookStore
	subscribers SubscriberStore
	pages       PageCache
	newsletter  Announcer
	uploader    Uploader
}

// NewContent creates the content API handler group. uploader may be nil if
// object storage is not configured.
func NewContent(posts PostStore, books BookStore, subscribers SubscriberStore, pages PageCache, newsletter Announcer, uploader Uploader) *Content {
	return &Content{
		posts:       posts,
		books:       books,
		subscribers: subscribers,
		pages:       pages,
		newsletter:  newsletter,
		uploader:    uploader,
	}
}

// --- Posts ---

// ListPosts returns published posts. With ?all=true an authenticated
// operator also gets drafts.
func (c *Content) ListPosts(w http.ResponseWriter, r *http.Request) {
	all, ok := wantAll(w, r)
	if !ok {
		return
	}
	list := c.posts.ListPublished
	if all {
		list = c.posts.ListAll
	}
	posts, err := list(r.Context())
	if err != nil {
		writeStoreError(w, err, "list posts")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// GetPost returns a post by slug. Drafts are only visible to the operator.
func (c *Content) GetPost(w http.ResponseWriter, r *http.Request) {
	find := c.posts.FindBySlug
	if middleware.IsAuthenticated(r) {
		find = c.posts.FindBySlugAny
	}
	post, err := find(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeStoreError(w, err, "find post")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// CreatePost stores a new post and announces it when created published.
func (c *Content) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in postInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	in.normalize()
	if msg := in.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	post := in.post()
	post.Published = in.Published != nil && *in.Published
	created, err := c.posts.Create(r.Context(), post)
	if err != nil {
		writeStoreError(w, err, "create post")
		return
	}

	c.changed(r.Context())
	if created.Published {
		c.announcePost(created)
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePost replaces a post's fields. Flipping a draft to published
// announces it.
func (c *Content) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in postInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	in.normalize()
	if msg := in.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	post := in.post()
	post.ID = id
	if in.Published != nil {
		post.Published = *in.Published
	} else {
		current, err := c.posts.FindByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "find post")
			return
		}
		if current == nil {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		post.Published = current.Published
	}

	updated, wasPublished, err := c.posts.Update(r.Context(), post)
	if err != nil {
		writeStoreError(w, err, "update post")
		return
	}

	c.changed(r.Context())
	if updated.Published && !wasPublished {
		c.announcePost(updated)
	}
	writeJSON(w, http.StatusOK, updated)
}

// PublishPost makes a post public.
func (c *Content) PublishPost(w http.ResponseWriter, r *http.Request) {
	c.setPostPublished(w, r, true)
}

// UnpublishPost turns a post back into a draft.
func (c *Content) UnpublishPost(w http.ResponseWriter, r *http.Request) {
	c.setPostPublished(w, r, false)
}

func (c *Content) setPostPublished(w http.ResponseWriter, r *http.Request, published bool) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	post, wasPublished, err := c.posts.SetPublished(r.Context(), id, published)
	if err != nil {
		writeStoreError(w, err, "set post published")
		return
	}
	if wasPublished != published {
		c.changed(r.Context())
	}
	if published && !wasPublished {
		c.announcePost(post)
	}
	writeJSON(w, http.StatusOK, post)
}

// DeletePost removes a post by id, or by slug when the key is not a UUID.
func (c *Content) DeletePost(w http.ResponseWriter, r *http.Request) {
	c.deletePost(w, r, chi.URLParam(r, "id"))
}

// DeletePostQuery is DELETE /api/posts?id=… (or ?slug=…).
func (c *Content) DeletePostQuery(w http.ResponseWriter, r *http.Request) {
	c.deletePost(w, r, queryKey(r))
}

func (c *Content) deletePost(w http.ResponseWriter, r *http.Request, key string) {
	var (
		post *models.Post
		err  error
	)
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		post, err = c.posts.Delete(r.Context(), id)
	} else if slug.Valid(key) {
		post, err = c.posts.DeleteBySlug(r.Context(), key)
	} else {
		err = store.ErrNotFound
	}
	if err != nil {
		writeStoreError(w, err, "delete post")
		return
	}

	c.changed(r.Context())
	c.removeUpload(r.Context(), post.FeaturedImage)
	slog.Info("post deleted", "id", post.ID, "slug", post.Slug)
	writeJSON(w, http.StatusOK, post)
}

func (in *postInput) post() *models.Post {
	return &models.Post{
		Title:           in.Title,
		Slug:            in.Slug,
		Subtitle:        in.Subtitle,
		Content:         in.Content,
		Excerpt:         in.Excerpt,
		MetaDescription: in.MetaDescription,
		Category:        in.Category,
		FeaturedImage:   in.FeaturedImage,
	}
}

func (c *Content) announcePost(p *models.Post) {
	c.newsletter.Dispatch(mailer.Announcement{
		Type:    models.ContentTypePost,
		Title:   p.Title,
		Slug:    p.Slug,
		Excerpt: p.Summary(),
	})
}

// --- Books ---

// ListBooks returns published books, or all books for ?all=true.
func (c *Content) ListBooks(w http.ResponseWriter, r *http.Request) {
	all, ok := wantAll(w, r)
	if !ok {
		return
	}
	list := c.books.ListPublished
	if all {
		list = c.books.ListAll
	}
	books, err := list(r.Context())
	if err != nil {
		writeStoreError(w, err, "list books")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

// GetBook returns a book by slug. Drafts are only visible to the operator.
func (c *Content) GetBook(w http.ResponseWriter, r *http.Request) {
	find := c.books.FindBySlug
	if middleware.IsAuthenticated(r) {
		find = c.books.FindBySlugAny
	}
	book, err := find(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeStoreError(w, err, "find book")
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// CreateBook stores a new book and announces it when created published.
func (c *Content) CreateBook(w http.ResponseWriter, r *http.Request) {
	var in bookInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	in.normalize()
	if msg := in.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	book := in.book()
	book.Published = in.Published != nil && *in.Published
	created, err := c.books.Create(r.Context(), book)
	if err != nil {
		writeStoreError(w, err, "create book")
		return
	}

	c.changed(r.Context())
	if created.Published {
		c.announceBook(created)
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateBook replaces a book's fields.
func (c *Content) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in bookInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	in.normalize()
	if msg := in.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	book := in.book()
	book.ID = id
	if in.Published != nil {
		book.Published = *in.Published
	} else {
		current, err := c.books.FindByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "find book")
			return
		}
		if current == nil {
			writeError(w, http.StatusNotFound, "Book not found")
			return
		}
		book.Published = current.Published
	}

	updated, wasPublished, err := c.books.Update(r.Context(), book)
	if err != nil {
		writeStoreError(w, err, "update book")
		return
	}

	c.changed(r.Context())
	if updated.Published && !wasPublished {
		c.announceBook(updated)
	}
	writeJSON(w, http.StatusOK, updated)
}

// PublishBook makes a book public.
func (c *Content) PublishBook(w http.ResponseWriter, r *http.Request) {
	c.setBookPublished(w, r, true)
}

// UnpublishBook turns a book back into a draft.
func (c *Content) UnpublishBook(w http.ResponseWriter, r *http.Request) {
	c.setBookPublished(w, r, false)
}

func (c *Content) setBookPublished(w http.ResponseWriter, r *http.Request, published bool) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	book, wasPublished, err := c.books.SetPublished(r.Context(), id, published)
	if err != nil {
		writeStoreError(w, err, "set book published")
		return
	}
	if wasPublished != published {
		c.changed(r.Context())
	}
	if published && !wasPublished {
		c.announceBook(book)
	}
	writeJSON(w, http.StatusOK, book)
}

// DeleteBook removes a book by id, or by slug when the key is not a UUID.
func (c *Content) DeleteBook(w http.ResponseWriter, r *http.Request) {
	c.deleteBook(w, r, chi.URLParam(r, "id"))
}

// DeleteBookQuery is DELETE /api/books?id=… (or ?slug=…).
func (c *Content) DeleteBookQuery(w http.ResponseWriter, r *http.Request) {
	c.deleteBook(w, r, queryKey(r))
}

func (c *Content) deleteBook(w http.ResponseWriter, r *http.Request, key string) {
	var (
		book *models.Book
		err  error
	)
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		book, err = c.books.Delete(r.Context(), id)
	} else if slug.Valid(key) {
		book, err = c.books.DeleteBySlug(r.Context(), key)
	} else {
		err = store.ErrNotFound
	}
	if err != nil {
		writeStoreError(w, err, "delete book")
		return
	}

	c.changed(r.Context())
	c.removeUpload(r.Context(), book.CoverImage)
	slog.Info("book deleted", "id", book.ID, "slug", book.Slug)
	writeJSON(w, http.StatusOK, book)
}

func (in *bookInput) book() *models.Book {
	b := &models.Book{
		Title:       in.Title,
		Slug:        in.Slug,
		Author:      in.Author,
		Description: in.Description,
		CoverImage:  in.CoverImage,
		Link:        in.Link,
	}
	if in.Content != nil && *in.Content != "" {
		b.Content = in.Content
	}
	return b
}

func (c *Content) announceBook(b *models.Book) {
	c.newsletter.Dispatch(mailer.Announcement{
		Type:    models.ContentTypeBook,
		Title:   b.Title,
		Slug:    b.Slug,
		Excerpt: b.Description,
	})
}

// --- Views ---

type viewRequest struct {
	Type models.ContentType `json:"type"`
	Slug string             `json:"slug"`
}

// TrackView increments the view counter of a published post or book.
func (c *Content) TrackView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !req.Type.Valid() || req.Slug == "" {
		writeError(w, http.StatusBadRequest, `type must be "post" or "book" and slug is required`)
		return
	}

	increment := c.posts.IncrementViews
	if req.Type == models.ContentTypeBook {
		increment = c.books.IncrementViews
	}
	views, err := increment(r.Context(), req.Slug)
	if err != nil {
		writeStoreError(w, err, "increment views")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"views": views})
}

// --- Uploads ---

// Upload accepts a multipart "file" image, scales it down if needed and
// stores it in object storage. Returns the public URL.
func (c *Content) Upload(w http.ResponseWriter, r *http.Request) {
	if c.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 15 MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided.")
		return
	}
	defer file.Close()

	img, err := imaging.Fit(file, imaging.DefaultMaxWidth)
	if errors.Is(err, imaging.ErrUnsupported) {
		writeError(w, http.StatusBadRequest, "Only JPEG, PNG, GIF and WebP images are supported.")
		return
	}
	if errors.Is(err, imaging.ErrTooManyPixels) {
		writeError(w, http.StatusBadRequest, "Image dimensions are too large.")
		return
	}
	if err != nil {
		slog.Error("process upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	key := storage.NewKey(time.Now(), img.Ext)
	if err := c.uploader.Upload(r.Context(), key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data))); err != nil {
		slog.Error("s3 upload failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"url":    c.uploader.FileURL(key),
		"width":  img.Width,
		"height": img.Height,
	})
}

// removeUpload deletes an image from object storage when rawURL points into
// our bucket. Failures are logged; the content row is already gone.
func (c *Content) removeUpload(ctx context.Context, rawURL string) {
	if c.uploader == nil || rawURL == "" {
		return
	}
	key, ok := c.uploader.ExtractKey(rawURL)
	if !ok {
		return
	}
	if err := c.uploader.Delete(ctx, key); err != nil {
		slog.Error("s3 delete failed", "error", err, "key", key)
	}
}

// --- Stats ---

// DashboardStats summarises content for the admin dashboard.
type DashboardStats struct {
	Posts       models.ContentStats `json:"posts"`
	Books       models.ContentStats `json:"books"`
	Subscribers int                 `json:"subscribers"`
}

// TotalViews is the sum of post and book views.
func (s DashboardStats) TotalViews() int64 {
	return s.Posts.Views + s.Books.Views
}

func loadStats(ctx context.Context, posts PostStore, books BookStore, subs SubscriberStore) (DashboardStats, error) {
	var (
		s   DashboardStats
		err error
	)
	if s.Posts, err = posts.Stats(ctx); err != nil {
		return s, fmt.Errorf("post stats: %w", err)
	}
	if s.Books, err = books.Stats(ctx); err != nil {
		return s, fmt.Errorf("book stats: %w", err)
	}
	if s.Subscribers, err = subs.CountActive(ctx); err != nil {
		return s, fmt.Errorf("count subscribers: %w", err)
	}
	return s, nil
}

// Stats returns content counts, total views and active subscribers.
func (c *Content) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := loadStats(r.Context(), c.posts, c.books, c.subscribers)
	if err != nil {
		writeStoreError(w, err, "load stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":       stats.Posts,
		"books":       stats.Books,
		"subscribers": stats.Subscribers,
		"totalViews":  stats.TotalViews(),
	})
}

// --- helpers ---

// changed drops every cached public page after a content write.
func (c *Content) changed(ctx context.Context) {
	c.pages.InvalidateAll(ctx)
}

// wantAll reads ?all=true, answering 401 when an anonymous caller asks.
func wantAll(w http.ResponseWriter, r *http.Request) (bool, bool) {
	if r.URL.Query().Get("all") != "true" {
		return false, true
	}
	if !middleware.IsAuthenticated(r) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false, false
	}
	return true, true
}

// parseID reads the {id} URL parameter.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// queryKey returns ?id= or, failing that, ?slug=.
func queryKey(r *http.Request) string {
	q := r.URL.Query()
	if id := q.Get("id"); id != "" {
		return id
	}
	return q.Get("slug")
}
