// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"coachpress/internal/models"
)

// postColumns lists the columns selected in post queries.
const postColumns = `id, title, slug, subtitle, content, excerpt, meta_description,
	category, featured_image, published, views, created_at, updated_at`

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// scanPost scans a post row from the result set.
func scanPost(scanner rowScanner) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Subtitle, &p.Content, &p.Excerpt, &p.MetaDescription,
		&p.Category, &p.FeaturedImage, &p.Published, &p.Views, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// queryPosts runs a SELECT returning post rows.
func (s *PostStore) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// ListPublished returns published posts, newest first. Used by public routes.
func (s *PostStore) ListPublished(ctx context.Context) ([]models.Post, error) {
	items, err := s.queryPosts(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE published
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	return items, nil
}

// ListAll returns every post including drafts, newest first. Admin only.
func (s *PostStore) ListAll(ctx context.Context) ([]models.Post, error) {
	items, err := s.queryPosts(ctx, `
		SELECT `+postColumns+` FROM posts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return items, nil
}

// FindBySlug retrieves a published post by slug. Returns nil if not found
// or not published.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, "find post by slug",
		`SELECT `+postColumns+` FROM posts WHERE slug = $1 AND published`, slug)
}

// FindBySlugAny retrieves a post by slug regardless of its published state.
func (s *PostStore) FindBySlugAny(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, "find post by slug",
		`SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)
}

// FindByID retrieves a post by its UUID regardless of its published state.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.findOne(ctx, "find post by id",
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
}

func (s *PostStore) findOne(ctx context.Context, op, query string, args ...any) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Create inserts a new post and returns it with the generated ID and
// timestamps. A taken slug yields ErrDuplicateSlug.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, subtitle, content, excerpt, meta_description,
			category, featured_image, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Subtitle, p.Content, p.Excerpt, p.MetaDescription,
		p.Category, p.FeaturedImage, p.Published,
	)
	created, err := scanPost(row)
	if isUniqueViolation(err, "posts_slug_key") {
		return nil, ErrDuplicateSlug
	}
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// Update overwrites the editable fields of the post identified by p.ID.
// Views and created_at are never touched. It returns the stored post and
// whether it was published before the update, so callers can detect the
// draft-to-published transition.
func (s *PostStore) Update(ctx context.Context, p *models.Post) (*models.Post, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("update post begin: %w", err)
	}
	defer tx.Rollback()

	var wasPublished bool
	err = tx.QueryRowContext(ctx, `SELECT published FROM posts WHERE id = $1 FOR UPDATE`, p.ID).Scan(&wasPublished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("update post lock: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, subtitle = $3, content = $4, excerpt = $5,
			meta_description = $6, category = $7, featured_image = $8, published = $9,
			updated_at = NOW()
		WHERE id = $10
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Subtitle, p.Content, p.Excerpt,
		p.MetaDescription, p.Category, p.FeaturedImage, p.Published, p.ID,
	)
	updated, err := scanPost(row)
	if isUniqueViolation(err, "posts_slug_key") {
		return nil, false, ErrDuplicateSlug
	}
	if err != nil {
		return nil, false, fmt.Errorf("update post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("update post commit: %w", err)
	}
	return updated, wasPublished, nil
}

// SetPublished flips the published flag without touching any other field.
// Repeating the same call is a no-op apart from updated_at. Returns the
// stored post and its previous published state.
func (s *PostStore) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Post, bool, error) {
	var wasPublished bool
	row := s.db.QueryRowContext(ctx, `
		WITH prev AS (SELECT id, published FROM posts WHERE id = $1 FOR UPDATE)
		UPDATE posts SET published = $2, updated_at = NOW()
		FROM prev WHERE posts.id = prev.id
		RETURNING prev.published, posts.id, posts.title, posts.slug, posts.subtitle,
			posts.content, posts.excerpt, posts.meta_description, posts.category,
			posts.featured_image, posts.published, posts.views, posts.created_at, posts.updated_at
	`, id, published)

	var p models.Post
	err := row.Scan(&wasPublished,
		&p.ID, &p.Title, &p.Slug, &p.Subtitle, &p.Content, &p.Excerpt, &p.MetaDescription,
		&p.Category, &p.FeaturedImage, &p.Published, &p.Views, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("set post published: %w", err)
	}
	return &p, wasPublished, nil
}

// Delete removes a post by ID and returns the deleted row.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.deleteOne(ctx, `DELETE FROM posts WHERE id = $1 RETURNING `+postColumns, id)
}

// DeleteBySlug removes a post by slug and returns the deleted row.
func (s *PostStore) DeleteBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.deleteOne(ctx, `DELETE FROM posts WHERE slug = $1 RETURNING `+postColumns, slug)
}

func (s *PostStore) deleteOne(ctx context.Context, query string, arg any) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete post: %w", err)
	}
	return p, nil
}

// IncrementViews atomically adds one view to a published post and returns
// the new count. Concurrent calls never lose the row's existing count.
func (s *PostStore) IncrementViews(ctx context.Context, slug string) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE posts SET views = views + 1
		WHERE slug = $1 AND published
		RETURNING views
	`, slug).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment post views: %w", err)
	}
	return views, nil
}

// Stats returns the total and published post counts plus the summed views.
func (s *PostStore) Stats(ctx context.Context) (models.ContentStats, error) {
	var st models.ContentStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE published), COALESCE(SUM(views), 0)
		FROM posts
	`).Scan(&st.Total, &st.Published, &st.Views)
	if err != nil {
		return st, fmt.Errorf("post stats: %w", err)
	}
	return st, nil
}
