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

// bookColumns lists the columns selected in book queries.
const bookColumns = `id, title, slug, author, description, content, cover_image,
	link, published, views, created_at, updated_at`

// BookStore handles all book-related database operations. It mirrors
// PostStore for the book library.
type BookStore struct {
	db *sql.DB
}

// NewBookStore creates a new BookStore with the given database connection.
func NewBookStore(db *sql.DB) *BookStore {
	return &BookStore{db: db}
}

func scanBook(scanner rowScanner) (*models.Book, error) {
	var b models.Book
	err := scanner.Scan(
		&b.ID, &b.Title, &b.Slug, &b.Author, &b.Description, &b.Content, &b.CoverImage,
		&b.Link, &b.Published, &b.Views, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BookStore) queryBooks(ctx context.Context, query string, args ...any) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

// ListPublished returns published books, newest first.
func (s *BookStore) ListPublished(ctx context.Context) ([]models.Book, error) {
	items, err := s.queryBooks(ctx, `
		SELECT `+bookColumns+` FROM books
		WHERE published
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list published books: %w", err)
	}
	return items, nil
}

// ListAll returns every book including drafts, newest first.
func (s *BookStore) ListAll(ctx context.Context) ([]models.Book, error) {
	items, err := s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return items, nil
}

// FindBySlug retrieves a published book by slug. Returns nil if not found
// or not published.
func (s *BookStore) FindBySlug(ctx context.Context, slug string) (*models.Book, error) {
	return s.findOne(ctx, "find book by slug",
		`SELECT `+bookColumns+` FROM books WHERE slug = $1 AND published`, slug)
}

// FindBySlugAny retrieves a book by slug regardless of its published state.
func (s *BookStore) FindBySlugAny(ctx context.Context, slug string) (*models.Book, error) {
	return s.findOne(ctx, "find book by slug",
		`SELECT `+bookColumns+` FROM books WHERE slug = $1`, slug)
}

// FindByID retrieves a book by its UUID regardless of its published state.
func (s *BookStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return s.findOne(ctx, "find book by id",
		`SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
}

func (s *BookStore) findOne(ctx context.Context, op, query string, args ...any) (*models.Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// Create inserts a new book. A taken slug yields ErrDuplicateSlug.
func (s *BookStore) Create(ctx context.Context, b *models.Book) (*models.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO books (title, slug, author, description, content, cover_image, link, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+bookColumns,
		b.Title, b.Slug, b.Author, b.Description, b.Content, b.CoverImage, b.Link, b.Published,
	)
	created, err := scanBook(row)
	if isUniqueViolation(err, "books_slug_key") {
		return nil, ErrDuplicateSlug
	}
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return created, nil
}

// Update overwrites the editable fields of the book identified by b.ID and
// reports whether it was published before.
func (s *BookStore) Update(ctx context.Context, b *models.Book) (*models.Book, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("update book begin: %w", err)
	}
	defer tx.Rollback()

	var wasPublished bool
	err = tx.QueryRowContext(ctx, `SELECT published FROM books WHERE id = $1 FOR UPDATE`, b.ID).Scan(&wasPublished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("update book lock: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE books SET
			title = $1, slug = $2, author = $3, description = $4, content = $5,
			cover_image = $6, link = $7, published = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING `+bookColumns,
		b.Title, b.Slug, b.Author, b.Description, b.Content,
		b.CoverImage, b.Link, b.Published, b.ID,
	)
	updated, err := scanBook(row)
	if isUniqueViolation(err, "books_slug_key") {
		return nil, false, ErrDuplicateSlug
	}
	if err != nil {
		return nil, false, fmt.Errorf("update book: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("update book commit: %w", err)
	}
	return updated, wasPublished, nil
}

// SetPublished flips the published flag and returns the stored book and its
// previous state.
func (s *BookStore) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Book, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		WITH prev AS (SELECT id, published FROM books WHERE id = $1 FOR UPDATE)
		UPDATE books SET published = $2, updated_at = NOW()
		FROM prev WHERE books.id = prev.id
		RETURNING prev.published, books.id, books.title, books.slug, books.author,
			books.description, books.content, books.cover_image, books.link,
			books.published, books.views, books.created_at, books.updated_at
	`, id, published)

	var (
		b            models.Book
		wasPublished bool
	)
	err := row.Scan(&wasPublished,
		&b.ID, &b.Title, &b.Slug, &b.Author, &b.Description, &b.Content, &b.CoverImage,
		&b.Link, &b.Published, &b.Views, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("set book published: %w", err)
	}
	return &b, wasPublished, nil
}

// Delete removes a book by ID and returns the deleted row.
func (s *BookStore) Delete(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return s.deleteOne(ctx, `DELETE FROM books WHERE id = $1 RETURNING `+bookColumns, id)
}

// DeleteBySlug removes a book by slug and returns the deleted row.
func (s *BookStore) DeleteBySlug(ctx context.Context, slug string) (*models.Book, error) {
	return s.deleteOne(ctx, `DELETE FROM books WHERE slug = $1 RETURNING `+bookColumns, slug)
}

func (s *BookStore) deleteOne(ctx context.Context, query string, arg any) (*models.Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete book: %w", err)
	}
	return b, nil
}

// IncrementViews atomically adds one view to a published book.
func (s *BookStore) IncrementViews(ctx context.Context, slug string) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE books SET views = views + 1
		WHERE slug = $1 AND published
		RETURNING views
	`, slug).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment book views: %w", err)
	}
	return views, nil
}

// Stats returns the total and published book counts plus the summed views.
func (s *BookStore) Stats(ctx context.Context) (models.ContentStats, error) {
	var st models.ContentStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE published), COALESCE(SUM(views), 0)
		FROM books
	`).Scan(&st.Total, &st.Published, &st.Views)
	if err != nil {
		return st, fmt.Errorf("book stats: %w", err)
	}
	return st, nil
}
