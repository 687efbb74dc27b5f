// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates an empty database with one draft post and one draft book
// so the admin dashboard has something to show in development.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT (SELECT COUNT(*) FROM posts) + (SELECT COUNT(*) FROM books)").Scan(&count); err != nil {
		return fmt.Errorf("seed check content: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO posts (title, slug, subtitle, content, excerpt, category, published)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`, "Welcome to the blog", "welcome-to-the-blog", "A first draft",
		"<p>Edit this post from the admin area, then publish it.</p>",
		"Edit this post from the admin area.", "news")
	if err != nil {
		return fmt.Errorf("seed insert post: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO books (title, slug, author, description, link, published)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`, "Atomic Habits", "atomic-habits", "James Clear",
		"An easy and proven way to build good habits and break bad ones.",
		"https://jamesclear.com/atomic-habits")
	if err != nil {
		return fmt.Errorf("seed insert book: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with sample draft content")
	return nil
}
