// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Book is an entry of the recommended-reading library. Link points to an
// external purchase page; Content is optional long-form HTML.
type Book struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Content     *string   `json:"content,omitempty"`
	CoverImage  string    `json:"coverImage"`
	Link        string    `json:"link"`
	Published   bool      `json:"published"`
	Views       int64     `json:"views"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasContent returns true if the book carries a long-form HTML body.
func (b *Book) HasContent() bool {
	return b.Content != nil && *b.Content != ""
}
