// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog article. Content holds the HTML produced by the admin
// rich-text editor.
type Post struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Subtitle        string    `json:"subtitle"`
	Content         string    `json:"content"`
	Excerpt         string    `json:"excerpt"`
	MetaDescription string    `json:"metaDescription"`
	Category        string    `json:"category"`
	FeaturedImage   string    `json:"featuredImage"`
	Published       bool      `json:"published"`
	Views           int64     `json:"views"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Summary returns the excerpt, falling back to the meta description.
func (p *Post) Summary() string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	return p.MetaDescription
}
