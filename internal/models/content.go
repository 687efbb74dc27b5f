// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

// ContentType distinguishes the two publishable entities. It is the "type"
// field of view-tracking requests and the key of per-type helpers.
type ContentType string

const (
	ContentTypePost ContentType = "post"
	ContentTypeBook ContentType = "book"
)

// Valid reports whether t names a known content type.
func (t ContentType) Valid() bool {
	return t == ContentTypePost || t == ContentTypeBook
}

// PathSegment returns the public URL segment for the type ("blog" or "books").
func (t ContentType) PathSegment() string {
	if t == ContentTypeBook {
		return "books"
	}
	return "blog"
}

// ContentStats aggregates a table for the admin dashboard.
type ContentStats struct {
	Total     int   `json:"total"`
	Published int   `json:"published"`
	Views     int64 `json:"views"`
}
