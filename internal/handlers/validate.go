// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"coachpress/internal/slug"
)

// Validation limits for content fields.
const (
	maxTitleLen    = 300
	maxShortLen    = 300
	maxBodyLen     = 500_000
	maxExcerptLen  = 1_000
	maxMetaDescLen = 500
	maxDescLen     = 5_000
	maxNameLen     = 200
	maxMessageLen  = 5_000
)

// postInput is the admin client's post payload. Published is a pointer so
// an update without it leaves the flag alone.
type postInput struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Subtitle        string `json:"subtitle"`
	Content         string `json:"content"`
	Excerpt         string `json:"excerpt"`
	MetaDescription string `json:"metaDescription"`
	Category        string `json:"category"`
	FeaturedImage   string `json:"featuredImage"`
	Published       *bool  `json:"published"`
}

// bookInput is the admin client's book payload.
type bookInput struct {
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Author      string  `json:"author"`
	Description string  `json:"description"`
	Content     *string `json:"content"`
	CoverImage  string  `json:"coverImage"`
	Link        string  `json:"link"`
	Published   *bool   `json:"published"`
}

// normalize trims the payload and derives a missing slug from the title.
func (in *postInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = slug.Generate(in.Title)
	}
	in.Subtitle = strings.TrimSpace(in.Subtitle)
	in.Category = strings.TrimSpace(in.Category)
	in.FeaturedImage = strings.TrimSpace(in.FeaturedImage)
}

func (in *bookInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = slug.Generate(in.Title)
	}
	in.Author = strings.TrimSpace(in.Author)
	in.CoverImage = strings.TrimSpace(in.CoverImage)
	in.Link = strings.TrimSpace(in.Link)
}

// validate returns the first problem with a post payload, or "".
func (in *postInput) validate() string {
	if msg := validateTitleSlug(in.Title, in.Slug); msg != "" {
		return msg
	}
	if strings.TrimSpace(in.Content) == "" {
		return "Content is required."
	}
	switch {
	case utf8.RuneCountInString(in.Content) > maxBodyLen:
		return "Content is too long (max 500,000 characters)."
	case utf8.RuneCountInString(in.Subtitle) > maxShortLen:
		return "Subtitle is too long (max 300 characters)."
	case utf8.RuneCountInString(in.Category) > maxShortLen:
		return "Category is too long (max 300 characters)."
	case utf8.RuneCountInString(in.Excerpt) > maxExcerptLen:
		return "Excerpt is too long (max 1,000 characters)."
	case utf8.RuneCountInString(in.MetaDescription) > maxMetaDescLen:
		return "Meta description is too long (max 500 characters)."
	}
	return validateURL("Featured image", in.FeaturedImage)
}

// validate returns the first problem with a book payload, or "".
func (in *bookInput) validate() string {
	if msg := validateTitleSlug(in.Title, in.Slug); msg != "" {
		return msg
	}
	if in.Author == "" {
		return "Author is required."
	}
	switch {
	case utf8.RuneCountInString(in.Author) > maxShortLen:
		return "Author is too long (max 300 characters)."
	case utf8.RuneCountInString(in.Description) > maxDescLen:
		return "Description is too long (max 5,000 characters)."
	case in.Content != nil && utf8.RuneCountInString(*in.Content) > maxBodyLen:
		return "Content is too long (max 500,000 characters)."
	}
	if msg := validateURL("Cover image", in.CoverImage); msg != "" {
		return msg
	}
	return validateURL("Link", in.Link)
}

func validateTitleSlug(title, s string) string {
	switch {
	case title == "":
		return "Title is required."
	case utf8.RuneCountInString(title) > maxTitleLen:
		return "Title is too long (max 300 characters)."
	case s == "":
		return "Slug is required."
	case !slug.Valid(s):
		return "Slug may only contain lowercase letters, digits and single hyphens."
	}
	return ""
}

// validateURL accepts an empty value, a site-relative path or an http(s) URL.
func validateURL(field, raw string) string {
	if raw == "" || strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return field + " must be an http(s) URL."
	}
	return ""
}

// validEmail reports whether s is a single bare email address.
func validEmail(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
