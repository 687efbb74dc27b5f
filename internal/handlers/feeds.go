// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"time"

	"coachpress/internal/i18n"
	"coachpress/internal/models"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Category    string `xml:"category,omitempty"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Feed serves an RSS 2.0 feed of published posts, linked in the default
// locale.
func (p *Public) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := p.posts.ListPublished(r.Context())
	if err != nil {
		slog.Error("feed posts failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	items := make([]rssItem, 0, len(posts))
	for _, post := range posts {
		link := p.contentURL(p.defaultLocale, models.ContentTypePost, post.Slug)
		items = append(items, rssItem{
			Title:       post.Title,
			Link:        link,
			Description: post.Summary(),
			Category:    post.Category,
			PubDate:     post.CreatedAt.UTC().Format(time.RFC1123Z),
			GUID:        link,
		})
	}

	writeXML(w, "application/rss+xml; charset=utf-8", rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       p.siteName,
			Link:        p.siteURL + "/" + p.defaultLocale,
			Description: i18n.T(p.defaultLocale, "home.intro"),
			Language:    p.defaultLocale,
			Items:       items,
		},
	})
}

// Sitemap lists every public page and published item in both locales.
func (p *Public) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	posts, err := p.posts.ListPublished(ctx)
	if err != nil {
		slog.Error("sitemap posts failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	books, err := p.books.ListPublished(ctx)
	if err != nil {
		slog.Error("sitemap books failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var urls []sitemapURL
	for _, locale := range i18n.Locales() {
		base := p.siteURL + "/" + locale
		urls = append(urls, sitemapURL{Loc: base})
		for _, section := range []string{"/blog", "/books", "/programs", "/contact"} {
			urls = append(urls, sitemapURL{Loc: base + section})
		}
		for _, post := range posts {
			urls = append(urls, sitemapURL{
				Loc:     p.contentURL(locale, models.ContentTypePost, post.Slug),
				LastMod: post.UpdatedAt.UTC().Format(time.DateOnly),
			})
		}
		for _, book := range books {
			urls = append(urls, sitemapURL{
				Loc:     p.contentURL(locale, models.ContentTypeBook, book.Slug),
				LastMod: book.UpdatedAt.UTC().Format(time.DateOnly),
			})
		}
	}

	writeXML(w, "application/xml; charset=utf-8", sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}

func (p *Public) contentURL(locale string, t models.ContentType, slug string) string {
	return p.siteURL + "/" + locale + "/" + t.PathSegment() + "/" + slug
}

func writeXML(w http.ResponseWriter, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode xml failed", "error", err)
	}
}
