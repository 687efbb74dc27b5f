// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package mailer

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"coachpress/internal/i18n"
	"coachpress/internal/markdown"
	"coachpress/internal/models"
)

// perMessageTimeout bounds each newsletter email.
const perMessageTimeout = 20 * time.Second

// SubscriberLister lists the recipients of an announcement.
type SubscriberLister interface {
	ListActive(ctx context.Context) ([]models.Subscriber, error)
}

// Announcement describes newly published content.
type Announcement struct {
	Type    models.ContentType
	Title   string
	Slug    string
	Excerpt string
}

// Newsletter announces published posts and books to subscribers.
type Newsletter struct {
	sender   Sender
	subs     SubscriberLister
	siteName string
	siteURL  string
	wg       sync.WaitGroup
}

// NewNewsletter creates a newsletter dispatcher. siteURL is the absolute
// base used for links in emails.
func NewNewsletter(sender Sender, subs SubscriberLister, siteName, siteURL string) *Newsletter {
	return &Newsletter{
		sender:   sender,
		subs:     subs,
		siteName: siteName,
		siteURL:  strings.TrimRight(siteURL, "/"),
	}
}

// Dispatch sends the announcement in the background and returns at once.
// Failures are logged, never retried and never reported to the caller.
func (n *Newsletter) Dispatch(a Announcement) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sent, err := n.Send(context.Background(), a)
		if err != nil {
			slog.Error("newsletter dispatch failed", "error", err, "slug", a.Slug, "sent", sent)
			return
		}
		slog.Info("newsletter dispatched", "type", a.Type, "slug", a.Slug, "sent", sent)
	}()
}

// Wait blocks until every dispatched announcement has finished. Used on
// shutdown and in tests.
func (n *Newsletter) Wait() {
	n.wg.Wait()
}

// Send emails the announcement to every active subscriber, one message
// each in the subscriber's locale. Individual failures are logged and
// skipped; the count of delivered messages is returned.
func (n *Newsletter) Send(ctx context.Context, a Announcement) (int, error) {
	subs, err := n.subs.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscribers: %w", err)
	}

	sent := 0
	for _, sub := range subs {
		msg := n.compose(a, sub)
		msgCtx, cancel := context.WithTimeout(ctx, perMessageTimeout)
		err := n.sender.Send(msgCtx, msg)
		cancel()
		if err != nil {
			slog.Error("newsletter email failed", "error", err, "subscriber", sub.ID)
			continue
		}
		sent++
	}
	return sent, nil
}

// compose builds the localized email for one subscriber.
func (n *Newsletter) compose(a Announcement, sub models.Subscriber) Message {
	locale := i18n.Normalize(sub.Locale, i18n.English)

	subjectKey := "newsletter.post_subject"
	if a.Type == models.ContentTypeBook {
		subjectKey = "newsletter.book_subject"
	}

	link := fmt.Sprintf("%s/%s/%s/%s", n.siteURL, locale, a.Type.PathSegment(), url.PathEscape(a.Slug))
	unsubscribe := fmt.Sprintf("%s/%s/unsubscribe?email=%s", n.siteURL, locale, url.QueryEscape(sub.Email))

	var body strings.Builder
	fmt.Fprintf(&body, "## %s\n\n", a.Title)
	if a.Excerpt != "" {
		fmt.Fprintf(&body, "%s\n\n", a.Excerpt)
	}
	fmt.Fprintf(&body, "[%s](%s)\n\n---\n\n", i18n.T(locale, "newsletter.read_it"), link)
	fmt.Fprintf(&body, "%s · [%s](%s)\n", template.HTMLEscapeString(n.siteName), i18n.T(locale, "newsletter.unsubscribe"), unsubscribe)

	html, err := markdown.ToHTML(body.String())
	if err != nil {
		html = template.HTMLEscapeString(body.String())
	}

	text := a.Title + "\n\n"
	if a.Excerpt != "" {
		text += a.Excerpt + "\n\n"
	}
	text += link + "\n\n" + i18n.T(locale, "newsletter.unsubscribe") + ": " + unsubscribe + "\n"

	return Message{
		To:      []string{sub.Email},
		Subject: i18n.T(locale, subjectKey, a.Title),
		HTML:    html,
		Text:    text,
	}
}
