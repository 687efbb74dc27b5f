// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"coachpress/internal/i18n"
	"coachpress/internal/mailer"
	"coachpress/internal/middleware"
	"coachpress/internal/models"
	"coachpress/internal/render"
	"coachpress/internal/store"
)

// subscribeMessages maps a subscribe outcome to its translation key.
var subscribeMessages = map[models.SubscribeResult]string{
	models.SubscribeCreated:     "newsletter.subscribed",
	models.SubscribeAlready:     "newsletter.already",
	models.SubscribeReactivated: "newsletter.reactivated",
}

type subscribeRequest struct {
	Email  string `json:"email"`
	Locale string `json:"locale"`
}

// Subscribe adds an email to the newsletter. Repeating it is harmless:
// an active address reports already_subscribed and an inactive one is
// reactivated.
func (p *Public) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	locale := i18n.Normalize(req.Locale, p.defaultLocale)
	email := store.NormalizeEmail(req.Email)
	if !validEmail(email) {
		writeError(w, http.StatusBadRequest, i18n.T(locale, "newsletter.invalid"))
		return
	}

	result, err := p.subscribers.Subscribe(r.Context(), email, locale)
	if err != nil {
		writeStoreError(w, err, "subscribe")
		return
	}

	status := http.StatusOK
	if result == models.SubscribeCreated {
		status = http.StatusCreated
		slog.Info("newsletter subscriber added", "locale", locale)
	}
	writeJSON(w, status, map[string]string{
		"status":  string(result),
		"message": i18n.T(locale, subscribeMessages[result]),
	})
}

// Unsubscribe deactivates an email.
func (p *Public) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	locale := i18n.Normalize(req.Locale, p.defaultLocale)
	email := store.NormalizeEmail(req.Email)
	if !validEmail(email) {
		writeError(w, http.StatusBadRequest, i18n.T(locale, "newsletter.invalid"))
		return
	}

	if err := p.subscribers.Unsubscribe(r.Context(), email); err != nil {
		writeStoreError(w, err, "unsubscribe")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "unsubscribed",
		"message": i18n.T(locale, "newsletter.unsubscribed"),
	})
}

// UnsubscribePage handles the link in newsletter emails. Unknown addresses
// get the same answer as known ones.
func (p *Public) UnsubscribePage(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromCtx(r.Context())
	email := store.NormalizeEmail(r.URL.Query().Get("email"))
	data := &render.PageData{
		Title:  i18n.T(locale, "newsletter.unsubscribe"),
		Locale: locale,
		Path:   "/unsubscribe",
	}

	if !validEmail(email) {
		data.Data = map[string]any{"Message": i18n.T(locale, "newsletter.invalid")}
		p.renderer.Public(w, r, http.StatusBadRequest, "unsubscribe", data)
		return
	}

	err := p.subscribers.Unsubscribe(r.Context(), email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("unsubscribe failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	data.Data = map[string]any{"Message": i18n.T(locale, "newsletter.unsubscribed")}
	p.renderer.Public(w, r, http.StatusOK, "unsubscribe", data)
}

// SendContact forwards a contact form message to the operator.
func (p *Public) SendContact(w http.ResponseWriter, r *http.Request) {
	var req mailer.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Locale = i18n.Normalize(req.Locale, p.defaultLocale)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	if req.Name == "" || utf8.RuneCountInString(req.Name) > maxNameLen ||
		!validEmail(req.Email) ||
		req.Message == "" || utf8.RuneCountInString(req.Message) > maxMessageLen {
		writeError(w, http.StatusBadRequest, i18n.T(req.Locale, "contact.invalid"))
		return
	}

	if err := p.sender.Send(r.Context(), mailer.ContactMessage(p.contactTo, req)); err != nil {
		slog.Error("contact send failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "sent",
		"message": i18n.T(req.Locale, "contact.sent"),
	})
}
