// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"coachpress/internal/auth"
	"coachpress/internal/middleware"
	"coachpress/internal/render"
)

// Operator checks the single admin identity.
type Operator interface {
	Email() string
	TOTPEnabled() bool
	Check(email, password, code string) error
	TOTPQRCode() ([]byte, error)
}

// Sessions issues and revokes session tokens.
type Sessions interface {
	Create(w http.ResponseWriter, email string) (string, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Auth groups login, logout and session handlers.
type Auth struct {
	renderer *render.Renderer
	sessions Sessions
	operator Operator
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions Sessions, operator Operator) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		operator: operator,
	}
}

// LoginPage renders the login form, or sends a signed-in operator to the
// dashboard.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAuthenticated(r) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	a.renderer.Admin(w, r, "login", &render.PageData{
		Title: "Sign In",
		Data:  map[string]any{"TOTP": a.operator.TOTPEnabled()},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// Login checks the operator credentials and starts a session. The token is
// set as a cookie and also returned for bearer use.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := a.operator.Check(req.Email, req.Password, req.Code); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Error("login check failed", "error", err)
		}
		slog.Warn("login rejected", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token, err := a.sessions.Create(w, a.operator.Email())
	if err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	slog.Info("operator signed in", "email", a.operator.Email())
	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"email": a.operator.Email(),
	})
}

// Logout revokes the current token and clears the cookie.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Session reports whether the request carries a valid session.
func (a *Auth) Session(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"email":         sess.Email,
		"expiresAt":     sess.ExpiresAt,
	})
}

// TOTPQRCode serves the authenticator enrolment QR code.
func (a *Auth) TOTPQRCode(w http.ResponseWriter, r *http.Request) {
	if !a.operator.TOTPEnabled() {
		writeError(w, http.StatusNotFound, "TOTP is not enabled")
		return
	}
	png, err := a.operator.TOTPQRCode()
	if err != nil {
		slog.Error("totp qr failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}
