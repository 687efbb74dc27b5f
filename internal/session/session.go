// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides signed-token HTTP sessions. A session is an
// HS256 JWT carried in an HttpOnly cookie or an Authorization bearer
// header. Logged-out tokens are remembered in Valkey until they expire.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "cp_session"

	// DefaultTTL is how long an issued token stays valid.
	DefaultTTL = 7 * 24 * time.Hour

	issuer = "coachpress"
)

// ErrInvalidToken is returned for malformed, expired, forged or revoked tokens.
var ErrInvalidToken = errors.New("invalid session token")

// Data is the authenticated identity decoded from a token.
type Data struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Revoker remembers logged-out token IDs until they would expire anyway.
type Revoker interface {
	Revoke(ctx context.Context, id string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// Store issues and verifies session tokens.
type Store struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	revoker Revoker
	now     func() time.Time
}

// NewStore creates a session store signing with secret. secure marks the
// cookie HTTPS-only. revoker may be nil, in which case logout only clears
// the cookie.
func NewStore(secret []byte, secure bool, revoker Revoker) *Store {
	return &Store{
		secret:  secret,
		ttl:     DefaultTTL,
		secure:  secure,
		revoker: revoker,
		now:     time.Now,
	}
}

// Issue signs a new token for email.
func (s *Store) Issue(email string) (string, *Data, error) {
	now := s.now()
	data := &Data{
		ID:        uuid.NewString(),
		Email:     email,
		IssuedAt:  now.Truncate(time.Second),
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        data.ID,
		Subject:   email,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(data.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(data.ExpiresAt),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return signed, data, nil
}

// Create issues a token and sets it as the session cookie. Returns the
// signed token so API clients can use it as a bearer token.
func (s *Store) Create(w http.ResponseWriter, email string) (string, error) {
	token, _, err := s.Issue(email)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return token, nil
}

// Parse verifies a token and returns its identity.
func (s *Store) Parse(ctx context.Context, token string) (*Data, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}

	data := &Data{ID: claims.ID, Email: claims.Subject}
	if claims.IssuedAt != nil {
		data.IssuedAt = claims.IssuedAt.Time
	}
	data.ExpiresAt = claims.ExpiresAt.Time
	return data, nil
}

// Get returns the session carried by the request, or nil if there is none.
// The bearer header wins over the cookie.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, nil
	}
	return s.Parse(ctx, token)
}

// Destroy revokes the request's token and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})

	token := tokenFromRequest(r)
	if token == "" || s.revoker == nil {
		return nil
	}
	data, err := s.Parse(ctx, token)
	if err != nil {
		return nil // already unusable
	}
	ttl := data.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, data.ID, ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
