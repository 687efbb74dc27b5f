// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth verifies the credentials of the single site operator. The
// identity lives in configuration, not in the database: an email address,
// a bcrypt password hash and an optional TOTP secret.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for any failed login. The caller
	// cannot tell which factor was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTOTPDisabled is returned when enrolment data is requested but no
	// TOTP secret is configured.
	ErrTOTPDisabled = errors.New("totp not configured")
)

// Operator is the configured administrator identity.
type Operator struct {
	email      string
	hash       []byte
	totpSecret string
	issuer     string
}

// NewOperator builds the operator identity. passwordHash is a bcrypt hash;
// when it is empty the plain password is hashed once at startup instead.
// issuer names the site in authenticator apps.
func NewOperator(email, passwordHash, password, totpSecret, issuer string) (*Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("operator email is required")
	}

	var hash []byte
	switch {
	case passwordHash != "":
		hash = []byte(passwordHash)
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("parse password hash: %w", err)
		}
	case password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	default:
		return nil, errors.New("operator password or password hash is required")
	}

	return &Operator{
		email:      email,
		hash:       hash,
		totpSecret: strings.TrimSpace(totpSecret),
		issuer:     issuer,
	}, nil
}

// Email returns the normalized operator email.
func (o *Operator) Email() string {
	return o.email
}

// TOTPEnabled reports whether a second factor is required at login.
func (o *Operator) TOTPEnabled() bool {
	return o.totpSecret != ""
}

// Check validates a login attempt. The password hash is always compared so
// a wrong email costs the same as a wrong password.
func (o *Operator) Check(email, password, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(o.email)) == 1
	passOK := bcrypt.CompareHashAndPassword(o.hash, []byte(password)) == nil

	if !emailOK || !passOK {
		return ErrInvalidCredentials
	}
	if o.TOTPEnabled() && !totp.Validate(strings.TrimSpace(code), o.totpSecret) {
		return ErrInvalidCredentials
	}
	return nil
}

// ProvisioningURI returns the otpauth:// URI for authenticator apps.
func (o *Operator) ProvisioningURI() (string, error) {
	if !o.TOTPEnabled() {
		return "", ErrTOTPDisabled
	}
	label := url.PathEscape(o.issuer + ":" + o.email)
	q := url.Values{}
	q.Set("secret", o.totpSecret)
	q.Set("issuer", o.issuer)
	return "otpauth://totp/" + label + "?" + q.Encode(), nil
}

// TOTPQRCode renders the provisioning URI as a 256px PNG QR code.
func (o *Operator) TOTPQRCode() ([]byte, error) {
	uri, err := o.ProvisioningURI()
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode totp qr: %w", err)
	}
	return png, nil
}
