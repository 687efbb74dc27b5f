// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber is a newsletter recipient. Unsubscribing flips Active to
// false; the row is kept so a later signup reactivates it.
type Subscriber struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	Locale    string    `json:"locale"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SubscribeResult describes what a signup did to the subscriber table.
type SubscribeResult string

const (
	SubscribeCreated     SubscribeResult = "subscribed"
	SubscribeAlready     SubscribeResult = "already_subscribed"
	SubscribeReactivated SubscribeResult = "reactivated"
)
