// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coachpress/internal/models"
)

const subscriberColumns = `id, email, active, locale, created_at, updated_at`

// SubscriberStore handles newsletter subscriber persistence.
type SubscriberStore struct {
	db *sql.DB
}

// NewSubscriberStore creates a new SubscriberStore.
func NewSubscriberStore(db *sql.DB) *SubscriberStore {
	return &SubscriberStore{db: db}
}

func scanSubscriber(scanner rowScanner) (*models.Subscriber, error) {
	var sub models.Subscriber
	if err := scanner.Scan(&sub.ID, &sub.Email, &sub.Active, &sub.Locale, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// NormalizeEmail lower-cases and trims an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Subscribe records a signup. It never creates a second row for the same
// address: an active subscriber is reported as already subscribed and an
// inactive one is reactivated.
func (s *SubscriberStore) Subscribe(ctx context.Context, email, locale string) (models.SubscribeResult, error) {
	email = NormalizeEmail(email)

	// A racing first signup waits on the unique index, inserts nothing and
	// falls through to the reactivation check below.
	var inserted bool
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO subscribers (email, locale, active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT ON CONSTRAINT subscribers_email_key DO NOTHING
		RETURNING TRUE
	`, email, locale).Scan(&inserted)
	if err == nil {
		return models.SubscribeCreated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("subscribe: %w", err)
	}

	// Only inactive rows match, so exactly one concurrent caller reactivates.
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscribers SET active = TRUE, locale = $2, updated_at = NOW()
		WHERE email = $1 AND NOT active
	`, email, locale)
	if err != nil {
		return "", fmt.Errorf("reactivate subscriber: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("reactivate subscriber rows: %w", err)
	}
	if n == 0 {
		return models.SubscribeAlready, nil
	}
	return models.SubscribeReactivated, nil
}

// Unsubscribe deactivates an address. The row is kept for reactivation.
func (s *SubscriberStore) Unsubscribe(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscribers SET active = FALSE, updated_at = NOW()
		WHERE email = $1
	`, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unsubscribe rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns every active subscriber, oldest first.
func (s *SubscriberStore) ListActive(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+subscriberColumns+` FROM subscribers
		WHERE active
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var items []models.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		items = append(items, *sub)
	}
	return items, rows.Err()
}

// CountActive returns the number of active subscribers.
func (s *SubscriberStore) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers WHERE active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return n, nil
}
