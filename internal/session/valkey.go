// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces revoked token IDs in Valkey.
const keyPrefix = "session:revoked:"

// ValkeyRevoker stores revoked token IDs in Valkey with a TTL matching
// the token's remaining lifetime.
type ValkeyRevoker struct {
	client *redis.Client
}

// NewValkeyRevoker creates a revoker backed by the given Valkey client.
func NewValkeyRevoker(client *redis.Client) *ValkeyRevoker {
	return &ValkeyRevoker{client: client}
}

// Revoke marks id as logged out for ttl.
func (v *ValkeyRevoker) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	if err := v.client.Set(ctx, keyPrefix+id, "1", ttl).Err(); err != nil {
		return fmt.Errorf("session revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether id was logged out.
func (v *ValkeyRevoker) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := v.client.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("session lookup: %w", err)
	}
	return n > 0, nil
}
