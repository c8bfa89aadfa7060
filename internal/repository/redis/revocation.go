package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/security"
)

const defaultRevocationPrefix = "rentspot:revoked"

// RevocationRepository keeps revoked access tokens in Redis so every replica shares them.
// Keys hold the token digest and expire after the access-token lifetime.
type RevocationRepository struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewRevocationRepository wires a Redis client into a revocation repository.
func NewRevocationRepository(client *red.Client, keyPrefix string, ttl time.Duration) *RevocationRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}

	return &RevocationRepository{client: client, prefix: prefix, ttl: ttl}
}

// Revoke stores the token digest until the TTL elapses. Revoking again restarts the TTL.
func (r *RevocationRepository) Revoke(ctx context.Context, token string) error {
	if r.ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := r.key(token)
	if key == "" {
		return errors.New("token must not be empty")
	}

	if err := r.client.Set(ctx, key, time.Now().UTC().Unix(), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked token: %w", err)
	}

	return nil
}

// IsRevoked reports whether the token digest is present.
func (r *RevocationRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	key := r.key(token)
	if key == "" {
		return false, nil
	}

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists revoked token: %w", err)
	}

	return n > 0, nil
}

func (r *RevocationRepository) key(token string) string {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.prefix, security.HashToken(trimmed))
}

var _ port.RevocationStore = (*RevocationRepository)(nil)
