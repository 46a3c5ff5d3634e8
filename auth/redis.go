// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/VA7DBI/scholarAPI/config"
	"github.com/redis/go-redis/v9"
)

// RedisRegistry implements RevocationRegistry on a shared Redis instance so
// that revocations are visible across processes. Keys carry a TTL matching
// the token's remaining lifetime; Redis evicts them once the token would
// have expired on its own.
type RedisRegistry struct {
	client *redis.Client
	prefix string
}

func NewRedisRegistry(cfg *config.Config) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Auth.Registry.Redis.Host, cfg.Auth.Registry.Redis.Port),
		Password: cfg.Auth.Registry.Redis.Password,
		DB:       cfg.Auth.Registry.Redis.DB,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %v", err)
	}

	return &RedisRegistry{
		client: client,
		prefix: "revoked:",
	}, nil
}

func (r *RedisRegistry) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; verification fails on expiry without our help.
		return nil
	}
	return r.client.Set(ctx, r.prefix+tokenID, "1", ttl).Err()
}

func (r *RedisRegistry) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
