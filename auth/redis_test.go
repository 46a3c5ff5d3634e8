// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/VA7DBI/scholarAPI/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func setupRedisTest(t *testing.T) (*RedisRegistry, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Auth.Registry.Redis.Host = mr.Host()
	cfg.Auth.Registry.Redis.Port = mr.Server().Addr().Port

	registry, err := NewRedisRegistry(cfg)
	assert.NoError(t, err)
	t.Cleanup(func() { registry.Close() })

	return registry, mr
}

func TestRedisRegistry(t *testing.T) {
	registry, mr := setupRedisTest(t)
	ctx := context.Background()

	t.Run("UnknownIDNotRevoked", func(t *testing.T) {
		revoked, err := registry.IsRevoked(ctx, "never-seen")
		assert.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("RevokeThenCheck", func(t *testing.T) {
		err := registry.Revoke(ctx, "token-1", time.Now().Add(time.Hour))
		assert.NoError(t, err)

		revoked, err := registry.IsRevoked(ctx, "token-1")
		assert.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("EntryEvictedAtTokenExpiry", func(t *testing.T) {
		err := registry.Revoke(ctx, "token-2", time.Now().Add(time.Second))
		assert.NoError(t, err)

		mr.FastForward(2 * time.Second)

		revoked, err := registry.IsRevoked(ctx, "token-2")
		assert.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("AlreadyExpiredTokenNotStored", func(t *testing.T) {
		// Verification rejects it as expired anyway; no key is written.
		err := registry.Revoke(ctx, "token-3", time.Now().Add(-time.Minute))
		assert.NoError(t, err)

		revoked, err := registry.IsRevoked(ctx, "token-3")
		assert.NoError(t, err)
		assert.False(t, revoked)
	})
}
