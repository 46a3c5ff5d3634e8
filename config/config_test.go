// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeTempConfig(t *testing.T, content string) string {
	tmpfile, err := os.CreateTemp("", "config.*.yaml")
	assert.NoError(t, err)
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	_, err = tmpfile.WriteString(content)
	assert.NoError(t, err)
	tmpfile.Close()

	return tmpfile.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `
server:
  host: testhost
  port: 9090

api:
  base_path: /api/v1
  swagger_host: test.api.com

environment: production

auth:
  secret_key: 0123456789abcdef0123456789abcdef
  access_ttl_minutes: 15
  refresh_ttl_days: 14
  registry:
    backend: redis
    redis:
      host: redis.internal
      port: 6380

database:
  host: db.internal
  user: scholar
  dbname: scholarapi

upload:
  max_file_size_mb: 10

metrics:
  enabled: true
  path: /metrics
`)

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "testhost", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/api/v1", cfg.API.BasePath)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 14*24*time.Hour, cfg.RefreshTokenTTL())
	assert.Equal(t, "redis", cfg.Auth.Registry.Backend)
	assert.Equal(t, 6380, cfg.Auth.Registry.Redis.Port)
	assert.Equal(t, int64(10), cfg.Upload.MaxFileSize)
	assert.Equal(t, true, cfg.Metrics.Enabled)
}

func TestDefaultValues(t *testing.T) {
	path := writeTempConfig(t, `{}`)

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/", cfg.API.BasePath)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL())
	assert.Equal(t, "memory", cfg.Auth.Registry.Backend)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "uploads", cfg.Storage.LocalDir)
	assert.Equal(t, "chroma", cfg.Vector.Backend)
	assert.Equal(t, "documents", cfg.Vector.Collection)
	assert.Equal(t, int64(50), cfg.Upload.MaxFileSize)
	assert.Equal(t, int64(100), cfg.Upload.MinFileSize)
	assert.Equal(t, 1000, cfg.Upload.ChunkSize)
	assert.Equal(t, 200, cfg.Upload.ChunkOverlap)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestEnvironmentOverlay(t *testing.T) {
	path := writeTempConfig(t, `
auth:
  secret_key: from-file
`)

	t.Setenv("SCHOLARAPI_AUTH_SECRET_KEY", "from-env-0123456789abcdef012345")
	t.Setenv("SCHOLARAPI_ENVIRONMENT", "production")

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)

	assert.Equal(t, "from-env-0123456789abcdef012345", cfg.Auth.SecretKey)
	assert.True(t, cfg.IsProduction())
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "db"
	cfg.Database.Port = 5432
	cfg.Database.User = "scholar"
	cfg.Database.Password = "pw"
	cfg.Database.DBName = "scholarapi"
	cfg.Database.SSLMode = "disable"

	assert.Equal(t,
		"host=db port=5432 user=scholar password=pw dbname=scholarapi sslmode=disable",
		cfg.DatabaseDSN())
}
