// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	API struct {
		BasePath    string `yaml:"base_path"`
		SwaggerHost string `yaml:"swagger_host"`
	} `yaml:"api"`

	Environment string `yaml:"environment" envconfig:"ENVIRONMENT"`

	Auth struct {
		SecretKey        string `yaml:"secret_key" envconfig:"AUTH_SECRET_KEY"`
		Algorithm        string `yaml:"algorithm"`
		AccessTTLMinutes int    `yaml:"access_ttl_minutes"`
		RefreshTTLDays   int    `yaml:"refresh_ttl_days"`
		CookieSecure     bool   `yaml:"cookie_secure"`
		Registry         struct {
			Backend string `yaml:"backend"` // "memory" or "redis"
			Redis   struct {
				Host     string `yaml:"host"`
				Port     int    `yaml:"port"`
				DB       int    `yaml:"db"`
				Password string `yaml:"password" envconfig:"AUTH_REDIS_PASSWORD"`
			} `yaml:"redis"`
		} `yaml:"registry"`
	} `yaml:"auth"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password" envconfig:"DATABASE_PASSWORD"`
		DBName   string `yaml:"dbname"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	Storage struct {
		Backend  string `yaml:"backend"` // "local" or "s3"
		LocalDir string `yaml:"local_dir"`
		S3       struct {
			Bucket    string `yaml:"bucket"`
			Region    string `yaml:"region"`
			Prefix    string `yaml:"prefix"`
			Endpoint  string `yaml:"endpoint"` // non-AWS S3 (MinIO etc.)
			AccessKey string `yaml:"access_key" envconfig:"S3_ACCESS_KEY"`
			SecretKey string `yaml:"secret_key" envconfig:"S3_SECRET_KEY"`
		} `yaml:"s3"`
	} `yaml:"storage"`

	Vector struct {
		Backend    string `yaml:"backend"` // "chroma" or "memory"
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		Collection string `yaml:"collection"`
	} `yaml:"vector"`

	OpenAI struct {
		APIKey         string `yaml:"api_key" envconfig:"OPENAI_API_KEY"`
		BaseURL        string `yaml:"base_url"`
		ChatModel      string `yaml:"chat_model"`
		EmbeddingModel string `yaml:"embedding_model"`
	} `yaml:"openai"`

	Upload struct {
		MaxFileSize  int64 `yaml:"max_file_size_mb"`
		MinFileSize  int64 `yaml:"min_file_size_bytes"`
		ChunkSize    int   `yaml:"chunk_size"`
		ChunkOverlap int   `yaml:"chunk_overlap"`
	} `yaml:"upload"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// LoadConfig reads the YAML file, overlays SCHOLARAPI_* environment
// variables on top (for secrets that should not live in the file), and
// fills in defaults for anything left unset.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	if err := envconfig.Process("scholarapi", config); err != nil {
		return nil, fmt.Errorf("error reading environment overrides: %v", err)
	}

	config.ApplyDefaults()
	return config, nil
}

// ApplyDefaults fills in every unset field with its default value.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.API.BasePath == "" {
		c.API.BasePath = "/"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Auth.Algorithm == "" {
		c.Auth.Algorithm = "HS256"
	}
	if c.Auth.AccessTTLMinutes == 0 {
		c.Auth.AccessTTLMinutes = 30
	}
	if c.Auth.RefreshTTLDays == 0 {
		c.Auth.RefreshTTLDays = 7
	}
	if c.Auth.Registry.Backend == "" {
		c.Auth.Registry.Backend = "memory"
	}
	if c.Auth.Registry.Redis.Port == 0 {
		c.Auth.Registry.Redis.Port = 6379
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "local"
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "uploads"
	}
	if c.Vector.Backend == "" {
		c.Vector.Backend = "chroma"
	}
	if c.Vector.Port == 0 {
		c.Vector.Port = 8000
	}
	if c.Vector.Collection == "" {
		c.Vector.Collection = "documents"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = 50
	}
	if c.Upload.MinFileSize == 0 {
		c.Upload.MinFileSize = 100
	}
	if c.Upload.ChunkSize == 0 {
		c.Upload.ChunkSize = 1000
	}
	if c.Upload.ChunkOverlap == 0 {
		c.Upload.ChunkOverlap = 200
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// IsProduction reports whether weak-key enforcement and secure cookies
// should be strict.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AccessTokenTTL returns the configured access token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Auth.AccessTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.Auth.RefreshTTLDays) * 24 * time.Hour
}

// DatabaseDSN builds the lib/pq connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}
