// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package storage holds uploaded document blobs. The backend (local
// filesystem or S3) is picked by configuration; callers only see the
// interface.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/VA7DBI/scholarAPI/config"
)

// Storage saves and retrieves document blobs by an opaque path returned
// from Save.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// New builds the storage backend named in the configuration.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Backend {
	case "local":
		return NewLocalStorage(cfg.Storage.LocalDir)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
