// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package vector stores embedded document chunks for semantic search.
package vector

import (
	"context"
	"fmt"

	"github.com/VA7DBI/scholarAPI/config"
)

// Chunk is one embedded slice of a document.
type Chunk struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"embedding"`
	Metadata  map[string]string `json:"metadata"`
}

// Result is a search hit. Score is cosine similarity in [-1, 1]; higher
// is closer.
type Result struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Store is the vector database contract. Filters match chunk metadata
// exactly; handlers use them to scope searches to one user's documents.
type Store interface {
	Add(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, embedding []float32, limit int, filter map[string]string) ([]Result, error)
	DeleteByDocument(ctx context.Context, documentID string) error
	Health(ctx context.Context) error
}

// Embedder turns texts into embedding vectors. One call embeds a batch;
// the output is index-aligned with the input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the vector store backend named in the configuration.
func New(cfg *config.Config) (Store, error) {
	switch cfg.Vector.Backend {
	case "chroma":
		return NewChromaStore(cfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.Vector.Backend)
	}
}
