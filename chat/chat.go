// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package chat

import (
	"context"
	"fmt"

	"github.com/VA7DBI/scholarAPI/vector"
)

// DefaultTopK is how many chunks back a search or an answer when the
// caller does not say.
const DefaultTopK = 5

// Service glues the embedder, the vector store and the completer into
// user-scoped search and question answering. Retrieval quality knobs
// live in the collaborators, not here.
type Service struct {
	embedder  vector.Embedder
	store     vector.Store
	completer Completer
}

func NewService(embedder vector.Embedder, store vector.Store, completer Completer) *Service {
	return &Service{
		embedder:  embedder,
		store:     store,
		completer: completer,
	}
}

// Search embeds the query and returns the user's closest chunks.
func (s *Service) Search(ctx context.Context, userID, query string, limit int) ([]vector.Result, error) {
	if limit <= 0 {
		limit = DefaultTopK
	}

	embeddings, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected one query embedding, got %d", len(embeddings))
	}

	return s.store.Search(ctx, embeddings[0], limit, map[string]string{"user_id": userID})
}

// Answer retrieves the user's most relevant chunks and asks the model
// to answer from them.
func (s *Service) Answer(ctx context.Context, userID, question string) (string, []vector.Result, error) {
	results, err := s.Search(ctx, userID, question, DefaultTopK)
	if err != nil {
		return "", nil, err
	}

	passages := make([]string, len(results))
	for i, result := range results {
		passages[i] = result.Chunk.Content
	}

	answer, err := s.completer.Complete(ctx, question, passages)
	if err != nil {
		return "", nil, err
	}
	return answer, results, nil
}
