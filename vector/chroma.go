// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/VA7DBI/scholarAPI/config"
	"github.com/hashicorp/go-retryablehttp"
)

// ChromaStore talks to a Chroma server over its v1 REST API. Requests
// are retried with backoff on transient failures.
type ChromaStore struct {
	client     *retryablehttp.Client
	baseURL    string
	collection string

	mu           sync.Mutex
	collectionID string
}

func NewChromaStore(cfg *config.Config) (*ChromaStore, error) {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	return &ChromaStore{
		client:     client,
		baseURL:    fmt.Sprintf("http://%s:%d/api/v1", cfg.Vector.Host, cfg.Vector.Port),
		collection: cfg.Vector.Collection,
	}, nil
}

// ensureCollection resolves (creating if needed) the collection ID.
// Chroma addresses collections by UUID, not name.
func (s *ChromaStore) ensureCollection(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collectionID != "" {
		return s.collectionID, nil
	}

	var resp struct {
		ID string `json:"id"`
	}
	err := s.post(ctx, "/collections", map[string]interface{}{
		"name":          s.collection,
		"get_or_create": true,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to open chroma collection: %v", err)
	}

	s.collectionID = resp.ID
	return s.collectionID, nil
}

func (s *ChromaStore) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, len(chunks))
	documents := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	metadatas := make([]map[string]string, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.ID
		documents[i] = chunk.Content
		embeddings[i] = chunk.Embedding
		metadatas[i] = chunk.Metadata
	}

	return s.post(ctx, "/collections/"+collectionID+"/add", map[string]interface{}{
		"ids":        ids,
		"documents":  documents,
		"embeddings": embeddings,
		"metadatas":  metadatas,
	}, nil)
}

func (s *ChromaStore) Search(ctx context.Context, embedding []float32, limit int, filter map[string]string) ([]Result, error) {
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"query_embeddings": [][]float32{embedding},
		"n_results":        limit,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if len(filter) > 0 {
		body["where"] = filter
	}

	var resp struct {
		IDs       [][]string            `json:"ids"`
		Documents [][]string            `json:"documents"`
		Metadatas [][]map[string]string `json:"metadatas"`
		Distances [][]float64           `json:"distances"`
	}
	if err := s.post(ctx, "/collections/"+collectionID+"/query", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}

	results := make([]Result, 0, len(resp.IDs[0]))
	for i, id := range resp.IDs[0] {
		result := Result{Chunk: Chunk{ID: id}}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			result.Chunk.Content = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			result.Chunk.Metadata = resp.Metadatas[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			// Chroma returns a distance; flip it into a similarity.
			result.Score = 1 - resp.Distances[0][i]
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *ChromaStore) DeleteByDocument(ctx context.Context, documentID string) error {
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}

	return s.post(ctx, "/collections/"+collectionID+"/delete", map[string]interface{}{
		"where": map[string]string{"document_id": documentID},
	}, nil)
}

func (s *ChromaStore) Health(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/heartbeat", nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chroma heartbeat returned %d", resp.StatusCode)
	}
	return nil
}

func (s *ChromaStore) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chroma %s returned %d: %s", path, resp.StatusCode, detail)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
