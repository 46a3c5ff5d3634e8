// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package chat

import (
	"context"
	"testing"

	"github.com/VA7DBI/scholarAPI/vector"
	"github.com/stretchr/testify/assert"
)

// stubEmbedder maps known texts to fixed vectors.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, found := e.vectors[text]; found {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

// stubCompleter echoes what it was given so tests can see the prompt.
type stubCompleter struct {
	lastQuestion string
	lastPassages []string
}

func (c *stubCompleter) Complete(ctx context.Context, question string, passages []string) (string, error) {
	c.lastQuestion = question
	c.lastPassages = passages
	return "the answer", nil
}

func setupChatTest(t *testing.T) (*Service, *stubCompleter) {
	store := vector.NewMemoryStore()
	err := store.Add(context.Background(), []vector.Chunk{
		{ID: "c-1", Content: "multi-head attention allows joint attendance",
			Embedding: []float32{1, 0, 0},
			Metadata:  map[string]string{"user_id": "alice", "document_id": "doc-1"}},
		{ID: "c-2", Content: "bob's private chunk",
			Embedding: []float32{1, 0, 0},
			Metadata:  map[string]string{"user_id": "bob", "document_id": "doc-2"}},
	})
	assert.NoError(t, err)

	embedder := &stubEmbedder{vectors: map[string][]float32{
		"what is attention?": {1, 0, 0},
	}}
	completer := &stubCompleter{}

	return NewService(embedder, store, completer), completer
}

func TestSearchIsUserScoped(t *testing.T) {
	svc, _ := setupChatTest(t)

	results, err := svc.Search(context.Background(), "alice", "what is attention?", 10)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "c-1", results[0].Chunk.ID)
}

func TestAnswerUsesRetrievedPassages(t *testing.T) {
	svc, completer := setupChatTest(t)

	answer, results, err := svc.Answer(context.Background(), "alice", "what is attention?")
	assert.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Len(t, results, 1)
	assert.Equal(t, "what is attention?", completer.lastQuestion)
	assert.Equal(t, []string{"multi-head attention allows joint attendance"}, completer.lastPassages)
}
