// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package chat answers questions about a user's papers by retrieving
// relevant chunks and handing them to an OpenAI-compatible model.
package chat

import (
	"context"
	"fmt"

	"github.com/VA7DBI/scholarAPI/config"
	openai "github.com/sashabaranov/go-openai"
)

// Completer produces a chat answer from a question and its supporting
// context passages.
type Completer interface {
	Complete(ctx context.Context, question string, passages []string) (string, error)
}

// OpenAIClient implements vector.Embedder and Completer against any
// OpenAI-compatible endpoint (the base URL is configurable for local
// model servers).
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
}

func NewOpenAIClient(cfg *config.Config) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAI.BaseURL
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientConfig),
		chatModel:      cfg.OpenAI.ChatModel,
		embeddingModel: openai.EmbeddingModel(cfg.OpenAI.EmbeddingModel),
	}
}

// Embed returns one embedding per input text, index-aligned.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %v", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, item := range resp.Data {
		embeddings[item.Index] = item.Embedding
	}
	return embeddings, nil
}

const systemPrompt = "You are a research assistant. Answer using only the provided excerpts " +
	"from the user's papers. If the excerpts do not contain the answer, say so."

func (c *OpenAIClient) Complete(ctx context.Context, question string, passages []string) (string, error) {
	prompt := question
	if len(passages) > 0 {
		prompt = "Excerpts:\n"
		for i, passage := range passages {
			prompt += fmt.Sprintf("[%d] %s\n\n", i+1, passage)
		}
		prompt += "Question: " + question
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
