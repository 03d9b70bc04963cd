package embedding

import (
	"context"
	"errors"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.SmallEmbedding3

// OpenAI embeds text through the OpenAI embeddings API.
type OpenAI struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAI creates a backend. baseURL may be empty to use the public API.
func NewOpenAI(apiKey, model, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	m := openai.EmbeddingModel(model)
	if m == "" {
		m = DefaultOpenAIModel
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  m,
	}, nil
}

// Name implements Backend.
func (o *OpenAI) Name() string { return "openai" }

// Model implements Backend.
func (o *OpenAI) Model() string { return string(o.model) }

// Load verifies that the configured model exists and is visible to the key.
func (o *OpenAI) Load(ctx context.Context) error {
	if _, err := o.client.GetModel(ctx, string(o.model)); err != nil {
		return fmt.Errorf("get model %s: %w", o.model, err)
	}
	return nil
}

// Embed implements Backend.
func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: o.model,
	})
	if err != nil {
		return nil, err
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool {
		return data[i].Index < data[j].Index
	})

	vectors := make([][]float32, len(data))
	for i, d := range data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
