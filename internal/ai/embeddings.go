package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// EmbeddingClient maps text to fixed-dimension vectors through the Google
// Generative AI embedding endpoint. Corpus chunks and queries go through
// the same model, so their vectors live in the same space.
type EmbeddingClient struct {
	client *genai.Client
	model  string
}

// NewEmbeddingClient creates an embedding client for the given model
// (e.g. "text-embedding-004").
func NewEmbeddingClient(ctx context.Context, apiKey, model string) (*EmbeddingClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &EmbeddingClient{client: client, model: model}, nil
}

// Embed returns the embedding vector for a single text (query-time path).
func (ec *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	em := ec.client.EmbeddingModel(ec.model)
	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, classify("embed content", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, classify("embed content", fmt.Errorf("no embedding returned"))
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch returns one vector per input text, in input order
// (index-build path).
func (ec *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	em := ec.client.EmbeddingModel(ec.model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch = batch.AddContent(genai.Text(t))
	}
	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, classify("batch embed contents", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, classify("batch embed contents",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)))
	}
	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, classify("batch embed contents", fmt.Errorf("empty embedding at index %d", i))
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Close releases the underlying API client.
func (ec *EmbeddingClient) Close() error {
	if ec.client != nil {
		return ec.client.Close()
	}
	return nil
}
