package services

import (
	"context"

	"drive-rag-chatbot/models"
)

// Embedder is the embedding-service collaborator. Both forms must use the
// same model so corpus and query vectors are comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever embeds a query and searches the active index for it.
type Retriever struct {
	embedder Embedder
	topK     int
}

func NewRetriever(embedder Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, topK: topK}
}

// Retrieve returns the top-k chunks for the query. A nil or empty index
// yields an empty result without touching the embedding service; that empty
// result is what routes the query to the general-knowledge branch.
func (r *Retriever) Retrieve(ctx context.Context, index *VectorIndex, query string) ([]models.ScoredChunk, error) {
	if index.Len() == 0 {
		return nil, nil
	}
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return index.Search(vector, r.topK), nil
}
