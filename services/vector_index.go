package services

import (
	"errors"
	"math"
	"sort"

	"drive-rag-chatbot/models"
)

// DefaultTopK is the retrieval depth when the caller does not specify one.
const DefaultTopK = 4

// VectorIndex is an in-memory nearest-neighbor index over chunk embeddings.
// It is built once per document-selection event and then only read, so it
// carries no lock of its own; the owning session swaps the whole index
// reference under its lock. A nil index is the valid "nothing selected"
// state and searches as empty.
//
// Search is a brute-force cosine scan, which is fine up to the low tens of
// thousands of chunks this system targets.
type VectorIndex struct {
	dimension int
	vectors   [][]float32
	chunks    []models.Chunk
}

// BuildIndex constructs a fresh index from parallel vector/chunk slices.
// Empty input returns a nil index rather than an error.
func BuildIndex(vectors [][]float32, chunks []models.Chunk) (*VectorIndex, error) {
	if len(vectors) != len(chunks) {
		return nil, errors.New("vectors and chunks length mismatch")
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	dimension := len(vectors[0])
	for _, v := range vectors {
		if len(v) != dimension {
			return nil, errors.New("vector dimension mismatch")
		}
	}
	return &VectorIndex{dimension: dimension, vectors: vectors, chunks: chunks}, nil
}

// Len returns the number of indexed chunks; zero for a nil index.
func (ix *VectorIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.chunks)
}

// Search returns up to k chunks ordered by descending cosine similarity to
// the query vector. Ties keep insertion order. k <= 0 falls back to
// DefaultTopK; k beyond the corpus size returns everything.
func (ix *VectorIndex) Search(query []float32, k int) []models.ScoredChunk {
	if ix == nil || len(ix.vectors) == 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	scored := make([]models.ScoredChunk, len(ix.vectors))
	for i, v := range ix.vectors {
		scored[i] = models.ScoredChunk{
			Chunk: ix.chunks[i],
			Score: cosineSimilarity(query, v),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// cosineSimilarity computes full cosine rather than a plain dot product;
// embedding vectors from the API are not guaranteed to be L2-normalized.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
