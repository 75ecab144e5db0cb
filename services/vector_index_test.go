package services

import (
	"testing"

	"drive-rag-chatbot/models"
)

func chunksNamed(names ...string) []models.Chunk {
	chunks := make([]models.Chunk, len(names))
	for i, n := range names {
		chunks[i] = models.Chunk{Text: n, SourceID: n, DisplayName: n}
	}
	return chunks
}

func TestBuildIndexLengthMismatch(t *testing.T) {
	_, err := BuildIndex([][]float32{{1, 0}}, chunksNamed("a", "b"))
	if err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestBuildIndexDimensionMismatch(t *testing.T) {
	_, err := BuildIndex([][]float32{{1, 0}, {1, 0, 0}}, chunksNamed("a", "b"))
	if err == nil {
		t.Fatal("expected error for mismatched dimensions")
	}
}

func TestBuildIndexEmpty(t *testing.T) {
	ix, err := BuildIndex(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ix != nil {
		t.Fatal("expected nil index for empty input")
	}
	if ix.Len() != 0 {
		t.Errorf("nil index Len = %d", ix.Len())
	}
	if got := ix.Search([]float32{1, 0}, 4); got != nil {
		t.Errorf("nil index search returned %d results", len(got))
	}
}

func TestSearchOrdering(t *testing.T) {
	vectors := [][]float32{
		{1, 0},         // identical direction to the query
		{0, 1},         // orthogonal
		{0.7, 0.7},     // diagonal
		{0.9, 0.1},     // close
		{-1, 0},        // opposite
	}
	ix, err := BuildIndex(vectors, chunksNamed("exact", "orthogonal", "diagonal", "close", "opposite"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	results := ix.Search([]float32{1, 0}, 3)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	wantOrder := []string{"exact", "close", "diagonal"}
	for i, w := range wantOrder {
		if results[i].Chunk.Text != w {
			t.Errorf("rank %d = %q, want %q", i, results[i].Chunk.Text, w)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not descending at rank %d", i)
		}
	}
}

func TestSearchKLargerThanCorpus(t *testing.T) {
	ix, _ := BuildIndex([][]float32{{1, 0}, {0, 1}}, chunksNamed("a", "b"))
	results := ix.Search([]float32{1, 0}, 10)
	if len(results) != 2 {
		t.Fatalf("expected all 2 results, got %d", len(results))
	}
}

func TestSearchDefaultK(t *testing.T) {
	vectors := make([][]float32, 6)
	names := make([]string, 6)
	for i := range vectors {
		vectors[i] = []float32{1, float32(i)}
		names[i] = string(rune('a' + i))
	}
	ix, _ := BuildIndex(vectors, chunksNamed(names...))

	results := ix.Search([]float32{1, 0}, 0)
	if len(results) != DefaultTopK {
		t.Fatalf("expected %d results for k=0, got %d", DefaultTopK, len(results))
	}
}

func TestSearchStableTies(t *testing.T) {
	// Three identical vectors tie exactly; insertion order must hold.
	vectors := [][]float32{{1, 1}, {1, 1}, {1, 1}}
	ix, _ := BuildIndex(vectors, chunksNamed("first", "second", "third"))

	results := ix.Search([]float32{2, 2}, 3)
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if results[i].Chunk.Text != w {
			t.Errorf("rank %d = %q, want %q", i, results[i].Chunk.Text, w)
		}
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("zero vector similarity = %v, want 0", got)
	}
}
