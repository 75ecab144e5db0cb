package services

import (
	"strings"

	"drive-rag-chatbot/models"
)

const (
	// DefaultChunkSize is the character budget per chunk.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of characters shared between
	// consecutive chunks.
	DefaultChunkOverlap = 0
)

// SplitText splits extracted text into fixed-size character windows with
// provenance metadata. Deterministic: same input and parameters always
// produce the same chunks. Whitespace-only text yields no chunks, which
// upstream reports as "document produced no content".
//
// With zero overlap, concatenating the chunks in ChunkIndex order
// reconstructs the text exactly.
func SplitText(src models.ExtractedText, chunkSize, overlap int) []models.Chunk {
	if strings.TrimSpace(src.Text) == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}

	// Windows are measured in runes so multi-byte text never splits
	// mid-character.
	runes := []rune(src.Text)
	step := chunkSize - overlap

	var spans []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		spans = append(spans, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	chunks := make([]models.Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = models.Chunk{
			Text:        span,
			SourceID:    src.SourceID,
			DisplayName: src.DisplayName,
			ChunkIndex:  i,
			TotalChunks: len(spans),
		}
	}
	return chunks
}
