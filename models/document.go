package models

// DocumentFormat tags a RawDocument payload with the parser it needs.
// The set is closed: supporting a new source type means adding a tag
// and one extractor variant, nothing else.
type DocumentFormat string

const (
	FormatGoogleDoc   DocumentFormat = "google-doc"
	FormatPDF         DocumentFormat = "pdf"
	FormatSlideDeck   DocumentFormat = "slide-deck"
	FormatSpreadsheet DocumentFormat = "spreadsheet"
	FormatPlainText   DocumentFormat = "plain-text"
)

// RawDocument is the opaque payload fetched from the document source.
// Immutable once fetched. For Google Docs, Data holds the structured
// document body as JSON; for every other format it holds the file bytes.
type RawDocument struct {
	SourceID string
	Name     string
	Format   DocumentFormat
	Data     []byte
}

// ExtractedText is the flat-text result of running an extractor over one
// document. Text may be empty: extraction failure and a genuinely empty
// document both degrade to the same non-fatal state.
type ExtractedText struct {
	SourceID    string `json:"source_id"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
}

// Chunk is a bounded contiguous span of a document's text, the unit of
// indexing and retrieval. Concatenating a document's chunks in ChunkIndex
// order reconstructs its extracted text exactly when overlap is zero.
type Chunk struct {
	Text        string `json:"text"`
	SourceID    string `json:"source_id"`
	DisplayName string `json:"display_name"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// ScoredChunk pairs a retrieved chunk with its similarity to the query.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// SkippedDocument records a per-document outcome that contributed no
// content to the index, with a human-readable reason.
type SkippedDocument struct {
	SourceID    string `json:"source_id"`
	DisplayName string `json:"display_name,omitempty"`
	Reason      string `json:"reason"`
}

// IngestReport summarizes one document-selection event.
type IngestReport struct {
	DocumentCount int               `json:"document_count"`
	ChunkCount    int               `json:"chunk_count"`
	Skipped       []SkippedDocument `json:"skipped,omitempty"`
}

// DocumentInfo is a listable entry from the document source.
type DocumentInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}
