package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"drive-rag-chatbot/internal/logger"
	"drive-rag-chatbot/models"
)

// DocumentSource supplies raw documents for selected ids. Read-only.
type DocumentSource interface {
	Fetch(ctx context.Context, id string) (models.RawDocument, error)
}

// ErrNoContent is returned by Ingest when no selected document produced any
// usable text. The previous index, if any, is left in place.
var ErrNoContent = errors.New("no usable content produced from selected documents")

// ErrNotConfigured is returned by Ingest when no embedding service is
// configured. This is a steady state, checked before any remote call.
var ErrNotConfigured = errors.New("AI services are not configured")

// extractWorkers bounds how many documents are fetched and parsed at once
// during one selection event.
const extractWorkers = 4

// RAGService is the core entry point consumed by the HTTP layer: Ingest
// builds a session's index from a document selection, Ask answers a query
// against it.
type RAGService struct {
	embedder  Embedder // nil when unconfigured
	synth     *AnswerSynthesizer
	retriever *Retriever
	cache     *ExtractCache
	chunkSize int
	overlap   int
}

func NewRAGService(embedder Embedder, synth *AnswerSynthesizer, cache *ExtractCache, chunkSize, overlap, topK int) *RAGService {
	var retriever *Retriever
	if embedder != nil {
		retriever = NewRetriever(embedder, topK)
	}
	return &RAGService{
		embedder:  embedder,
		synth:     synth,
		retriever: retriever,
		cache:     cache,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Configured reports whether both embedding and generation are available.
func (s *RAGService) Configured() bool {
	return s.embedder != nil && s.synth.Available()
}

// Ingest runs one document-selection event: fetch and extract the selected
// documents in parallel (failures isolated per document), chunk, embed, and
// atomically replace the session's index. Returns ErrNoContent when nothing
// usable came out of the whole selection.
func (s *RAGService) Ingest(ctx context.Context, sess *Session, source DocumentSource, ids []string) (*models.IngestReport, error) {
	if s.embedder == nil {
		return nil, ErrNotConfigured
	}

	extracted, skipped := s.extractAll(ctx, source, ids)

	var chunks []models.Chunk
	documentCount := 0
	for _, ext := range extracted {
		docChunks := SplitText(ext, s.chunkSize, s.overlap)
		if len(docChunks) == 0 {
			skipped = append(skipped, models.SkippedDocument{
				SourceID:    ext.SourceID,
				DisplayName: ext.DisplayName,
				Reason:      "document produced no content",
			})
			continue
		}
		documentCount++
		chunks = append(chunks, docChunks...)
	}

	if len(chunks) == 0 {
		return &models.IngestReport{Skipped: skipped}, ErrNoContent
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	index, err := BuildIndex(vectors, chunks)
	if err != nil {
		return nil, err
	}

	sess.ReplaceIndex(index, ids)
	logger.Info("index built", "session", sess.ID, "documents", documentCount, "chunks", len(chunks), "skipped", len(skipped))

	return &models.IngestReport{
		DocumentCount: documentCount,
		ChunkCount:    len(chunks),
		Skipped:       skipped,
	}, nil
}

// Ask answers one query against the session's active index. It never
// returns an error: every failure mode resolves to a user-safe string, with
// detail going to the log only.
func (s *RAGService) Ask(ctx context.Context, sess *Session, query string) string {
	if strings.TrimSpace(query) == "" {
		return MsgEmptyQuery
	}
	if !s.synth.Available() {
		return MsgUnavailable
	}

	var results []models.ScoredChunk
	if s.retriever != nil {
		var err error
		results, err = s.retriever.Retrieve(ctx, sess.Index(), query)
		if err != nil {
			logger.Error("query retrieval failed", "session", sess.ID, "error", err)
			return UserMessageForError(err)
		}
	}

	return s.synth.Answer(ctx, query, results)
}

// extractAll fetches and extracts each document, at most extractWorkers at
// a time. One failing document never aborts the others. Results come back
// in selection order.
func (s *RAGService) extractAll(ctx context.Context, source DocumentSource, ids []string) ([]models.ExtractedText, []models.SkippedDocument) {
	type outcome struct {
		ext     models.ExtractedText
		skipped *models.SkippedDocument
	}

	outcomes := make([]outcome, len(ids))
	sem := make(chan struct{}, extractWorkers)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ext, skipReason := s.extractOne(ctx, source, id)
			if skipReason != "" {
				outcomes[i] = outcome{skipped: &models.SkippedDocument{
					SourceID:    id,
					DisplayName: ext.DisplayName,
					Reason:      skipReason,
				}}
				return
			}
			outcomes[i] = outcome{ext: ext}
		}(i, id)
	}
	wg.Wait()

	var extracted []models.ExtractedText
	var skipped []models.SkippedDocument
	for _, o := range outcomes {
		if o.skipped != nil {
			skipped = append(skipped, *o.skipped)
			continue
		}
		extracted = append(extracted, o.ext)
	}
	return extracted, skipped
}

// extractOne resolves one document to extracted text, consulting the cache
// first. A non-empty skip reason means the document contributed nothing.
func (s *RAGService) extractOne(ctx context.Context, source DocumentSource, id string) (models.ExtractedText, string) {
	if cached, ok := s.cache.Get(ctx, id); ok {
		return cached, ""
	}

	raw, err := source.Fetch(ctx, id)
	if err != nil {
		logger.Warn("document fetch failed", "source_id", id, "error", err)
		return models.ExtractedText{SourceID: id}, "fetch failed: " + err.Error()
	}

	ext, err := ExtractDocument(raw)
	if err != nil {
		logger.Warn("document extraction failed", "source_id", id, "name", raw.Name, "error", err)
		return ext, "extraction failed: " + err.Error()
	}

	s.cache.Set(ctx, ext)
	return ext, ""
}
