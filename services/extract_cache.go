package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"drive-rag-chatbot/internal/logger"
	"drive-rag-chatbot/models"
	"drive-rag-chatbot/utils"
)

const extractKeyPrefix = "extract:"

// ExtractCache keeps extracted document text in redis so re-selecting the
// same documents does not re-download and re-parse them. Entries are stored
// gzip-compressed. Every failure, including redis being down, degrades to a
// cache miss; the cache is an optimization, never a dependency.
type ExtractCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExtractCache wraps a redis client; a nil client yields a disabled
// cache whose lookups always miss.
func NewExtractCache(client *redis.Client, ttl time.Duration) *ExtractCache {
	return &ExtractCache{client: client, ttl: ttl}
}

// Get returns the cached extraction for a document id, if present.
func (c *ExtractCache) Get(ctx context.Context, sourceID string) (models.ExtractedText, bool) {
	if c == nil || c.client == nil {
		return models.ExtractedText{}, false
	}

	compressed, err := c.client.Get(ctx, extractKeyPrefix+sourceID).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("extract cache read failed", "source_id", sourceID, "error", err)
		}
		return models.ExtractedText{}, false
	}

	data, err := utils.DecompressData(compressed, utils.CompressionGzip)
	if err != nil {
		logger.Warn("extract cache entry corrupt", "source_id", sourceID, "error", err)
		return models.ExtractedText{}, false
	}

	var ext models.ExtractedText
	if err := json.Unmarshal(data, &ext); err != nil {
		logger.Warn("extract cache entry corrupt", "source_id", sourceID, "error", err)
		return models.ExtractedText{}, false
	}
	return ext, true
}

// Set stores an extraction result. Empty text is not cached so a transient
// extraction failure does not stick for the TTL.
func (c *ExtractCache) Set(ctx context.Context, ext models.ExtractedText) {
	if c == nil || c.client == nil || ext.Text == "" {
		return
	}

	data, err := json.Marshal(ext)
	if err != nil {
		logger.Warn("extract cache encode failed", "source_id", ext.SourceID, "error", err)
		return
	}
	compressed, err := utils.CompressData(data, utils.CompressionGzip)
	if err != nil {
		logger.Warn("extract cache compress failed", "source_id", ext.SourceID, "error", err)
		return
	}

	if err := c.client.Set(ctx, extractKeyPrefix+ext.SourceID, compressed, c.ttl).Err(); err != nil {
		logger.Warn("extract cache write failed", "source_id", ext.SourceID, "error", err)
	}
}
