package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docpipe/doc-chunk-service/internal/cache"
	"github.com/docpipe/doc-chunk-service/internal/document"
)

// ChunkService splits raw text into chunks on demand, without a stored
// document behind it. Chunk runs are memoized in the cache keyed by the text
// digest and splitter parameters, so repeated requests for the same input
// skip the splitter entirely.
type ChunkService struct {
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *logrus.Logger
}

// ChunkOption configures a ChunkService.
type ChunkOption func(*ChunkService)

// NewChunkService creates a chunk service backed by the given cache. A nil
// cache disables memoization.
func NewChunkService(c cache.Cache, opts ...ChunkOption) *ChunkService {
	srv := &ChunkService{
		cache:    c,
		cacheTTL: 24 * time.Hour,
		logger:   logrus.New(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// WithChunkCacheTTL sets how long memoized chunk runs live.
func WithChunkCacheTTL(ttl time.Duration) ChunkOption {
	return func(s *ChunkService) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithChunkLogger sets the logger.
func WithChunkLogger(logger *logrus.Logger) ChunkOption {
	return func(s *ChunkService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Chunk splits text with the given configuration. The returned bool reports
// whether the result came from the cache.
func (s *ChunkService) Chunk(ctx context.Context, text string, cfg document.SplitterConfig) ([]document.Content, bool, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = document.DefaultChunkSize
	}
	if cfg.SplitType == "" {
		cfg.SplitType = document.BySentence
	}

	key := cache.ChunkKey(text, string(cfg.SplitType), cfg.ChunkSize, cfg.ChunkOverlap)

	if s.cache != nil {
		if cached, found, err := s.cache.Get(key); err == nil && found {
			var chunks []document.Content
			if err := json.Unmarshal([]byte(cached), &chunks); err == nil {
				s.logger.WithField("cache_key", key).Debug("Chunk cache hit")
				return chunks, true, nil
			}
			// A corrupt entry is dropped and recomputed.
			if err := s.cache.Delete(key); err != nil {
				s.logger.WithError(err).Warn("Failed to drop corrupt cache entry")
			}
		}
	}

	splitter := document.NewTextSplitter(cfg)
	chunks, err := splitter.Split(text)
	if err != nil {
		return nil, false, fmt.Errorf("failed to split text: %w", err)
	}

	if s.cache != nil {
		encoded, err := json.Marshal(chunks)
		if err == nil {
			if err := s.cache.Set(key, string(encoded), s.cacheTTL); err != nil {
				s.logger.WithError(err).Warn("Failed to cache chunk run")
			}
		}
	}

	return chunks, false, nil
}
