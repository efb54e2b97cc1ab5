// internal/extract/caching.go
package extract

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"sigdiff/internal/cache"
)

// CachingExtractor wraps an Extractor with the persistent result cache.
// Extraction output is immutable per commit, so a hit keyed by the
// resolved SHA and engine identity is equivalent to a fresh run. Cache
// trouble is logged and degrades to extraction; it never fails a run.
type CachingExtractor struct {
	inner  Extractor
	store  *cache.Store
	engine string
	logger *zap.Logger
}

func NewCachingExtractor(inner Extractor, store *cache.Store, engineIdentity string, logger *zap.Logger) *CachingExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingExtractor{
		inner:  inner,
		store:  store,
		engine: engineIdentity,
		logger: logger,
	}
}

// ExtractCommit extracts dir, using commitSHA as the cache key.
func (c *CachingExtractor) ExtractCommit(ctx context.Context, dir, commitSHA string) (*Document, error) {
	key := cache.Key(commitSHA, c.engine)

	if payload, err := c.store.Get(key); err == nil {
		doc, parseErr := ParseDocument(payload)
		if parseErr == nil {
			c.logger.Debug("extraction cache hit",
				zap.String("commit", commitSHA),
				zap.Int("symbols", doc.Len()))
			return doc, nil
		}
		c.logger.Warn("discarding corrupt cache entry",
			zap.String("commit", commitSHA),
			zap.Error(parseErr))
	} else if !errors.Is(err, cache.ErrNotFound) {
		c.logger.Warn("cache lookup failed",
			zap.String("commit", commitSHA),
			zap.Error(err))
	}

	doc, err := c.inner.Extract(ctx, dir)
	if err != nil {
		return nil, err
	}

	if payload, err := MarshalDocument(doc); err == nil {
		if err := c.store.Put(key, payload); err != nil {
			c.logger.Warn("cache store failed",
				zap.String("commit", commitSHA),
				zap.Error(err))
		}
	}

	return doc, nil
}

// Extract satisfies Extractor for callers without a commit key; it
// delegates straight to the inner extractor.
func (c *CachingExtractor) Extract(ctx context.Context, dir string) (*Document, error) {
	return c.inner.Extract(ctx, dir)
}
