package extract

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigdiff/internal/cache"
	sderr "sigdiff/internal/errors"
)

type countingExtractor struct {
	calls int32
	doc   *Document
	err   error
}

func (c *countingExtractor) Extract(ctx context.Context, dir string) (*Document, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.err != nil {
		return nil, c.err
	}
	return c.doc, nil
}

func setupCachingExtractor(t *testing.T, inner Extractor) *CachingExtractor {
	store, err := cache.Open(cache.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewCachingExtractor(inner, store, "engine --json", nil)
}

func TestCachingExtractorHit(t *testing.T) {
	inner := &countingExtractor{doc: NewDocument([]Symbol{
		{Path: "m::f", Signature: "fn f()"},
	})}
	caching := setupCachingExtractor(t, inner)
	ctx := context.Background()

	first, err := caching.ExtractCommit(ctx, "/wt", "sha-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.calls))

	second, err := caching.ExtractCommit(ctx, "/other-wt", "sha-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.calls), "second extraction must come from cache")
	assert.Equal(t, first.Symbols, second.Symbols)
}

func TestCachingExtractorMissPerCommit(t *testing.T) {
	inner := &countingExtractor{doc: NewDocument(nil)}
	caching := setupCachingExtractor(t, inner)
	ctx := context.Background()

	_, err := caching.ExtractCommit(ctx, "/wt", "sha-1")
	require.NoError(t, err)
	_, err = caching.ExtractCommit(ctx, "/wt", "sha-2")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&inner.calls))
}

func TestCachingExtractorFailureNotCached(t *testing.T) {
	inner := &countingExtractor{err: sderr.ExtractionFailed("boom", nil)}
	caching := setupCachingExtractor(t, inner)
	ctx := context.Background()

	_, err := caching.ExtractCommit(ctx, "/wt", "sha-1")
	require.Error(t, err)

	_, err = caching.ExtractCommit(ctx, "/wt", "sha-1")
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&inner.calls), "failures must not be served from cache")
}
