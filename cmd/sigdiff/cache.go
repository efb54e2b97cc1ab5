// cmd/sigdiff/cache.go
package main

import (
	"fmt"

	"sigdiff/internal/cache"
)

func openCacheStore() (*cache.Store, error) {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	if cfg.Cache.Disabled {
		return nil, fmt.Errorf("extraction cache is disabled in config")
	}

	return cache.Open(cache.Options{
		Dir:    cfg.Cache.Dir,
		Logger: logger.Logger,
	})
}

func runCacheStats() error {
	store, err := openCacheStore()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("reading cache stats: %w", err)
	}

	fmt.Printf("%d cached extractions, %d bytes stored\n", stats.Entries, stats.TotalSize)
	return nil
}

func runCacheClear() error {
	store, err := openCacheStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	store.RunGC()

	fmt.Println("Extraction cache cleared")
	return nil
}
