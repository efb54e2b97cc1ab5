// internal/cache/cache.go
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("cache entry not found")

const keyPrefix = "extract:"

// Store caches extraction results keyed by commit SHA plus engine
// identity. Payloads are compressed above a size threshold and fronted
// by an in-memory LRU so repeated diffs against the same revision skip
// badger entirely.
type Store struct {
	db     *badger.DB
	cache  *lru.Cache[string, []byte]
	comp   *compressor
	logger *zap.Logger
}

// Options configures Store behavior
type Options struct {
	Dir         string // badger directory; ignored when InMemory
	InMemory    bool
	CacheSize   int // number of items in the LRU
	MinCompress int // payload bytes below this are stored raw
	Logger      *zap.Logger
}

// Stats summarizes cache contents.
type Stats struct {
	Entries   int
	TotalSize int64
}

func Open(opts Options) (*Store, error) {
	if opts.CacheSize == 0 {
		opts.CacheSize = 32
	}
	if opts.MinCompress == 0 {
		opts.MinCompress = 1024 // 1KB
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, fmt.Errorf("cache directory is required")
		}
		badgerOpts = badger.DefaultOptions(opts.Dir)
	}
	badgerOpts.Logger = nil

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	memory, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	comp, err := newCompressor(opts.MinCompress)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		cache:  memory,
		comp:   comp,
		logger: opts.Logger,
	}, nil
}

// Key builds the cache key for one extraction.
func Key(commitSHA, engineIdentity string) string {
	return commitSHA + "|" + engineIdentity
}

// Get retrieves a cached payload. Returns ErrNotFound on a miss.
func (s *Store) Get(key string) ([]byte, error) {
	if payload, ok := s.cache.Get(key); ok {
		return payload, nil
	}

	var stored []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			stored = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	payload, err := s.comp.decode(stored)
	if err != nil {
		return nil, fmt.Errorf("decompressing cache entry: %w", err)
	}

	s.cache.Add(key, payload)
	return payload, nil
}

// Put stores a payload under key, overwriting any previous entry.
func (s *Store) Put(key string, payload []byte) error {
	stored, compressed := s.comp.encode(payload)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), stored)
	})
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}

	s.cache.Add(key, payload)
	s.logger.Debug("cached extraction result",
		zap.String("key", key),
		zap.Int("size", len(payload)),
		zap.Bool("compressed", compressed))
	return nil
}

// Clear drops every cached extraction.
func (s *Store) Clear() error {
	s.cache.Purge()
	return s.db.DropPrefix([]byte(keyPrefix))
}

// Stats walks the cache and reports entry count and stored size.
func (s *Store) Stats() (Stats, error) {
	var stats Stats
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stats.Entries++
			stats.TotalSize += it.Item().ValueSize()
		}
		return nil
	})
	return stats, err
}

func (s *Store) Close() error {
	s.comp.close()
	return s.db.Close()
}

// RunGC triggers a badger value-log GC pass. Best effort.
func (s *Store) RunGC() {
	for {
		if err := s.db.RunValueLogGC(0.5); err != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
