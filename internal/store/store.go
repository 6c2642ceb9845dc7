// Package store implements an embedded document store that executes the
// compiled filter, update, and projection documents produced by pkg/query.
// It is the in-process implementation of the driver boundary: collections of
// JSON documents sharded into partitions, with parallel filter scans and an
// optional sqlite-backed write-through persistence layer.
package store

import (
	"path/filepath"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kartikbazzad/docquery/internal/config"
	"github.com/kartikbazzad/docquery/internal/errors"
	"github.com/kartikbazzad/docquery/internal/logger"
	"github.com/kartikbazzad/docquery/internal/metrics"
)

// Store owns collections and the shared scan worker pool.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	cfg         *config.Config
	logger      *logger.Logger
	metrics     *metrics.Collector
	pool        *ants.Pool
	persist     *persister
	closed      bool
}

// Open creates a store from the config. When persistence is enabled,
// previously stored documents are loaded back into their collections.
func Open(cfg *config.Config, log *logger.Logger) (*Store, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.Default()
	}

	pool, err := ants.NewPool(cfg.Store.WorkerCount, ants.WithPanicHandler(func(v any) {
		log.Error("scan worker panic: %v", v)
	}))
	if err != nil {
		return nil, err
	}

	s := &Store{
		collections: make(map[string]*Collection),
		cfg:         cfg,
		logger:      log,
		metrics:     metrics.NewCollector(),
		pool:        pool,
	}

	if cfg.Store.Persist {
		p, err := openPersister(filepath.Join(cfg.DataDir, "docquery.db"), cfg.Store.Compress, log)
		if err != nil {
			pool.Release()
			return nil, err
		}
		s.persist = p

		loaded := 0
		err = p.loadAll(func(collection, id string, payload []byte) error {
			c, err := s.getOrCreate(collection)
			if err != nil {
				return err
			}
			c.putRaw(id, payload)
			loaded++
			return nil
		})
		if err != nil {
			p.close()
			pool.Release()
			return nil, err
		}
		log.Info("loaded %d persisted documents", loaded)
	}

	log.Info("store opened (partitions=%d workers=%d persist=%v)",
		cfg.Store.PartitionCount, cfg.Store.WorkerCount, cfg.Store.Persist)
	return s, nil
}

// Collection returns the named collection, creating it on first use.
func (s *Store) Collection(name string) (*Collection, error) {
	return s.getOrCreate(name)
}

func (s *Store) getOrCreate(name string) (*Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.ErrStoreClosed
	}
	if c, ok := s.collections[name]; ok {
		return c, nil
	}

	c := newCollection(s, name)
	s.collections[name] = c
	s.logger.Debug("collection %q created", name)
	return c, nil
}

// Metrics exposes the store's operation counters.
func (s *Store) Metrics() *metrics.Collector {
	return s.metrics
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrStoreClosed
	}
	return nil
}

// Close releases the worker pool and the persistence backend. Operations on
// the store after Close fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.pool.Release()

	var err error
	if s.persist != nil {
		err = s.persist.close()
	}

	s.logger.Info("store closed")
	return err
}
