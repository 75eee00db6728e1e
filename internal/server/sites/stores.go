package sites

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/geminid/internal/storage"
	"github.com/yndnr/geminid/internal/telemetry/logger"
	"github.com/yndnr/geminid/internal/telemetry/metric"
)

// Stores opens document stores on demand, one per directory.
//
// Badger holds an exclusive lock on its directory, so kv sites that
// name the same db_dir share one store.
type Stores struct {
	mu      sync.Mutex
	byDir   map[string]*storage.DocumentStore
	logger  logger.Logger
	metrics *metric.Registry
	kv      storage.BadgerConfig
}

// NewStores returns an empty store set. metrics may be nil.
func NewStores(log logger.Logger, metrics *metric.Registry) *Stores {
	if log == nil {
		log = logger.Default()
	}
	return &Stores{
		byDir:   make(map[string]*storage.DocumentStore),
		logger:  log,
		metrics: metrics,
		kv:      storage.DefaultBadgerConfig(),
	}
}

// Open returns the store for dir, opening it on first use.
func (s *Stores) Open(dir string) (*storage.DocumentStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("db_dir %s: %w", dir, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.byDir[abs]; ok {
		return st, nil
	}

	cfg := storage.DefaultKVConfig(abs)
	cfg.Badger = s.kv
	engine, err := storage.NewBadgerEngine(cfg, logger.Slog(s.logger).With("db_dir", abs))
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", abs, err)
	}
	if s.metrics != nil {
		engine.RegisterMetrics(s.metrics.Prometheus(), prometheus.Labels{"db_dir": abs})
	}

	st := storage.NewDocumentStore(engine)
	s.byDir[abs] = st
	s.logger.Info("document store opened", "db_dir", abs)
	return st, nil
}

// Dirs returns the opened directories, sorted.
func (s *Stores) Dirs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirs := make([]string, 0, len(s.byDir))
	for d := range s.byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Close closes every opened store.
func (s *Stores) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for dir, st := range s.byDir {
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close store %s: %w", dir, err)
		}
		delete(s.byDir, dir)
	}
	return firstErr
}
