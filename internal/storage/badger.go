package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
	ErrReadOnly    = errors.New("kv engine is read-only")
)

// BadgerEngine implements KVEngine using Badger v3.
type BadgerEngine struct {
	mu       sync.RWMutex
	db       *badger.DB
	opts     badger.Options
	cfg      BadgerConfig
	readOnly bool
	logger   *slog.Logger

	lastGCTime atomic.Int64
	gcRuns     atomic.Uint64

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsTotalSize    prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	closeOnce sync.Once
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewBadgerEngine opens (creating if needed) a Badger store.
func NewBadgerEngine(cfg KVConfig, logger *slog.Logger) (*BadgerEngine, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}

	bc := cfg.Badger
	if bc.CacheSize > 0 {
		opts.BlockCacheSize = bc.CacheSize
	}
	if bc.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = bc.ValueLogFileSize
	}
	opts.SyncWrites = bc.SyncWrites
	opts.ReadOnly = cfg.ReadOnly

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	e := &BadgerEngine{
		db:       db,
		opts:     opts,
		cfg:      bc,
		readOnly: cfg.ReadOnly,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}

	if !cfg.ReadOnly && !cfg.InMemory {
		e.wg.Add(1)
		go e.gcLoop()
	}

	logger.Debug("badger engine started",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"read_only", cfg.ReadOnly)

	return e, nil
}

func (e *BadgerEngine) handle() (*badger.DB, func(), error) {
	e.mu.RLock()
	if e.db == nil {
		e.mu.RUnlock()
		return nil, nil, ErrClosed
	}
	return e.db, e.mu.RUnlock, nil
}

// Get retrieves a value by key.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	db, release, err := e.handle()
	if err != nil {
		return nil, err
	}
	defer release()

	var value []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a key-value pair.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte) error {
	if e.readOnly {
		return ErrReadOnly
	}
	db, release, err := e.handle()
	if err != nil {
		return err
	}
	defer release()

	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete removes a key. Deleting a missing key is not an error.
func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	if e.readOnly {
		return ErrReadOnly
	}
	db, release, err := e.handle()
	if err != nil {
		return err
	}
	defer release()

	return db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Scan iterates over keys with a given prefix.
func (e *BadgerEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	db, release, err := e.handle()
	if err != nil {
		return err
	}
	defer release()

	return db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.KeyCopy(nil), value) {
				break
			}
		}
		return nil
	})
}

// Backup writes a full Badger backup stream to w.
func (e *BadgerEngine) Backup(ctx context.Context, w io.Writer) error {
	db, release, err := e.handle()
	if err != nil {
		return err
	}
	defer release()

	if _, err := db.Backup(w, 0); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	return nil
}

// Restore drops all data and loads a backup stream.
func (e *BadgerEngine) Restore(ctx context.Context, r io.Reader) error {
	if e.readOnly {
		return ErrReadOnly
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return ErrClosed
	}

	if err := e.db.DropAll(); err != nil {
		return fmt.Errorf("drop existing data: %w", err)
	}
	if err := e.db.Load(r, 256); err != nil {
		return fmt.Errorf("load backup: %w", err)
	}

	e.logger.Info("store restored from backup", "dir", e.opts.Dir)
	return nil
}

// GC runs value log GC until Badger reports nothing left to rewrite.
// It returns the number of value log files rewritten.
func (e *BadgerEngine) GC(ctx context.Context) (uint64, error) {
	if e.readOnly {
		return 0, ErrReadOnly
	}
	db, release, err := e.handle()
	if err != nil {
		return 0, err
	}
	defer release()

	start := time.Now()
	var rewritten uint64
	for {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}
		err := db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return rewritten, fmt.Errorf("gc: %w", err)
		}
		rewritten++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.gcRuns.Add(1)
	if e.metricsGCRuns != nil {
		e.metricsGCRuns.Inc()
	}

	e.logger.Debug("gc completed",
		"files_rewritten", rewritten,
		"elapsed", time.Since(start))

	return rewritten, nil
}

// Stats returns storage statistics.
func (e *BadgerEngine) Stats(ctx context.Context) (*KVStats, error) {
	db, release, err := e.handle()
	if err != nil {
		return nil, err
	}
	defer release()

	lsm, vlog := db.Size()
	return &KVStats{
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   e.lastGCTime.Load(),
		GCRuns:       e.gcRuns.Load(),
	}, nil
}

// Close stops background work and closes the database. Safe to call twice.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.stopCh)
		e.wg.Wait()

		e.mu.Lock()
		defer e.mu.Unlock()
		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
		e.db = nil
	})
	return err
}

// RegisterMetrics registers size and GC metrics on registry and starts a
// loop refreshing them. It must be called at most once per engine.
func (e *BadgerEngine) RegisterMetrics(registry *prometheus.Registry, constLabels prometheus.Labels) *BadgerEngine {
	if registry == nil {
		return e
	}

	e.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "geminid",
		Subsystem:   "store",
		Name:        "lsm_size_bytes",
		Help:        "Document store LSM tree size in bytes.",
		ConstLabels: constLabels,
	})
	e.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "geminid",
		Subsystem:   "store",
		Name:        "value_log_size_bytes",
		Help:        "Document store value log size in bytes.",
		ConstLabels: constLabels,
	})
	e.metricsTotalSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "geminid",
		Subsystem:   "store",
		Name:        "total_size_bytes",
		Help:        "Document store size in bytes (LSM + value log).",
		ConstLabels: constLabels,
	})
	e.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "geminid",
		Subsystem:   "store",
		Name:        "last_gc_timestamp_seconds",
		Help:        "Unix time of the last value log GC.",
		ConstLabels: constLabels,
	})
	e.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "geminid",
		Subsystem:   "store",
		Name:        "gc_runs_total",
		Help:        "Completed value log GC runs.",
		ConstLabels: constLabels,
	})

	registry.MustRegister(
		e.metricsLSMSize,
		e.metricsValueLogSize,
		e.metricsTotalSize,
		e.metricsLastGCTime,
		e.metricsGCRuns,
	)

	e.updateMetrics()

	e.wg.Add(1)
	go e.metricsUpdateLoop()

	return e
}

func (e *BadgerEngine) updateMetrics() {
	stats, err := e.Stats(context.Background())
	if err != nil {
		return
	}
	e.metricsLSMSize.Set(float64(stats.LSMSize))
	e.metricsValueLogSize.Set(float64(stats.ValueLogSize))
	e.metricsTotalSize.Set(float64(stats.TotalSize))
	if stats.LastGCTime > 0 {
		e.metricsLastGCTime.Set(float64(stats.LastGCTime) / 1000.0)
	}
}

func (e *BadgerEngine) metricsUpdateLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.updateMetrics()
		case <-e.stopCh:
			return
		}
	}
}

func (e *BadgerEngine) gcLoop() {
	defer e.wg.Done()

	interval, err := time.ParseDuration(e.cfg.GCInterval)
	if err != nil || interval <= 0 {
		e.logger.Warn("invalid gc_interval, using 10m", "value", e.cfg.GCInterval)
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := e.GC(ctx); err != nil && !errors.Is(err, ErrClosed) {
				e.logger.Error("auto gc failed", "error", err)
			}
			cancel()
		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger's info chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
