package storage

import (
	"context"
	"io"
)

// KVEngine is an embedded key-value store.
//
// Implementations are safe for concurrent use.
type KVEngine interface {
	// Get returns ErrKeyNotFound if key does not exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	Set(ctx context.Context, key, value []byte) error

	Delete(ctx context.Context, key []byte) error

	// Scan visits keys with prefix in order; fn returns false to stop.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	// Backup streams a full copy of the store to w.
	Backup(ctx context.Context, w io.Writer) error

	// Restore loads a stream produced by Backup, replacing all data.
	Restore(ctx context.Context, r io.Reader) error

	// GC reclaims space from deleted or overwritten values.
	GC(ctx context.Context) (uint64, error)

	Stats(ctx context.Context) (*KVStats, error)

	Close() error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// TotalSize is LSMSize plus ValueLogSize.
	TotalSize    uint64
	LSMSize      uint64
	ValueLogSize uint64

	// LastGCTime is the last GC run in Unix milliseconds, 0 if never.
	LastGCTime int64

	GCRuns uint64
}

// KVConfig configures an embedded KV engine.
type KVConfig struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory; used by tests.
	InMemory bool

	// ReadOnly opens an existing store without write access.
	ReadOnly bool

	Badger BadgerConfig
}

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic GC runs. Default: 10m
	GCInterval string

	// GCThreshold is the discard ratio passed to RunValueLogGC. Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes. Default: 16MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes. Default: 64MB
	ValueLogFileSize int64

	// SyncWrites fsyncs after each write. Default: true
	SyncWrites bool
}

// DefaultKVConfig returns the default KV configuration for dir.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns Badger settings sized for a small
// document store with infrequent writes.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        16 << 20,
		ValueLogFileSize: 64 << 20,
		SyncWrites:       true,
	}
}
