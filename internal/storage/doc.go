// Package storage provides the embedded document store behind the kv
// content source.
//
//   - kv.go: the KVEngine abstraction and its configuration
//   - badger.go: KVEngine on Badger v3, with GC and Prometheus gauges
//   - document.go: Gemini documents keyed by (host, path) on a KVEngine
//
// A Badger directory is locked by the process that opens it, so the
// server and "geminictl store" cannot use the same directory at once.
package storage
